package access

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/nexusdirectory/accessd/internal/common"
)

// filterKind distinguishes the predicate node shapes the wire encoding
// supports: Eq, Sub, Pres, And, Or, AndNot, plus the Self sentinel that
// resolves to an equality against the caller's uuid.
type filterKind int

const (
	kindEq filterKind = iota
	kindSub
	kindPres
	kindAnd
	kindOr
	kindAndNot
	kindSelf
)

// Filter is a predicate tree over entries. It may still contain Self
// nodes; such a filter must be resolved against an event before it can
// be evaluated. Filter is immutable once built — the only way to build
// one is via the constructor functions below or by decoding the wire
// JSON encoding.
type Filter struct {
	kind     filterKind
	attr     string
	value    string
	children []Filter
}

func Eq(attr, value string) Filter   { return Filter{kind: kindEq, attr: attr, value: value} }
func Sub(attr, substr string) Filter { return Filter{kind: kindSub, attr: attr, value: substr} }
func Pres(attr string) Filter        { return Filter{kind: kindPres, attr: attr} }
func And(children ...Filter) Filter  { return Filter{kind: kindAnd, children: children} }
func Or(children ...Filter) Filter   { return Filter{kind: kindOr, children: children} }
func AndNot(child Filter) Filter     { return Filter{kind: kindAndNot, children: []Filter{child}} }
func SelfFilter() Filter             { return Filter{kind: kindSelf} }

// RequestedAttributes returns the set of attribute names syntactically
// referenced by f, used by the entry-level search check to compute the
// requested-attribute subset check. Self counts as a reference to
// "uuid", the attribute it resolves against.
func (f Filter) RequestedAttributes() map[string]bool {
	out := make(map[string]bool)
	f.collectAttributes(out)
	return out
}

func (f Filter) collectAttributes(out map[string]bool) {
	switch f.kind {
	case kindEq, kindSub, kindPres:
		out[f.attr] = true
	case kindSelf:
		out["uuid"] = true
	case kindAnd, kindOr, kindAndNot:
		for _, c := range f.children {
			c.collectAttributes(out)
		}
	}
}

// ResolvedFilter is a Filter guaranteed free of Self nodes: a pure
// predicate on entries, suitable for direct evaluation. The only way to
// obtain one is Filter.Resolve.
type ResolvedFilter struct {
	root Filter
}

// Resolve binds any Self node in f against callerUUID, producing a pure
// predicate. It never mutates f.
func (f Filter) Resolve(callerUUID string) (ResolvedFilter, error) {
	if callerUUID == "" {
		return ResolvedFilter{}, fmt.Errorf("resolve filter: no caller uuid to bind Self against")
	}
	return ResolvedFilter{root: f.resolve(callerUUID)}, nil
}

func (f Filter) resolve(callerUUID string) Filter {
	switch f.kind {
	case kindSelf:
		return Eq("uuid", callerUUID)
	case kindAnd, kindOr, kindAndNot:
		children := make([]Filter, len(f.children))
		for i, c := range f.children {
			children[i] = c.resolve(callerUUID)
		}
		return Filter{kind: f.kind, children: children}
	default:
		return f
	}
}

// Matches evaluates the resolved predicate against e.
func (rf ResolvedFilter) Matches(e Entry) bool {
	return rf.root.matches(e)
}

func (f Filter) matches(e Entry) bool {
	switch f.kind {
	case kindEq:
		return e.HasValue(f.attr, f.value)
	case kindSub:
		for _, v := range e.attrs[f.attr] {
			if containsSubstring(v, f.value) {
				return true
			}
		}
		return false
	case kindPres:
		_, ok := e.attrs[f.attr]
		return ok
	case kindAnd:
		for _, c := range f.children {
			if !c.matches(e) {
				return false
			}
		}
		return true
	case kindOr:
		for _, c := range f.children {
			if c.matches(e) {
				return true
			}
		}
		return false
	case kindAndNot:
		return !f.children[0].matches(e)
	default:
		return false
	}
}

func containsSubstring(s, substr string) bool {
	if substr == "" {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// wireFilter is the on-the-wire shape of a single filter node, decoded
// field-by-field since exactly one of these is ever present. Child nodes
// are kept raw and parsed with ParseFilterJSON, so a nested "Self"
// sentinel is accepted like any other node.
type wireFilter struct {
	Eq     []string              `json:"Eq,omitempty"`
	Sub    []string              `json:"Sub,omitempty"`
	Pres   *string               `json:"Pres,omitempty"`
	And    []jsoniter.RawMessage `json:"And,omitempty"`
	Or     []jsoniter.RawMessage `json:"Or,omitempty"`
	AndNot jsoniter.RawMessage   `json:"AndNot,omitempty"`
}

// ParseFilterJSON decodes the externally-defined filter JSON encoding
// into a Filter that may still contain Self nodes.
func ParseFilterJSON(raw []byte) (Filter, error) {
	var json = jsoniter.ConfigCompatibleWithStandardLibrary

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "Self" {
			return SelfFilter(), nil
		}
		return Filter{}, InvalidACPState("unrecognized filter sentinel " + asString)
	}

	var w wireFilter
	if err := common.UnmarshalAndDisallowUnknownFields(raw, &w); err != nil {
		return Filter{}, InvalidACPState("malformed filter: " + err.Error())
	}
	return w.toFilter()
}

func (w wireFilter) toFilter() (Filter, error) {
	switch {
	case w.Eq != nil:
		if len(w.Eq) != 2 {
			return Filter{}, InvalidACPState("Eq requires [attr, value]")
		}
		return Eq(w.Eq[0], w.Eq[1]), nil
	case w.Sub != nil:
		if len(w.Sub) != 2 {
			return Filter{}, InvalidACPState("Sub requires [attr, substr]")
		}
		return Sub(w.Sub[0], w.Sub[1]), nil
	case w.Pres != nil:
		return Pres(*w.Pres), nil
	case w.And != nil:
		children, err := toFilters(w.And)
		if err != nil {
			return Filter{}, err
		}
		return And(children...), nil
	case w.Or != nil:
		children, err := toFilters(w.Or)
		if err != nil {
			return Filter{}, err
		}
		return Or(children...), nil
	case w.AndNot != nil:
		child, err := ParseFilterJSON(w.AndNot)
		if err != nil {
			return Filter{}, err
		}
		return AndNot(child), nil
	default:
		return Filter{}, InvalidACPState("empty filter node")
	}
}

func toFilters(ws []jsoniter.RawMessage) ([]Filter, error) {
	out := make([]Filter, len(ws))
	for i, w := range ws {
		f, err := ParseFilterJSON(w)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// MarshalJSON re-serializes f into the same node shapes ParseFilterJSON
// accepts, so a rule round-tripped through the update path re-parses to
// an equivalent filter.
func (f Filter) MarshalJSON() ([]byte, error) {
	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	switch f.kind {
	case kindSelf:
		return json.Marshal("Self")
	case kindEq:
		return json.Marshal(map[string][]string{"Eq": {f.attr, f.value}})
	case kindSub:
		return json.Marshal(map[string][]string{"Sub": {f.attr, f.value}})
	case kindPres:
		return json.Marshal(map[string]string{"Pres": f.attr})
	case kindAnd:
		return json.Marshal(map[string][]Filter{"And": f.children})
	case kindOr:
		return json.Marshal(map[string][]Filter{"Or": f.children})
	case kindAndNot:
		return json.Marshal(map[string]Filter{"AndNot": f.children[0]})
	default:
		return nil, fmt.Errorf("marshal filter: unknown kind %d", f.kind)
	}
}
