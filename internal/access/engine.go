// Package access implements the access-control enforcement engine of a
// directory-style identity server: the component deciding, for every
// externally-originated search/create/modify/delete operation, whether it
// is permitted against a set of target entries, and which attributes of
// each returned entry the caller may observe.
//
// The persistent entry store, the schema/validation subsystem, the event
// layer that tags operations with their originating caller, the
// top-level query server, audit logging, and the wire/CLI are all
// external collaborators; this package only calls into them through the
// Entry/Filter/Event interfaces it consumes, and exposes its own state
// only through the four update_* transactions and the five decision
// operations below.
package access

import "github.com/nexusdirectory/accessd/internal/common/logger"

// Engine is the enforcement engine. It is safe for concurrent use by many
// readers; rule-set updates go through BeginWrite/Commit on the same
// Holder. Engine itself does no I/O and performs no caching across calls.
type Engine struct {
	holder *Holder
}

// NewEngine returns an Engine backed by a freshly published empty rule
// set.
func NewEngine() *Engine {
	return &Engine{holder: NewHolder()}
}

// NewEngineWithHolder lets the caller share a Holder across an Engine and
// the process that rehydrates it.
func NewEngineWithHolder(h *Holder) *Engine {
	return &Engine{holder: h}
}

// BeginWrite starts a rule-set writer transaction.
func (eng *Engine) BeginWrite() *WriteTxn {
	return eng.holder.BeginWrite()
}

// SearchFilterEntries returns the subset of candidates the caller may see
// at the whole-entry level.
func (eng *Engine) SearchFilterEntries(event SearchEvent, candidates []Entry) ([]Entry, error) {
	if event.IsInternal() {
		return candidates, nil
	}

	rs := eng.holder.Read()
	related := relatedSearchRules(rs.Search, event.Event)
	requested := event.RequestFilter.RequestedAttributes()

	result := make([]Entry, 0, len(candidates))
	for _, e := range candidates {
		allowed := allowedSearchAttrs(related, event.Event, e)
		if subsetOf(requested, allowed) {
			result = append(result, e)
		}
	}
	return result, nil
}

// SearchFilterEntryAttributes projects each of candidates (already
// accepted by SearchFilterEntries) down to the attributes visible to this
// caller. An internal-origin event always yields an empty list —
// internal callers must never pass through the reducing interface.
func (eng *Engine) SearchFilterEntryAttributes(event SearchEvent, candidates []Entry) ([]Entry, error) {
	if event.IsInternal() {
		logger.LogWarning("internal-origin event attempted to use the reducing search interface; refusing")
		return []Entry{}, nil
	}

	rs := eng.holder.Read()
	related := relatedSearchRules(rs.Search, event.Event)

	result := make([]Entry, 0, len(candidates))
	for _, e := range candidates {
		allowed := allowedSearchAttrs(related, event.Event, e)
		result = append(result, e.Reduce(allowed))
	}
	return result, nil
}

// CreateAllow decides whether every entry in toCreate may be created. A
// single related rule must satisfy both the attribute and class subset
// checks for a given entry; permissions do not union across rules for
// creation.
func (eng *Engine) CreateAllow(event CreateEvent, toCreate []Entry) (bool, error) {
	if event.IsInternal() {
		return true, nil
	}

	rs := eng.holder.Read()
	related := relatedCreateRules(rs.Create, event.Event)
	callerUUID, _ := event.CallerUUID()

	for _, e := range toCreate {
		classes := stringSet(e.Classes())
		if len(classes) == 0 {
			return false, nil
		}
		createAttrs := e.AttributeNames()

		permitted := false
		for _, r := range related {
			resolved, err := r.Target.Resolve(callerUUID)
			if err != nil {
				logger.LogRuleSkipped("create", r.UUID, err.Error())
				continue
			}
			if !resolved.Matches(e) {
				continue
			}
			if subsetOf(createAttrs, r.Attrs) && subsetOf(classes, r.Classes) {
				permitted = true
				break
			}
		}
		if !permitted {
			return false, nil
		}
	}
	return true, nil
}

// ModifyAllow decides, all-or-nothing, whether mods may be applied to
// every entry in targets.
func (eng *Engine) ModifyAllow(event ModifyEvent, targets []Entry) (bool, error) {
	if event.IsInternal() {
		return true, nil
	}
	if event.Mods.PurgesClass() {
		return false, nil
	}

	rs := eng.holder.Read()
	related := relatedModifyRules(rs.Modify, event.Event)
	reqPres, reqRem, reqClasses := event.Mods.RequestedAttributeSets()
	callerUUID, _ := event.CallerUUID()

	for _, e := range targets {
		allowedPres := make(map[string]bool)
		allowedRem := make(map[string]bool)
		allowedClasses := make(map[string]bool)

		for _, r := range related {
			resolved, err := r.Target.Resolve(callerUUID)
			if err != nil {
				logger.LogRuleSkipped("modify", r.UUID, err.Error())
				continue
			}
			if !resolved.Matches(e) {
				continue
			}
			unionInto(allowedPres, r.PresAttrs)
			unionInto(allowedRem, r.RemAttrs)
			unionInto(allowedClasses, r.Classes)
		}

		if !subsetOf(reqPres, allowedPres) || !subsetOf(reqRem, allowedRem) || !subsetOf(reqClasses, allowedClasses) {
			return false, nil
		}
	}
	return true, nil
}

// DeleteAllow decides whether every entry in targets may be deleted.
func (eng *Engine) DeleteAllow(event DeleteEvent, targets []Entry) (bool, error) {
	if event.IsInternal() {
		return true, nil
	}

	rs := eng.holder.Read()
	related := relatedDeleteRules(rs.Delete, event.Event)
	callerUUID, _ := event.CallerUUID()

	for _, e := range targets {
		permitted := false
		for _, r := range related {
			resolved, err := r.Target.Resolve(callerUUID)
			if err != nil {
				logger.LogRuleSkipped("delete", r.UUID, err.Error())
				continue
			}
			if resolved.Matches(e) {
				permitted = true
				break
			}
		}
		if !permitted {
			return false, nil
		}
	}
	return true, nil
}

// relatedSearchRules returns the search rules whose receiver, resolved
// against event, matches the caller's own entry. A rule whose receiver
// fails to resolve is skipped and logged, never fatal.
func relatedSearchRules(rules map[string]SearchRule, event Event) []SearchRule {
	caller, ok := event.CallerEntry()
	if !ok {
		return nil
	}
	out := make([]SearchRule, 0, len(rules))
	for _, r := range rules {
		resolved, err := r.Receiver.Resolve(caller.UUID())
		if err != nil {
			logger.LogRuleSkipped("search", r.UUID, err.Error())
			continue
		}
		if resolved.Matches(caller) {
			out = append(out, r)
		}
	}
	return out
}

func relatedCreateRules(rules map[string]CreateRule, event Event) []CreateRule {
	caller, ok := event.CallerEntry()
	if !ok {
		return nil
	}
	out := make([]CreateRule, 0, len(rules))
	for _, r := range rules {
		resolved, err := r.Receiver.Resolve(caller.UUID())
		if err != nil {
			logger.LogRuleSkipped("create", r.UUID, err.Error())
			continue
		}
		if resolved.Matches(caller) {
			out = append(out, r)
		}
	}
	return out
}

func relatedModifyRules(rules map[string]ModifyRule, event Event) []ModifyRule {
	caller, ok := event.CallerEntry()
	if !ok {
		return nil
	}
	out := make([]ModifyRule, 0, len(rules))
	for _, r := range rules {
		resolved, err := r.Receiver.Resolve(caller.UUID())
		if err != nil {
			logger.LogRuleSkipped("modify", r.UUID, err.Error())
			continue
		}
		if resolved.Matches(caller) {
			out = append(out, r)
		}
	}
	return out
}

func relatedDeleteRules(rules map[string]DeleteRule, event Event) []DeleteRule {
	caller, ok := event.CallerEntry()
	if !ok {
		return nil
	}
	out := make([]DeleteRule, 0, len(rules))
	for _, r := range rules {
		resolved, err := r.Receiver.Resolve(caller.UUID())
		if err != nil {
			logger.LogRuleSkipped("delete", r.UUID, err.Error())
			continue
		}
		if resolved.Matches(caller) {
			out = append(out, r)
		}
	}
	return out
}

// allowedSearchAttrs is the union of attrs over every related search rule
// whose target, resolved against event, matches e.
func allowedSearchAttrs(related []SearchRule, event Event, e Entry) map[string]bool {
	callerUUID, _ := event.CallerUUID()
	out := make(map[string]bool)
	for _, r := range related {
		resolved, err := r.Target.Resolve(callerUUID)
		if err != nil {
			logger.LogRuleSkipped("search", r.UUID, err.Error())
			continue
		}
		if resolved.Matches(e) {
			unionInto(out, r.Attrs)
		}
	}
	return out
}
