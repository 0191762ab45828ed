package access

// Marker class values identifying a stored entry as a rule-source record.
const (
	ClassAccessControlProfile = "access_control_profile"
	ClassAccessControlSearch  = "access_control_search"
	ClassAccessControlCreate  = "access_control_create"
	ClassAccessControlModify  = "access_control_modify"
	ClassAccessControlDelete  = "access_control_delete"
)

// SchemaValidator is the boundary to the (out of scope) schema/validation
// subsystem: it resolves symbolic terms in a filter against the current
// schema and checks the result validates. The zero value, NoopSchemaValidator,
// accepts every filter unchanged; a real deployment supplies its own.
type SchemaValidator interface {
	Validate(f Filter) (Filter, error)
}

// NoopSchemaValidator passes filters through unchanged. It stands in for
// the schema/validation subsystem, which this module does not implement.
type NoopSchemaValidator struct{}

func (NoopSchemaValidator) Validate(f Filter) (Filter, error) { return f, nil }

// ParsedRules holds whichever per-flavor rules a single stored entry
// yields; a field is nil if the entry did not declare that flavor's
// marker class.
type ParsedRules struct {
	Search *SearchRule
	Create *CreateRule
	Modify *ModifyRule
	Delete *DeleteRule
}

// ParseRule consumes a schema-valid, committed rule-source entry and
// produces the rules it declares, one per flavor marker class present.
// It fails with InvalidACPState naming the missing attribute or
// unparseable filter, or SchemaViolation if a filter fails schema
// validation.
func ParseRule(entry Entry, validator SchemaValidator) (ParsedRules, error) {
	if validator == nil {
		validator = NoopSchemaValidator{}
	}

	classes := stringSet(entry.Classes())
	if !classes[ClassAccessControlProfile] {
		return ParsedRules{}, InvalidACPState("Missing access_control_profile")
	}

	profile, err := parseProfile(entry, validator)
	if err != nil {
		return ParsedRules{}, err
	}

	var out ParsedRules
	if classes[ClassAccessControlSearch] {
		r, err := parseSearchRule(entry, profile)
		if err != nil {
			return ParsedRules{}, err
		}
		out.Search = r
	}
	if classes[ClassAccessControlCreate] {
		out.Create = parseCreateRule(entry, profile)
	}
	if classes[ClassAccessControlModify] {
		out.Modify = parseModifyRule(entry, profile)
	}
	if classes[ClassAccessControlDelete] {
		out.Delete = &DeleteRule{Profile: profile}
	}
	return out, nil
}

func parseProfile(entry Entry, validator SchemaValidator) (Profile, error) {
	name, err := singleValued(entry, "name")
	if err != nil {
		return Profile{}, InvalidACPState("Missing name")
	}

	receiverRaw, err := singleValued(entry, "acp_receiver")
	if err != nil {
		return Profile{}, InvalidACPState("Missing acp_receiver")
	}
	receiver, err := ParseFilterJSON([]byte(receiverRaw))
	if err != nil {
		return Profile{}, InvalidACPState("Invalid acp_receiver")
	}
	receiver, err = validator.Validate(receiver)
	if err != nil {
		return Profile{}, SchemaViolation("acp_receiver: " + err.Error())
	}

	targetRaw, err := singleValued(entry, "acp_targetscope")
	if err != nil {
		return Profile{}, InvalidACPState("Missing acp_targetscope")
	}
	target, err := ParseFilterJSON([]byte(targetRaw))
	if err != nil {
		return Profile{}, InvalidACPState("Invalid acp_targetscope")
	}
	target, err = validator.Validate(target)
	if err != nil {
		return Profile{}, SchemaViolation("acp_targetscope: " + err.Error())
	}

	return Profile{Name: name, UUID: entry.UUID(), Receiver: receiver, Target: target}, nil
}

func parseSearchRule(entry Entry, profile Profile) (*SearchRule, error) {
	attrs, ok := entry.Get("acp_search_attr")
	if !ok || len(attrs) == 0 {
		return nil, InvalidACPState("Missing acp_search_attr")
	}
	return &SearchRule{Profile: profile, Attrs: stringSet(attrs)}, nil
}

func parseCreateRule(entry Entry, profile Profile) *CreateRule {
	attrs, _ := entry.Get("acp_create_attr")
	classes, _ := entry.Get("acp_create_class")
	return &CreateRule{Profile: profile, Attrs: stringSet(attrs), Classes: stringSet(classes)}
}

func parseModifyRule(entry Entry, profile Profile) *ModifyRule {
	pres, _ := entry.Get("acp_modify_presentattr")
	rem, _ := entry.Get("acp_modify_removedattr")
	classes, _ := entry.Get("acp_modify_class")
	return &ModifyRule{
		Profile:   profile,
		PresAttrs: stringSet(pres),
		RemAttrs:  stringSet(rem),
		Classes:   stringSet(classes),
	}
}

var errNotSingleValued = InvalidACPState("attribute is not single-valued")

func singleValued(entry Entry, attr string) (string, error) {
	values, ok := entry.Get(attr)
	if !ok || len(values) != 1 {
		return "", errNotSingleValued
	}
	return values[0], nil
}
