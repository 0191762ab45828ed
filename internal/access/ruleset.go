package access

// RuleSet holds the four flavor-keyed rule collections, keyed by rule
// uuid (uuids are unique within each flavor map). A RuleSet is immutable
// once published by the holder; updates build a new one via WriteTxn.
type RuleSet struct {
	Search map[string]SearchRule
	Create map[string]CreateRule
	Modify map[string]ModifyRule
	Delete map[string]DeleteRule
}

func emptyRuleSet() RuleSet {
	return RuleSet{
		Search: make(map[string]SearchRule),
		Create: make(map[string]CreateRule),
		Modify: make(map[string]ModifyRule),
		Delete: make(map[string]DeleteRule),
	}
}

func (rs RuleSet) clone() RuleSet {
	out := emptyRuleSet()
	for k, v := range rs.Search {
		out.Search[k] = v
	}
	for k, v := range rs.Create {
		out.Create[k] = v
	}
	for k, v := range rs.Modify {
		out.Modify[k] = v
	}
	for k, v := range rs.Delete {
		out.Delete[k] = v
	}
	return out
}
