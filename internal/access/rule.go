package access

// Profile is the common base every rule flavor shares: display name,
// stable identity, and the receiver/target filters. Receiver and target
// are stored unresolved — they may still contain Self nodes, resolved
// per-event at enforcement time.
type Profile struct {
	Name     string
	UUID     string
	Receiver Filter
	Target   Filter
}

// SearchRule grants attribute visibility on entries its target scopes
// over, to callers its receiver matches.
type SearchRule struct {
	Profile
	Attrs map[string]bool
}

// CreateRule grants permission to create entries matching classes/attrs
// via a single rule (no cross-rule union, see create_allow).
type CreateRule struct {
	Profile
	Classes map[string]bool
	Attrs   map[string]bool
}

// ModifyRule grants permission to apply Present/Removed/Purged actions
// restricted to the given attribute and class sets.
type ModifyRule struct {
	Profile
	PresAttrs map[string]bool
	RemAttrs  map[string]bool
	Classes   map[string]bool
}

// DeleteRule grants permission to delete entries its target scopes over;
// it carries no extension fields beyond Profile.
type DeleteRule struct {
	Profile
}

func stringSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

func setKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func unionInto(dst map[string]bool, src map[string]bool) {
	for k := range src {
		dst[k] = true
	}
}

func subsetOf(small, large map[string]bool) bool {
	for k := range small {
		if !large[k] {
			return false
		}
	}
	return true
}
