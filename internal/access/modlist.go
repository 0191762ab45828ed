package access

// ModOpKind distinguishes the three modify-list action shapes.
type ModOpKind int

const (
	ModPresent ModOpKind = iota
	ModRemoved
	ModPurged
)

// ModOp is a single modify-list action: Present(attr,value),
// Removed(attr,value), or Purged(attr) (value empty).
type ModOp struct {
	Kind  ModOpKind
	Attr  string
	Value string
}

func Present(attr, value string) ModOp { return ModOp{Kind: ModPresent, Attr: attr, Value: value} }
func Removed(attr, value string) ModOp { return ModOp{Kind: ModRemoved, Attr: attr, Value: value} }
func Purged(attr string) ModOp         { return ModOp{Kind: ModPurged, Attr: attr} }

// ModList is an ordered sequence of modify-list actions.
type ModList []ModOp

// PurgesClass reports whether mods contains Purged("class"); a modify
// decision denies unconditionally when this holds.
func (mods ModList) PurgesClass() bool {
	for _, m := range mods {
		if m.Kind == ModPurged && m.Attr == "class" {
			return true
		}
	}
	return false
}

// RequestedAttributeSets derives the three subset-check inputs from mods.
func (mods ModList) RequestedAttributeSets() (reqPres, reqRem, reqClasses map[string]bool) {
	reqPres = make(map[string]bool)
	reqRem = make(map[string]bool)
	reqClasses = make(map[string]bool)
	for _, m := range mods {
		switch m.Kind {
		case ModPresent:
			reqPres[m.Attr] = true
			if m.Attr == "class" {
				reqClasses[m.Value] = true
			}
		case ModRemoved:
			reqRem[m.Attr] = true
			if m.Attr == "class" {
				reqClasses[m.Value] = true
			}
		case ModPurged:
			reqRem[m.Attr] = true
		}
	}
	return reqPres, reqRem, reqClasses
}
