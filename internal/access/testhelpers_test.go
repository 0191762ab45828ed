package access

func mustEntry(t interface {
	Fatalf(format string, args ...any)
}, uuid string, attrs map[string][]string) Entry {
	e, err := NewValidEntry(uuid, attrs)
	if err != nil {
		t.Fatalf("NewValidEntry(%s): %v", uuid, err)
	}
	return e
}

func aclEntry(uuid, name string, receiver, target Filter, extra map[string][]string) Entry {
	attrs := map[string][]string{
		"name":            {name},
		"acp_receiver":    {mustMarshalFilter(receiver)},
		"acp_targetscope": {mustMarshalFilter(target)},
	}
	classes := []string{ClassAccessControlProfile}
	for k, v := range extra {
		if k == "class" {
			classes = append(classes, v...)
			continue
		}
		attrs[k] = v
	}
	attrs["class"] = classes
	e, err := NewValidEntry(uuid, attrs)
	if err != nil {
		panic(err)
	}
	return e
}

func mustMarshalFilter(f Filter) string {
	raw, err := f.MarshalJSON()
	if err != nil {
		panic(err)
	}
	return string(raw)
}
