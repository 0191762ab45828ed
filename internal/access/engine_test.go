package access

import (
	"testing"
)

func newTestPerson(t *testing.T, name, uuid string) Entry {
	return mustEntry(t, uuid, map[string][]string{
		"name":  {name},
		"class": {"object"},
	})
}

func engineWithSearchRule(t *testing.T, r SearchRule) *Engine {
	eng := NewEngine()
	txn := eng.BeginWrite()
	txn.UpdateSearch([]SearchRule{r})
	txn.Commit()
	return eng
}

// S1 — internal bypass: search over candidates with origin=Internal returns
// them unchanged regardless of the rule set's content.
func TestSearchInternalBypass(t *testing.T) {
	p1 := newTestPerson(t, "testperson1", "cc8e0000-0000-0000-0000-000000003930")

	eng := engineWithSearchRule(t, SearchRule{
		Profile: Profile{
			Name:     "never matches",
			UUID:     "rule-1",
			Receiver: Eq("name", "nobody"),
			Target:   Eq("name", "nobody"),
		},
		Attrs: map[string]bool{"name": true},
	})

	got, err := eng.SearchFilterEntries(SearchEvent{Event: InternalEvent(), RequestFilter: Pres("name")}, []Entry{p1})
	if err != nil {
		t.Fatalf("SearchFilterEntries: %v", err)
	}
	if len(got) != 1 || got[0].UUID() != p1.UUID() {
		t.Fatalf("expected internal bypass to return input unchanged, got %#v", got)
	}
}

// S2 — receiver gating: only a caller matching the rule's receiver sees
// the target entry; everyone else sees nothing.
func TestSearchReceiverGating(t *testing.T) {
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")
	admin := mustEntry(t, "22222222-2222-2222-2222-222222222222", map[string][]string{
		"name":  {"admin"},
		"class": {"object"},
	})
	anon := mustEntry(t, "33333333-3333-3333-3333-333333333333", map[string][]string{
		"name":  {"anonymous"},
		"class": {"object"},
	})

	rule := SearchRule{
		Profile: Profile{
			Name:     "admin sees p1",
			UUID:     "rule-2",
			Receiver: Eq("name", "admin"),
			Target:   Eq("name", "testperson1"),
		},
		Attrs: map[string]bool{"name": true},
	}
	eng := engineWithSearchRule(t, rule)

	adminEvent := SearchEvent{Event: UserEvent(admin), RequestFilter: Pres("name")}
	got, err := eng.SearchFilterEntries(adminEvent, []Entry{p1})
	if err != nil {
		t.Fatalf("SearchFilterEntries(admin): %v", err)
	}
	if len(got) != 1 || got[0].UUID() != p1.UUID() {
		t.Fatalf("expected admin to see testperson1, got %#v", got)
	}

	anonEvent := SearchEvent{Event: UserEvent(anon), RequestFilter: Pres("name")}
	got, err = eng.SearchFilterEntries(anonEvent, []Entry{p1})
	if err != nil {
		t.Fatalf("SearchFilterEntries(anon): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected anonymous to see nothing, got %#v", got)
	}
}

// S3 — attribute projection: a reducing search returns the entry with
// only the permitted attributes present.
func TestSearchAttributeProjection(t *testing.T) {
	p1 := mustEntry(t, "11111111-1111-1111-1111-111111111111", map[string][]string{
		"name":  {"testperson1"},
		"class": {"object"},
		"mail":  {"p1@example.com"},
	})
	anon := mustEntry(t, "33333333-3333-3333-3333-333333333333", map[string][]string{
		"name":  {"anonymous"},
		"class": {"object"},
	})

	rule := SearchRule{
		Profile: Profile{
			Name:     "anon sees p1 name only",
			UUID:     "rule-3",
			Receiver: Eq("name", "anonymous"),
			Target:   Eq("name", "testperson1"),
		},
		Attrs: map[string]bool{"name": true},
	}
	eng := engineWithSearchRule(t, rule)

	event := SearchEvent{Event: UserEvent(anon), RequestFilter: Pres("name")}
	got, err := eng.SearchFilterEntryAttributes(event, []Entry{p1})
	if err != nil {
		t.Fatalf("SearchFilterEntryAttributes: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one reduced entry, got %d", len(got))
	}
	reduced := got[0]
	if !reduced.Reduced() {
		t.Fatalf("expected result to be tagged reduced")
	}
	if names, ok := reduced.Get("name"); !ok || len(names) != 1 || names[0] != "testperson1" {
		t.Fatalf("expected name to survive projection, got %#v", names)
	}
	if _, ok := reduced.Get("mail"); ok {
		t.Fatalf("expected mail to be stripped by projection")
	}
}

// Internal-origin callers must never pass through the reducing interface.
func TestSearchReduceInternalRefused(t *testing.T) {
	eng := NewEngine()
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")
	got, err := eng.SearchFilterEntryAttributes(SearchEvent{Event: InternalEvent(), RequestFilter: Pres("name")}, []Entry{p1})
	if err != nil {
		t.Fatalf("SearchFilterEntryAttributes: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result for internal-origin reducing search, got %#v", got)
	}
}

func modifyEngineWithRule(t *testing.T, r ModifyRule) *Engine {
	eng := NewEngine()
	txn := eng.BeginWrite()
	txn.UpdateModify([]ModifyRule{r})
	txn.Commit()
	return eng
}

// S4 — modify happy path and class-purge denial.
func TestModifyHappyPathAndClassPurgeDenied(t *testing.T) {
	admin := mustEntry(t, "22222222-2222-2222-2222-222222222222", map[string][]string{
		"name":  {"admin"},
		"class": {"object"},
	})
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")

	rule := ModifyRule{
		Profile: Profile{
			Name:     "admin modifies p1",
			UUID:     "rule-4",
			Receiver: Eq("name", "admin"),
			Target:   Eq("name", "testperson1"),
		},
		PresAttrs: map[string]bool{"name": true, "class": true},
		RemAttrs:  map[string]bool{"name": true, "class": true},
		Classes:   map[string]bool{"account": true},
	}
	eng := modifyEngineWithRule(t, rule)
	event := func(mods ModList) ModifyEvent { return ModifyEvent{Event: UserEvent(admin), Mods: mods} }

	ok, err := eng.ModifyAllow(event(ModList{Present("name", "x")}), []Entry{p1})
	if err != nil || !ok {
		t.Fatalf("expected Present(name) to be allowed, got ok=%v err=%v", ok, err)
	}

	ok, err = eng.ModifyAllow(event(ModList{Present("class", "account")}), []Entry{p1})
	if err != nil || !ok {
		t.Fatalf("expected Present(class, account) to be allowed, got ok=%v err=%v", ok, err)
	}

	ok, err = eng.ModifyAllow(event(ModList{Purged("class")}), []Entry{p1})
	if err != nil || ok {
		t.Fatalf("expected Purged(class) to be denied unconditionally, got ok=%v err=%v", ok, err)
	}
}

// S5 — modify class denied when the requested class value is outside the
// rule's allowed class set.
func TestModifyClassDeniedByClassSet(t *testing.T) {
	admin := mustEntry(t, "22222222-2222-2222-2222-222222222222", map[string][]string{
		"name":  {"admin"},
		"class": {"object"},
	})
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")

	rule := ModifyRule{
		Profile: Profile{
			Name:     "admin modifies p1",
			UUID:     "rule-5",
			Receiver: Eq("name", "admin"),
			Target:   Eq("name", "testperson1"),
		},
		PresAttrs: map[string]bool{"name": true, "class": true},
		RemAttrs:  map[string]bool{"name": true, "class": true},
		Classes:   map[string]bool{"account": true},
	}
	eng := modifyEngineWithRule(t, rule)

	ok, err := eng.ModifyAllow(ModifyEvent{Event: UserEvent(admin), Mods: ModList{Present("class", "group")}}, []Entry{p1})
	if err != nil {
		t.Fatalf("ModifyAllow: %v", err)
	}
	if ok {
		t.Fatalf("expected Present(class, group) to be denied: group is not in allowed_classes")
	}
}

func createEngineWithRules(t *testing.T, rules ...CreateRule) *Engine {
	eng := NewEngine()
	txn := eng.BeginWrite()
	txn.UpdateCreate(rules)
	txn.Commit()
	return eng
}

// S6 — create hybrid denial: no single rule covers both classes on the
// to-be-created entry, so permissions do not union across rules.
func TestCreateHybridDenial(t *testing.T) {
	admin := mustEntry(t, "22222222-2222-2222-2222-222222222222", map[string][]string{
		"name":  {"admin"},
		"class": {"object"},
	})

	ruleAccount := CreateRule{
		Profile: Profile{
			Name:     "create accounts",
			UUID:     "rule-6a",
			Receiver: Eq("name", "admin"),
			Target:   Pres("name"),
		},
		Classes: map[string]bool{"account": true},
		Attrs:   map[string]bool{"class": true, "name": true, "uuid": true},
	}
	ruleGroup := CreateRule{
		Profile: Profile{
			Name:     "create groups",
			UUID:     "rule-6b",
			Receiver: Eq("name", "admin"),
			Target:   Pres("name"),
		},
		Classes: map[string]bool{"group": true},
		Attrs:   map[string]bool{"class": true, "name": true, "uuid": true},
	}
	eng := createEngineWithRules(t, ruleAccount, ruleGroup)

	hybrid := mustEntry(t, "44444444-4444-4444-4444-444444444444", map[string][]string{
		"name":  {"newthing"},
		"class": {"account", "group"},
	})
	ok, err := eng.CreateAllow(CreateEvent{Event: UserEvent(admin)}, []Entry{hybrid})
	if err != nil {
		t.Fatalf("CreateAllow: %v", err)
	}
	if ok {
		t.Fatalf("expected hybrid class entry to be denied: no single rule covers both classes")
	}

	single := mustEntry(t, "55555555-5555-5555-5555-555555555555", map[string][]string{
		"name":  {"newaccount"},
		"class": {"account"},
	})
	ok, err = eng.CreateAllow(CreateEvent{Event: UserEvent(admin)}, []Entry{single})
	if err != nil {
		t.Fatalf("CreateAllow: %v", err)
	}
	if !ok {
		t.Fatalf("expected single-class entry covered by rule (a) to be permitted")
	}
}

func TestCreateEntryWithoutClassDenied(t *testing.T) {
	admin := mustEntry(t, "22222222-2222-2222-2222-222222222222", map[string][]string{
		"name":  {"admin"},
		"class": {"object"},
	})
	eng := createEngineWithRules(t, CreateRule{
		Profile: Profile{Name: "r", UUID: "rule-6c", Receiver: Eq("name", "admin"), Target: Pres("name")},
		Classes: map[string]bool{"account": true},
		Attrs:   map[string]bool{"name": true},
	})
	noClass := mustEntry(t, "66666666-6666-6666-6666-666666666666", map[string][]string{"name": {"x"}})
	ok, err := eng.CreateAllow(CreateEvent{Event: UserEvent(admin)}, []Entry{noClass})
	if err != nil {
		t.Fatalf("CreateAllow: %v", err)
	}
	if ok {
		t.Fatalf("expected entry with no class attribute to be denied immediately")
	}
}

// S7 — delete: admin may delete testperson1, anonymous may not.
func TestDeleteReceiverGating(t *testing.T) {
	admin := mustEntry(t, "22222222-2222-2222-2222-222222222222", map[string][]string{
		"name":  {"admin"},
		"class": {"object"},
	})
	anon := mustEntry(t, "33333333-3333-3333-3333-333333333333", map[string][]string{
		"name":  {"anonymous"},
		"class": {"object"},
	})
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")

	eng := NewEngine()
	txn := eng.BeginWrite()
	txn.UpdateDelete([]DeleteRule{{
		Profile: Profile{
			Name:     "admin deletes p1",
			UUID:     "rule-7",
			Receiver: Eq("name", "admin"),
			Target:   Eq("name", "testperson1"),
		},
	}})
	txn.Commit()

	ok, err := eng.DeleteAllow(DeleteEvent{Event: UserEvent(admin)}, []Entry{p1})
	if err != nil || !ok {
		t.Fatalf("expected admin to be permitted to delete p1, got ok=%v err=%v", ok, err)
	}

	ok, err = eng.DeleteAllow(DeleteEvent{Event: UserEvent(anon)}, []Entry{p1})
	if err != nil || ok {
		t.Fatalf("expected anonymous to be denied deleting p1, got ok=%v err=%v", ok, err)
	}
}

// Invariant 1: internal origin bypasses create, modify, delete and the
// entry-level search; the reducing search refuses it with an empty result.
func TestInvariantInternalBypassAllSurfaces(t *testing.T) {
	eng := NewEngine() // empty rule set
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")

	if got, err := eng.SearchFilterEntries(SearchEvent{Event: InternalEvent(), RequestFilter: Pres("name")}, []Entry{p1}); err != nil || len(got) != 1 {
		t.Fatalf("SearchFilterEntries(internal) = %#v, %v; want input unchanged", got, err)
	}
	if got, err := eng.SearchFilterEntryAttributes(SearchEvent{Event: InternalEvent(), RequestFilter: Pres("name")}, []Entry{p1}); err != nil || len(got) != 0 {
		t.Fatalf("SearchFilterEntryAttributes(internal) = %#v, %v; want empty", got, err)
	}

	if ok, err := eng.CreateAllow(CreateEvent{Event: InternalEvent()}, []Entry{p1}); err != nil || !ok {
		t.Fatalf("CreateAllow(internal) = %v, %v; want true, nil", ok, err)
	}
	if ok, err := eng.ModifyAllow(ModifyEvent{Event: InternalEvent(), Mods: ModList{Present("name", "x")}}, []Entry{p1}); err != nil || !ok {
		t.Fatalf("ModifyAllow(internal) = %v, %v; want true, nil", ok, err)
	}
	if ok, err := eng.DeleteAllow(DeleteEvent{Event: InternalEvent()}, []Entry{p1}); err != nil || !ok {
		t.Fatalf("DeleteAllow(internal) = %v, %v; want true, nil", ok, err)
	}
}

// Invariant 2: with no rules of the relevant flavor, every external
// decision denies / returns empty.
func TestInvariantEmptyRuleSetCloses(t *testing.T) {
	eng := NewEngine()
	anon := mustEntry(t, "33333333-3333-3333-3333-333333333333", map[string][]string{
		"name":  {"anonymous"},
		"class": {"object"},
	})
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")

	entries, err := eng.SearchFilterEntries(SearchEvent{Event: UserEvent(anon), RequestFilter: Pres("name")}, []Entry{p1})
	if err != nil || len(entries) != 0 {
		t.Fatalf("SearchFilterEntries with empty rule set: got %#v, err %v", entries, err)
	}
	reduced, err := eng.SearchFilterEntryAttributes(SearchEvent{Event: UserEvent(anon), RequestFilter: Pres("name")}, []Entry{p1})
	if err != nil || len(reduced) != 1 || len(reduced[0].AttributeNames()) != 0 {
		t.Fatalf("SearchFilterEntryAttributes with empty rule set should strip all attrs, got %#v", reduced)
	}
	if ok, _ := eng.CreateAllow(CreateEvent{Event: UserEvent(anon)}, []Entry{p1}); ok {
		t.Fatalf("CreateAllow with empty rule set should deny")
	}
	if ok, _ := eng.ModifyAllow(ModifyEvent{Event: UserEvent(anon), Mods: ModList{Present("name", "x")}}, []Entry{p1}); ok {
		t.Fatalf("ModifyAllow with empty rule set should deny")
	}
	if ok, _ := eng.DeleteAllow(DeleteEvent{Event: UserEvent(anon)}, []Entry{p1}); ok {
		t.Fatalf("DeleteAllow with empty rule set should deny")
	}
}

// Invariant 5: Purged(class) denies regardless of rule set content.
func TestInvariantPurgedClassAlwaysDenied(t *testing.T) {
	admin := mustEntry(t, "22222222-2222-2222-2222-222222222222", map[string][]string{
		"name":  {"admin"},
		"class": {"object"},
	})
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")

	eng := modifyEngineWithRule(t, ModifyRule{
		Profile:   Profile{Name: "r", UUID: "rule-8", Receiver: Eq("name", "admin"), Target: Eq("name", "testperson1")},
		PresAttrs: map[string]bool{"name": true, "class": true},
		RemAttrs:  map[string]bool{"name": true, "class": true},
		Classes:   map[string]bool{"account": true, "group": true, "object": true},
	})

	ok, err := eng.ModifyAllow(ModifyEvent{Event: UserEvent(admin), Mods: ModList{Purged("class")}}, []Entry{p1})
	if err != nil || ok {
		t.Fatalf("expected Purged(class) denied even with permissive rule set, got ok=%v err=%v", ok, err)
	}
}

// Invariant 3: adding a rule never shrinks a decision's permitted set.
func TestInvariantMonotonicityInRules(t *testing.T) {
	admin := mustEntry(t, "22222222-2222-2222-2222-222222222222", map[string][]string{
		"name":  {"admin"},
		"class": {"object"},
	})
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")
	p2 := newTestPerson(t, "testperson2", "44444444-4444-4444-4444-444444444444")

	rule1 := DeleteRule{Profile: Profile{Name: "r1", UUID: "rule-9a", Receiver: Eq("name", "admin"), Target: Eq("name", "testperson1")}}
	eng := NewEngine()
	txn := eng.BeginWrite()
	txn.UpdateDelete([]DeleteRule{rule1})
	txn.Commit()

	before, err := eng.DeleteAllow(DeleteEvent{Event: UserEvent(admin)}, []Entry{p1, p2})
	if err != nil {
		t.Fatalf("DeleteAllow: %v", err)
	}
	if before {
		t.Fatalf("expected deletion of [p1,p2] to be denied before rule for p2 exists")
	}

	rule2 := DeleteRule{Profile: Profile{Name: "r2", UUID: "rule-9b", Receiver: Eq("name", "admin"), Target: Eq("name", "testperson2")}}
	txn = eng.BeginWrite()
	txn.UpdateDelete([]DeleteRule{rule1, rule2})
	txn.Commit()

	after, err := eng.DeleteAllow(DeleteEvent{Event: UserEvent(admin)}, []Entry{p1, p2})
	if err != nil {
		t.Fatalf("DeleteAllow: %v", err)
	}
	if !after {
		t.Fatalf("expected deletion of [p1,p2] to be permitted after adding rule for p2")
	}
}

// Invariant 4: a reducing search result's attribute set is a subset of the
// union of attrs from matching rules, never more.
func TestInvariantAttributeLeakPrevention(t *testing.T) {
	anon := mustEntry(t, "33333333-3333-3333-3333-333333333333", map[string][]string{
		"name":  {"anonymous"},
		"class": {"object"},
	})
	p1 := mustEntry(t, "11111111-1111-1111-1111-111111111111", map[string][]string{
		"name":  {"testperson1"},
		"class": {"object"},
		"mail":  {"p1@example.com"},
		"phone": {"555-1234"},
	})

	eng := engineWithSearchRule(t, SearchRule{
		Profile: Profile{Name: "r", UUID: "rule-10", Receiver: Eq("name", "anonymous"), Target: Eq("name", "testperson1")},
		Attrs:   map[string]bool{"name": true, "mail": true},
	})

	got, err := eng.SearchFilterEntryAttributes(SearchEvent{Event: UserEvent(anon), RequestFilter: Pres("name")}, []Entry{p1})
	if err != nil {
		t.Fatalf("SearchFilterEntryAttributes: %v", err)
	}
	allowed := map[string]bool{"name": true, "mail": true}
	for attr := range got[0].AttributeNames() {
		if !allowed[attr] {
			t.Fatalf("attribute %q leaked past projection, allowed=%v", attr, allowed)
		}
	}
}

// A Self receiver resolves against the caller's own uuid, so it is
// related to every caller equally — it is the target filter that then
// decides which entries they may see.
func TestSelfReceiverMatchesEveryCaller(t *testing.T) {
	eng := engineWithSearchRule(t, SearchRule{
		Profile: Profile{Name: "self rule", UUID: "rule-11", Receiver: SelfFilter(), Target: Pres("name")},
		Attrs:   map[string]bool{"name": true},
	})
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")

	other := mustEntry(t, "99999999-9999-9999-9999-999999999999", map[string][]string{
		"name":  {"someoneelse"},
		"class": {"object"},
	})
	got, err := eng.SearchFilterEntries(SearchEvent{Event: UserEvent(other), RequestFilter: Pres("name")}, []Entry{p1})
	if err != nil {
		t.Fatalf("SearchFilterEntries: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected Self receiver to be related for any caller (target still scopes the result), got %#v", got)
	}
}

// A target using Self restricts visibility to the caller's own entry,
// even when the receiver admits everybody.
func TestSelfTargetRestrictsToOwnEntry(t *testing.T) {
	eng := engineWithSearchRule(t, SearchRule{
		Profile: Profile{Name: "self target", UUID: "rule-12", Receiver: Pres("name"), Target: SelfFilter()},
		Attrs:   map[string]bool{"name": true},
	})
	p1 := newTestPerson(t, "testperson1", "11111111-1111-1111-1111-111111111111")
	p2 := newTestPerson(t, "testperson2", "44444444-4444-4444-4444-444444444444")
	caller := mustEntry(t, p1.UUID(), map[string][]string{
		"name":  {"testperson1"},
		"class": {"object"},
	})

	got, err := eng.SearchFilterEntries(SearchEvent{Event: UserEvent(caller), RequestFilter: Pres("name")}, []Entry{p1, p2})
	if err != nil {
		t.Fatalf("SearchFilterEntries: %v", err)
	}
	if len(got) != 1 || got[0].UUID() != p1.UUID() {
		t.Fatalf("expected caller to see their own entry via Self target, got %#v", got)
	}
}
