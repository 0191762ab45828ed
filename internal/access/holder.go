package access

import (
	"sync"
	"sync/atomic"
)

// Holder is the transactional rule-set cell: unbounded concurrent readers
// each see a consistent snapshot of the four flavor maps, and at most one
// writer transaction is outstanding at a time. It is the Go analogue of
// a copy-on-write cell — readers never observe a partially-updated
// RuleSet, and commit publishes the new snapshot atomically via a single
// pointer swap.
//
// This mirrors the atomic.Value Store/Load publication pattern used by
// Kubernetes' admission rule configuration manager: readers call Load(),
// a single writer calls Store() under a mutex that serializes writers
// without blocking readers.
type Holder struct {
	snapshot atomic.Value // holds RuleSet
	writeMu  sync.Mutex
}

// NewHolder returns a Holder publishing an empty RuleSet.
func NewHolder() *Holder {
	h := &Holder{}
	h.snapshot.Store(emptyRuleSet())
	return h
}

// Read returns the currently published RuleSet snapshot. Safe for
// unbounded concurrent callers; never blocks on a writer.
func (h *Holder) Read() RuleSet {
	return h.snapshot.Load().(RuleSet)
}

// BeginWrite acquires the single write handle, blocking if one is already
// outstanding, and returns a transaction seeded with a clone of the
// current snapshot. Every WriteTxn must be concluded with Commit or
// Abandon or all future writers deadlock.
func (h *Holder) BeginWrite() *WriteTxn {
	h.writeMu.Lock()
	return &WriteTxn{holder: h, pending: h.Read().clone()}
}

// WriteTxn is the single outstanding writer's working copy of the
// RuleSet. Its four UpdateX methods are wholesale flavor replacements:
// each clears the relevant flavor map and inserts every supplied rule
// keyed by uuid.
type WriteTxn struct {
	holder  *Holder
	pending RuleSet
	closed  bool
}

func (t *WriteTxn) UpdateSearch(rules []SearchRule) {
	m := make(map[string]SearchRule, len(rules))
	for _, r := range rules {
		m[r.UUID] = r
	}
	t.pending.Search = m
}

func (t *WriteTxn) UpdateCreate(rules []CreateRule) {
	m := make(map[string]CreateRule, len(rules))
	for _, r := range rules {
		m[r.UUID] = r
	}
	t.pending.Create = m
}

func (t *WriteTxn) UpdateModify(rules []ModifyRule) {
	m := make(map[string]ModifyRule, len(rules))
	for _, r := range rules {
		m[r.UUID] = r
	}
	t.pending.Modify = m
}

func (t *WriteTxn) UpdateDelete(rules []DeleteRule) {
	m := make(map[string]DeleteRule, len(rules))
	for _, r := range rules {
		m[r.UUID] = r
	}
	t.pending.Delete = m
}

// Commit publishes the transaction's pending RuleSet atomically and
// releases the write handle.
func (t *WriteTxn) Commit() {
	if t.closed {
		return
	}
	t.holder.snapshot.Store(t.pending)
	t.closed = true
	t.holder.writeMu.Unlock()
}

// Abandon releases the write handle without publishing; the previously
// published snapshot is left untouched.
func (t *WriteTxn) Abandon() {
	if t.closed {
		return
	}
	t.closed = true
	t.holder.writeMu.Unlock()
}
