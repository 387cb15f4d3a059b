// Package threadtable is the kernel-wide owner of every live thread.
// Ready tiers and wait queues only hold references; a thread leaves the
// table when it is destroyed.
package threadtable

import (
	"github.com/tidwall/btree"

	"tierq/internal/thread"
)

type entry struct {
	id thread.ID
	t  *thread.Thread
}

// Table indexes threads by ID in ascending order.
type Table struct {
	tree *btree.BTreeG[entry]
}

// New returns an empty table.
func New() *Table {
	return &Table{
		tree: btree.NewBTreeG(func(a, b entry) bool { return a.id < b.id }),
	}
}

// Insert adds t, replacing any thread with the same ID.
func (tb *Table) Insert(t *thread.Thread) {
	tb.tree.Set(entry{id: t.ID(), t: t})
}

// Delete removes the thread with the given ID and reports whether it was present.
func (tb *Table) Delete(id thread.ID) bool {
	_, ok := tb.tree.Delete(entry{id: id})
	return ok
}

// Get looks up a thread by ID.
func (tb *Table) Get(id thread.ID) (*thread.Thread, bool) {
	e, ok := tb.tree.Get(entry{id: id})
	if !ok {
		return nil, false
	}
	return e.t, true
}

// Len returns the number of live threads.
func (tb *Table) Len() int { return tb.tree.Len() }

// Ascend calls fn for every thread in ID order until fn returns false.
func (tb *Table) Ascend(fn func(*thread.Thread) bool) {
	tb.tree.Scan(func(e entry) bool { return fn(e.t) })
}

// CountStatus returns how many live threads are in status s.
func (tb *Table) CountStatus(s thread.Status) int {
	n := 0
	tb.Ascend(func(t *thread.Thread) bool {
		if t.Status() == s {
			n++
		}
		return true
	})
	return n
}
