package core

import (
	"iter"

	"github.com/google/btree"
)

// memtableEntry is the btree item stored by the memtable, ordered by key.
type memtableEntry struct {
	key   string
	value string
}

func memtableLess(a, b memtableEntry) bool {
	return a.key < b.key
}

// memtable is the in-memory, capacity-bounded ordered buffer of pending
// writes. Tombstones are stored as regular values; clear discards all
// entries. It carries no durability of its own.
type memtable struct {
	tree     *btree.BTreeG[memtableEntry]
	capacity int
}

func newMemtable(capacity int) *memtable {
	return &memtable{
		tree:     btree.NewG(32, memtableLess),
		capacity: capacity,
	}
}

// put inserts or overwrites the value stored under key.
func (m *memtable) put(key, value string) {
	m.tree.ReplaceOrInsert(memtableEntry{key: key, value: value})
}

// get returns the value stored under key, if present. The caller must
// check ok to distinguish "absent" from a stored empty string.
func (m *memtable) get(key string) (value string, ok bool) {
	entry, found := m.tree.Get(memtableEntry{key: key})
	if !found {
		return "", false
	}
	return entry.value, true
}

// contains reports whether key has a pending entry, tombstoned or not.
func (m *memtable) contains(key string) bool {
	return m.tree.Has(memtableEntry{key: key})
}

// clear discards all pending entries.
func (m *memtable) clear() {
	m.tree.Clear(false)
}

// len returns the number of distinct pending keys.
func (m *memtable) len() int {
	return m.tree.Len()
}

// capacityReached reports whether the memtable holds capacity or more
// distinct keys.
func (m *memtable) capacityReached() bool {
	return m.tree.Len() >= m.capacity
}

// all lazily walks entries in ascending key order.
func (m *memtable) all() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		m.tree.Ascend(func(e memtableEntry) bool {
			return yield(e.key, e.value)
		})
	}
}
