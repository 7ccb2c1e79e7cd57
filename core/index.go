package core

import (
	"iter"

	"github.com/google/btree"
)

// locator is a (segment, offset) pair pointing at the first byte of a
// record inside a segment. Locators reference segments by pointer but do
// not own them: compaction replaces the engine's segment list and clears
// the index atomically, so stale locators are simply never looked at
// again rather than dangling.
type locator struct {
	segment *segment
	offset  int64
}

// indexEntry is the btree item backing the sparse index: a sampled key and
// every locator recorded for it, oldest first.
type indexEntry struct {
	key      string
	locators []locator
}

func indexLess(a, b indexEntry) bool {
	return a.key < b.key
}

// sparseIndex is the ordered map from sampled keys to their locators. It
// is sampled at a configured frequency rather than holding every key, and
// is fully discarded and rebuilt on every compaction.
type sparseIndex struct {
	tree *btree.BTreeG[indexEntry]
}

func newSparseIndex() *sparseIndex {
	return &sparseIndex{tree: btree.NewG(32, indexLess)}
}

// add records a locator for key, appending to any existing locator list so
// that insertion order reflects walk order (older segments first).
func (si *sparseIndex) add(key string, loc locator) {
	entry, found := si.tree.Get(indexEntry{key: key})
	if !found {
		entry = indexEntry{key: key}
	}
	entry.locators = append(entry.locators, loc)
	si.tree.ReplaceOrInsert(entry)
}

// clear discards every sampled entry.
func (si *sparseIndex) clear() {
	si.tree.Clear(false)
}

// isEmpty reports whether the index holds no sampled keys.
func (si *sparseIndex) isEmpty() bool {
	return si.tree.Len() == 0
}

// descendLessOrEqual lazily walks sampled keys <= q in descending order,
// the order the point-read protocol needs to find the closest indexed key
// at or below the query key.
func (si *sparseIndex) descendLessOrEqual(q string) iter.Seq[indexEntry] {
	return func(yield func(indexEntry) bool) {
		si.tree.DescendLessOrEqual(indexEntry{key: q}, func(e indexEntry) bool {
			return yield(e)
		})
	}
}

// newestFirst returns locs ordered newest-first, i.e. the
// reverse of their recorded (oldest-first) insertion order.
func newestFirst(locs []locator) iter.Seq[locator] {
	return func(yield func(locator) bool) {
		for i := len(locs) - 1; i >= 0; i-- {
			if !yield(locs[i]) {
				return
			}
		}
	}
}
