package core

import (
	"container/heap"
	"io"
	"iter"
)

// mergeItem is one candidate record in the k-way merge's priority queue:
// the next unread record from one input segment.
type mergeItem struct {
	key       string
	timestamp int64
	value     string
	segIndex  int
}

// mergeHeap orders items by key ascending, and by timestamp descending
// within equal keys, so the newest contributor to a given key surfaces
// first.
type mergeHeap []mergeItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	if h[i].key != h[j].key {
		return h[i].key < h[j].key
	}
	return h[i].timestamp > h[j].timestamp
}
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)        { *h = append(*h, x.(mergeItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeSegments opens every segment in segs for reading and returns a
// lazy sequence of records strictly increasing by key, where for every key
// only the value from the newest contributing segment is emitted. The
// caller's yield function receives records already filtered of stale
// duplicates. Every opened segment is closed, together, when iteration
// ends (via break, return, or exhaustion) or an error is encountered.
//
// Complexity is O(total_records * log(len(segs))).
func mergeSegments(segs []*segment) iter.Seq2[record, error] {
	return func(yield func(record, error) bool) {
		opened := make([]*segment, 0, len(segs))
		defer func() {
			for _, s := range opened {
				_ = s.Close()
			}
		}()

		for _, s := range segs {
			if err := s.Open(modeRead); err != nil {
				yield(record{}, err)
				return
			}
			opened = append(opened, s)
		}

		h := make(mergeHeap, 0, len(opened))
		for i, s := range opened {
			rec, err := s.ReadEntry()
			if err == io.EOF {
				continue // empty segment; contributes nothing
			}
			if err != nil {
				yield(record{}, err)
				return
			}
			h = append(h, mergeItem{key: rec.key, value: rec.value, timestamp: s.timestamp, segIndex: i})
		}
		heap.Init(&h)

		havePrevious := false
		var previousKey string

		for h.Len() > 0 {
			item := heap.Pop(&h).(mergeItem)

			if !havePrevious || item.key != previousKey {
				if !yield(record{key: item.key, value: item.value}, nil) {
					return
				}
				previousKey = item.key
				havePrevious = true
			}

			seg := opened[item.segIndex]
			rec, err := seg.ReadEntry()
			if err == nil {
				heap.Push(&h, mergeItem{key: rec.key, value: rec.value, timestamp: seg.timestamp, segIndex: item.segIndex})
			} else if err != io.EOF {
				yield(record{}, err)
				return
			}
		}
	}
}
