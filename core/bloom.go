package core

import "github.com/bits-and-blooms/bloom/v3"

// scalableFilterFPRate is the false-positive rate each shard is sized for.
const scalableFilterFPRate = 0.01

// scalableFilter is a growable approximate-membership set composed of
// bits-and-blooms/bloom/v3 shards: once the active shard has absorbed the
// number of keys it was sized for, a new, larger shard is appended. A
// membership test checks every shard, since a key may have been added to
// any of them. False positives are possible; false negatives are not.
//
// The filter is never pruned: a tombstoned, later-compacted key still
// reports positive here, matching the engine's documented behavior of
// preserving the filter across compaction.
type scalableFilter struct {
	shards       []*bloom.BloomFilter
	capacities   []uint
	counts       []uint
	initCapacity uint
}

func newScalableFilter(initialCapacity uint) *scalableFilter {
	if initialCapacity == 0 {
		initialCapacity = 1024
	}
	return &scalableFilter{
		shards:       []*bloom.BloomFilter{bloom.NewWithEstimates(initialCapacity, scalableFilterFPRate)},
		capacities:   []uint{initialCapacity},
		counts:       []uint{0},
		initCapacity: initialCapacity,
	}
}

// add records key as present.
func (f *scalableFilter) add(key string) {
	last := len(f.shards) - 1
	if f.counts[last] >= f.capacities[last] {
		newCapacity := f.capacities[last] * 2
		f.shards = append(f.shards, bloom.NewWithEstimates(newCapacity, scalableFilterFPRate))
		f.capacities = append(f.capacities, newCapacity)
		f.counts = append(f.counts, 0)
		last = len(f.shards) - 1
	}
	f.shards[last].Add([]byte(key))
	f.counts[last]++
}

// contains reports whether key may have been added. A false result means
// key was definitely never added; a true result may be a false positive.
func (f *scalableFilter) contains(key string) bool {
	data := []byte(key)
	for _, shard := range f.shards {
		if shard.Test(data) {
			return true
		}
	}
	return false
}
