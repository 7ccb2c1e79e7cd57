package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/deckarep/golang-set/v2"
)

// Open constructs an Engine. If opts.path names an existing directory, its
// segments are recovered: enumerated, ordered by embedded timestamp
// ascending, and used to rebuild the sparse index and the Bloom filter
// before the engine is handed back. Recovery is all-or-nothing — a
// partially-recovered engine is never returned.
//
// WithPersistSegments(false) always backs the engine with a private
// directory under os.TempDir, removed on Close, regardless of whether
// WithPath was also supplied: a caller-named directory is never one this
// engine is willing to delete wholesale on shutdown.
func Open(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dir := o.path
	removeOnClose := !o.persistSegments
	if !o.persistSegments || dir == "" {
		tmp, err := os.MkdirTemp("", "jumpdb_*")
		if err != nil {
			return nil, fmt.Errorf("%w: create temp dir: %v", ErrIOFailure, err)
		}
		dir = tmp
		removeOnClose = true
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %q: %v", ErrIOFailure, dir, err)
	}

	segs, err := scanSegments(dir)
	if err != nil {
		if removeOnClose {
			_ = os.RemoveAll(dir)
		}
		return nil, err
	}

	idx := newSparseIndex()
	if err := rebuildSparseIndex(idx, segs, o.sparseOffset); err != nil {
		if removeOnClose {
			_ = os.RemoveAll(dir)
		}
		return nil, err
	}

	filter, err := rebuildBloomFilter(segs, uint(o.maxInMemorySize*8))
	if err != nil {
		if removeOnClose {
			_ = os.RemoveAll(dir)
		}
		return nil, err
	}

	return &Engine{
		opts:          o,
		dir:           dir,
		removeOnClose: removeOnClose,
		memtable:      newMemtable(o.maxInMemorySize),
		segments:      segs,
		index:         idx,
		filter:        filter,
	}, nil
}

// scanSegments enumerates dir, builds a Segment for every entry matching
// the segment naming scheme, and orders them by embedded timestamp
// ascending. Entries that don't match the scheme are reported and skipped
// rather than treated as fatal, following the same orphaned-entry
// tolerance the teacher applies to its own manifest reconciliation. A name
// that does match but carries an unparseable timestamp, or a segment whose
// content fails to decode, is fatal: CorruptSegment.
func scanSegments(dir string) ([]*segment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read dir %q: %v", ErrIOFailure, dir, err)
	}

	all := mapset.NewSet[string]()
	recognized := mapset.NewSet[string]()
	var segs []*segment

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		all.Add(name)

		if !segmentNamePattern.MatchString(name) {
			continue
		}
		recognized.Add(name)

		seg, err := newSegment(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}

	if unexpected := all.Difference(recognized); unexpected.Cardinality() != 0 {
		log.Printf("warning: unexpected directory entries ignored during recovery: %v", unexpected)
	}

	sort.SliceStable(segs, func(i, j int) bool { return segs[i].timestamp < segs[j].timestamp })

	for _, seg := range segs {
		if err := validateSegment(seg); err != nil {
			return nil, err
		}
	}

	return segs, nil
}

// validateSegment opens seg for read and walks every line, failing with
// CorruptSegment at the first line that does not decode.
func validateSegment(seg *segment) error {
	if err := seg.Open(modeRead); err != nil {
		return err
	}
	err := walkSegment(seg, func(int64, record) error { return nil })
	closeErr := seg.Close()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptSegment, seg.path, err)
	}
	return closeErr
}

// walkSegment requires seg to already be open for read. It calls fn with
// the offset and decoded record of every line in file order, stopping at
// the first error fn returns or the first decode failure.
func walkSegment(seg *segment, fn func(offset int64, rec record) error) error {
	seg.Seek(0)
	for {
		offset := seg.readOffset
		rec, err := seg.ReadEntry()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(offset, rec); err != nil {
			return err
		}
	}
}

// rebuildSparseIndex clears idx and repopulates it by walking every
// segment in order, sampling every sparseOffset-th record counted globally
// across the whole walk.
func rebuildSparseIndex(idx *sparseIndex, segs []*segment, sparseOffset int) error {
	idx.clear()
	count := 0
	for _, seg := range segs {
		if err := seg.Open(modeRead); err != nil {
			return err
		}
		err := walkSegment(seg, func(offset int64, rec record) error {
			if count%sparseOffset == 0 {
				idx.add(rec.key, locator{segment: seg, offset: offset})
			}
			count++
			return nil
		})
		closeErr := seg.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}

// rebuildBloomFilter walks every segment, adding every key encountered to
// a freshly created filter.
func rebuildBloomFilter(segs []*segment, initialCapacity uint) (*scalableFilter, error) {
	filter := newScalableFilter(initialCapacity)
	for _, seg := range segs {
		if err := seg.Open(modeRead); err != nil {
			return nil, err
		}
		err := walkSegment(seg, func(_ int64, rec record) error {
			filter.add(rec.key)
			return nil
		})
		closeErr := seg.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}
	}
	return filter, nil
}
