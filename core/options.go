package core

// Options gathers the engine's construction-time configuration. Defaults
// mirror the original jumpDB implementation this store is modeled on.
type Options struct {
	// maxInMemorySize is the memtable capacity, in distinct keys.
	maxInMemorySize int

	// sparseOffset is the sampling stride for the sparse index: one out of
	// every sparseOffset records visited is indexed.
	sparseOffset int

	// segmentSize is the maximum number of records a compacted output
	// segment may hold before a new one is started.
	segmentSize int

	// persistSegments controls whether segment files survive Close. When
	// false, segments always live under a private temp directory that is
	// removed on Close, regardless of path.
	persistSegments bool

	// mergeThreshold is the segment-list length at which a flush triggers
	// compaction.
	mergeThreshold int

	// path is the directory scanned on Open and written into, when
	// persistSegments is true. Empty means a fresh temp directory is used
	// and removed on Close.
	path string
}

// Option mutates Options at construction time.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		maxInMemorySize: 1000,
		sparseOffset:    100,
		segmentSize:     10000,
		persistSegments: true,
		mergeThreshold:  10,
		path:            "",
	}
}

// WithMaxInMemorySize bounds the memtable to n distinct keys before a flush
// is triggered.
func WithMaxInMemorySize(n int) Option {
	return func(o *Options) { o.maxInMemorySize = n }
}

// WithSparseOffset sets the sparse index sampling stride.
func WithSparseOffset(n int) Option {
	return func(o *Options) { o.sparseOffset = n }
}

// WithSegmentSize caps the record count of a compacted output segment.
func WithSegmentSize(n int) Option {
	return func(o *Options) { o.segmentSize = n }
}

// WithPersistSegments controls whether segment files are retained after
// Close. When false, segments are written under a private temp directory
// that is removed on Close — WithPath is ignored in that case, since a
// non-persistent engine never deletes a directory the caller named.
func WithPersistSegments(b bool) Option {
	return func(o *Options) { o.persistSegments = b }
}

// WithMergeThreshold sets the segment count that triggers compaction after
// a flush.
func WithMergeThreshold(n int) Option {
	return func(o *Options) { o.mergeThreshold = n }
}

// WithPath sets the directory to scan on Open and to write persistent
// segments into. Has no effect when combined with WithPersistSegments(false).
func WithPath(path string) Option {
	return func(o *Options) { o.path = path }
}
