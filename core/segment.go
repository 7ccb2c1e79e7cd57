package core

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"
)

// segmentMode selects how a segment's underlying file is opened.
type segmentMode int

const (
	// modeRead opens an existing segment for sequential/random reads.
	modeRead segmentMode = iota
	// modeAppend opens a segment for append-only writing, creating it if
	// it does not yet exist.
	modeAppend
	// modeReadWrite opens a segment for both reading and writing.
	modeReadWrite
)

// segmentNamePattern extracts the timestamp embedded in a segment's file
// name: unix seconds, a dot, a 9-digit zero-padded nanosecond remainder.
var segmentNamePattern = regexp.MustCompile(`^(\d+)\.(\d{9})\.txt$`)

// lastSegmentTimestamp is the most recent nanosecond timestamp handed out
// by nextSegmentTimestamp, used to force strict monotonicity even when
// time.Now() doesn't advance between two calls (common on platforms with
// coarse clock resolution, or simply two calls landing in the same tick).
var lastSegmentTimestamp int64

// segment is an immutable sorted run of records identified by a unique
// creation timestamp embedded in its file name. An unopened segment has no
// file descriptor; only Open exposes read/seek/write operations, and the
// handle is released by Close on every exit path.
type segment struct {
	path      string
	timestamp int64 // nanoseconds since epoch, exact and strictly ordered

	file *os.File
	mode segmentMode

	writeOffset     int64
	readOffset      int64
	previousKey     string
	havePreviousKey bool
}

// parseSegmentTimestamp extracts the timestamp from a segment file name as
// an exact integer nanosecond count, failing with ErrCorruptSegment if the
// name does not match the scheme.
func parseSegmentTimestamp(name string) (int64, error) {
	m := segmentNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, fmt.Errorf("%w: %q does not carry a parseable timestamp", ErrCorruptSegment, name)
	}
	seconds, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrCorruptSegment, name, err)
	}
	nanos, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrCorruptSegment, name, err)
	}
	return seconds*int64(time.Second) + nanos, nil
}

// nextSegmentTimestamp returns a nanosecond timestamp strictly greater than
// every timestamp previously returned, advancing past time.Now() via a CAS
// loop when the clock hasn't ticked (or has gone backward) since the last
// call. Keeping the value as an integer, rather than folding a counter into
// a float64's fractional digits, avoids the precision loss a float64
// suffers at unix-epoch magnitude.
func nextSegmentTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastSegmentTimestamp)
		next := now
		if next <= last {
			next = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastSegmentTimestamp, last, next) {
			return next
		}
	}
}

// segmentFileName builds the name of a new segment file from a strictly
// monotonic nanosecond timestamp.
func segmentFileName() string {
	ts := nextSegmentTimestamp()
	seconds := ts / int64(time.Second)
	nanos := ts % int64(time.Second)
	return fmt.Sprintf("%d.%09d.txt", seconds, nanos)
}

// newSegment constructs an unopened segment bound to path. The timestamp is
// parsed once, here, at construction.
func newSegment(path string) (*segment, error) {
	ts, err := parseSegmentTimestamp(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return &segment{path: path, timestamp: ts}, nil
}

// createSegment creates a brand-new, empty segment file under dir and
// returns its unopened handle.
func createSegment(dir string) (*segment, error) {
	path := filepath.Join(dir, segmentFileName())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create segment %q: %v", ErrIOFailure, path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: close new segment %q: %v", ErrIOFailure, path, err)
	}
	return newSegment(path)
}

// Open acquires the underlying file for mode. Callers must Close on every
// exit path; opening resets the append-ordering and read-cursor state, so
// unsorted-write detection is scoped to a single open session.
func (s *segment) Open(mode segmentMode) error {
	var flag int
	switch mode {
	case modeRead:
		flag = os.O_RDONLY
	case modeAppend:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case modeReadWrite:
		flag = os.O_RDWR | os.O_CREATE
	default:
		return fmt.Errorf("segment: unknown open mode %d", mode)
	}

	f, err := os.OpenFile(s.path, flag, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open segment %q: %v", ErrIOFailure, s.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: stat segment %q: %v", ErrIOFailure, s.path, err)
	}

	s.file = f
	s.mode = mode
	s.writeOffset = info.Size()
	s.readOffset = 0
	s.previousKey = ""
	s.havePreviousKey = false
	return nil
}

// Close releases the file acquired by Open. Write-mode segments are synced
// before closing so a caller that observes Close returning nil knows the
// data is durable.
func (s *segment) Close() error {
	if s.file == nil {
		return nil
	}
	if s.mode != modeRead {
		if err := s.file.Sync(); err != nil {
			_ = s.file.Close()
			s.file = nil
			return fmt.Errorf("%w: sync segment %q: %v", ErrIOFailure, s.path, err)
		}
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("%w: close segment %q: %v", ErrIOFailure, s.path, err)
	}
	return nil
}

// AddEntry appends a record, returning the byte offset of its first byte.
// It fails with ErrUnsortedWrite if key is not strictly greater than the
// previous key appended within this open session.
func (s *segment) AddEntry(key, value string) (int64, error) {
	if s.havePreviousKey && key <= s.previousKey {
		return 0, fmt.Errorf("%w: %q after %q", ErrUnsortedWrite, key, s.previousKey)
	}

	line, err := encodeRecord(key, value)
	if err != nil {
		return 0, err
	}

	offset := s.writeOffset
	n, err := s.file.Write(line)
	if err != nil {
		return 0, fmt.Errorf("%w: write segment %q: %v", ErrIOFailure, s.path, err)
	}

	s.writeOffset += int64(n)
	s.previousKey = key
	s.havePreviousKey = true
	return offset, nil
}

// readLineAt reads the line starting at offset, returning the line
// (without its trailing newline) and the offset of the following line.
func (s *segment) readLineAt(offset int64) (line []byte, next int64, err error) {
	const chunkSize = 4096
	var buf []byte
	pos := offset

	for {
		chunk := make([]byte, chunkSize)
		n, rerr := s.file.ReadAt(chunk, pos)
		buf = append(buf, chunk[:n]...)

		if idx := bytes.IndexByte(buf, '\n'); idx >= 0 {
			return buf[:idx], offset + int64(idx) + 1, nil
		}

		if rerr != nil {
			if rerr == io.EOF {
				if len(buf) == 0 {
					return nil, offset, io.EOF
				}
				return buf, offset + int64(len(buf)), nil
			}
			return nil, offset, fmt.Errorf("%w: read segment %q: %v", ErrIOFailure, s.path, rerr)
		}

		pos += int64(n)
	}
}

// ReadEntry reads one record from the current cursor position and
// advances it.
func (s *segment) ReadEntry() (record, error) {
	line, next, err := s.readLineAt(s.readOffset)
	if err != nil {
		return record{}, err
	}
	rec, err := decodeRecord(line)
	if err != nil {
		return record{}, err
	}
	s.readOffset = next
	return rec, nil
}

// PeekEntry reads one record from the current cursor position without
// advancing it.
func (s *segment) PeekEntry() (record, error) {
	line, _, err := s.readLineAt(s.readOffset)
	if err != nil {
		return record{}, err
	}
	return decodeRecord(line)
}

// Seek positions the read cursor at offset, which must be a record
// boundary; this is not validated.
func (s *segment) Seek(offset int64) {
	s.readOffset = offset
}

// Search linearly scans from startOffset for a record whose key equals
// queryKey, terminating early once a strictly greater key is observed
// since records are sorted. It does not disturb the segment's read cursor.
func (s *segment) Search(queryKey string, startOffset int64) (string, bool, error) {
	offset := startOffset
	for {
		line, next, err := s.readLineAt(offset)
		if err == io.EOF {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		rec, err := decodeRecord(line)
		if err != nil {
			return "", false, err
		}
		if rec.key == queryKey {
			return rec.value, true, nil
		}
		if rec.key > queryKey {
			return "", false, nil
		}
		offset = next
	}
}

// Entries lazily yields every record in the segment in file order, from
// the beginning regardless of the current read cursor.
func (s *segment) Entries() iter.Seq[record] {
	return func(yield func(record) bool) {
		offset := int64(0)
		for {
			line, next, err := s.readLineAt(offset)
			if err != nil {
				return
			}
			rec, err := decodeRecord(line)
			if err != nil {
				return
			}
			if !yield(rec) {
				return
			}
			offset = next
		}
	}
}

// OffsetsAndEntries lazily yields every record in the segment together
// with the offset of its first byte.
func (s *segment) OffsetsAndEntries() iter.Seq2[int64, record] {
	return func(yield func(int64, record) bool) {
		offset := int64(0)
		for {
			line, next, err := s.readLineAt(offset)
			if err != nil {
				return
			}
			rec, err := decodeRecord(line)
			if err != nil {
				return
			}
			if !yield(offset, rec) {
				return
			}
			offset = next
		}
	}
}
