package core

import "errors"

// Sentinel errors for the error kinds described in the engine's external
// contract. Wrap with fmt.Errorf("%w: ...") and compare with errors.Is.
var (
	// ErrTypeError would be returned by a dynamically-typed put/delete
	// surface given a non-string key or value. Put's signature makes this
	// unreachable in Go; the sentinel is kept for callers that decode an
	// `any` before calling into the store and want a stable error to map
	// non-string input onto.
	ErrTypeError = errors.New("type error: key and value must be strings")

	// ErrNotFound is returned by Delete when the key has no live value.
	ErrNotFound = errors.New("key not found")

	// ErrUnsortedWrite is returned by Segment.AddEntry when the key is not
	// strictly greater than the previous key appended in this open session.
	ErrUnsortedWrite = errors.New("unsorted write: key is not greater than previous key")

	// ErrCorruptSegment is returned by recovery when a segment file name or
	// line cannot be parsed.
	ErrCorruptSegment = errors.New("corrupt segment")

	// ErrInvalidRecord is returned by the record codec when a line does not
	// decode to exactly one string-valued JSON member.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrIOFailure wraps an underlying file operation failure.
	ErrIOFailure = errors.New("io failure")
)
