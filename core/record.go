package core

import (
	"encoding/json"
	"fmt"
)

// tombstone is the in-memory sentinel value marking a deletion. It is built
// from a fixed, unforgeable byte sequence so it can never collide with a
// caller-supplied value, and it is never written to a segment file: flush
// drops every memtable entry whose value equals tombstone.
const tombstone = "\x00__jumpdb_tombstone__2f7e6a4c-2a7b-4a7e-9f1a-2b7a7f6e0c5a\x00"

// isTombstone reports whether v is the deletion sentinel.
func isTombstone(v string) bool {
	return v == tombstone
}

// record is a single (key, value) pair as it travels between the memtable
// and a segment file.
type record struct {
	key   string
	value string
}

// encodeRecord renders a record as a single line: a JSON object with
// exactly one member, key -> value, terminated by a line feed.
func encodeRecord(key, value string) ([]byte, error) {
	line, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal %q: %v", ErrInvalidRecord, key, err)
	}
	line = append(line, '\n')
	return line, nil
}

// decodeRecord parses a single line (without its trailing newline) into a
// record. It fails with ErrInvalidRecord if the line does not decode to a
// JSON object with exactly one string-valued member.
func decodeRecord(line []byte) (record, error) {
	var fields map[string]string
	if err := json.Unmarshal(line, &fields); err != nil {
		return record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if len(fields) != 1 {
		return record{}, fmt.Errorf("%w: expected exactly one member, got %d", ErrInvalidRecord, len(fields))
	}
	for k, v := range fields {
		return record{key: k, value: v}, nil
	}
	panic("unreachable")
}
