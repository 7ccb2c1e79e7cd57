package core

import "testing"

// setupEngine opens a temp-backed engine with the given options, applying
// opts on top of an explicit path so the segments survive for cross-session
// tests; cleanup is registered automatically and also returned for callers
// that want to close and reopen against the same directory.
func setupEngine(tb testing.TB, opts ...Option) (e *Engine, dir string, cleanup func()) {
	path := tb.TempDir()
	allOpts := append([]Option{WithPath(path), WithPersistSegments(true)}, opts...)

	e, err := Open(allOpts...)
	if err != nil {
		tb.Fatalf("Open(%q) failed: %v", path, err)
	}

	cleanup = func() {
		_ = e.Close()
	}
	tb.Cleanup(cleanup)

	return e, path, cleanup
}
