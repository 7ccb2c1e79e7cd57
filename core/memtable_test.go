package core

import "testing"

func TestMemtablePutGet(t *testing.T) {
	m := newMemtable(10)
	m.put("a", "1")
	m.put("b", "2")

	if v, ok := m.get("a"); !ok || v != "1" {
		t.Fatalf("get(a) = %q, %v; want 1, true", v, ok)
	}
	if _, ok := m.get("missing"); ok {
		t.Fatal("get(missing) should report not found")
	}
}

func TestMemtableCapacityReached(t *testing.T) {
	m := newMemtable(2)
	m.put("a", "1")
	if m.capacityReached() {
		t.Fatal("capacity should not be reached after one of two entries")
	}
	m.put("b", "2")
	if !m.capacityReached() {
		t.Fatal("capacity should be reached after two of two entries")
	}

	// overwriting an existing key must not grow past capacity
	m.put("a", "1-updated")
	if m.len() != 2 {
		t.Fatalf("len() = %d, want 2", m.len())
	}
}

func TestMemtableClear(t *testing.T) {
	m := newMemtable(10)
	m.put("a", "1")
	m.clear()
	if m.len() != 0 {
		t.Fatalf("len() = %d after clear, want 0", m.len())
	}
	if m.contains("a") {
		t.Fatal("contains(a) should be false after clear")
	}
}

func TestMemtableAscendingOrder(t *testing.T) {
	m := newMemtable(10)
	for _, k := range []string{"c", "a", "b"} {
		m.put(k, k)
	}

	var got []string
	for k := range m.all() {
		got = append(got, k)
	}

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
