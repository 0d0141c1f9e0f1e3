package engine

import "testing"

func TestKeySet_CanonicalOrder(t *testing.T) {
	r := NewRegistry()
	var keys []Key
	for _, name := range []string{"port", "addr", "log_level"} {
		k, err := NewKey(r, name, name, StageBoth, "", StringDescriptor())
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		keys = append(keys, k)
	}

	s := NewKeySet(keys...)
	want := []string{"addr", "log_level", "port"}
	got := s.Names()
	if len(got) != len(want) {
		t.Fatalf("Expected %d names, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected name %d to be %s, got %s", i, want[i], got[i])
		}
	}
}

func TestKeySet_AddByNameIdentity(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()
	k1, _ := NewKey(r1, "port", "first", StageBoth, 1, IntDescriptor())
	k2, _ := NewKey(r2, "port", "second", StageBoth, 2, IntDescriptor())

	s := NewKeySet(k1)
	s.Add(k2)

	if s.Len() != 1 {
		t.Errorf("Expected 1 key after same-name add, got %d", s.Len())
	}
	if !s.ContainsName("port") {
		t.Error("Expected set to contain port")
	}
	if !s.Contains(k2) {
		t.Error("Expected identity by name, not by handle")
	}
}

func TestKeySet_Union(t *testing.T) {
	r := NewRegistry()
	a, _ := NewKey(r, "a", "a", StageBoth, "", StringDescriptor())
	b, _ := NewKey(r, "b", "b", StageBoth, "", StringDescriptor())
	c, _ := NewKey(r, "c", "c", StageBoth, "", StringDescriptor())

	left := NewKeySet(a, b)
	right := NewKeySet(b, c)
	union := left.Union(right)

	if union.Len() != 3 {
		t.Errorf("Expected 3 keys in union, got %d", union.Len())
	}
	// Union leaves the inputs untouched.
	if left.Len() != 2 || right.Len() != 2 {
		t.Errorf("Expected inputs unchanged, got %d and %d", left.Len(), right.Len())
	}

	if union.Union(nil).Len() != 3 {
		t.Errorf("Expected nil union to copy, got %d", union.Union(nil).Len())
	}
}
