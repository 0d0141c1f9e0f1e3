package engine

import "sort"

// KeySet is a set of key identities ordered canonically by name. The
// canonical order makes flag layout, documentation, and serialized key
// values deterministic. Expression dependency computation produces key
// sets; flag-surface construction and partial evaluation consume them.
type KeySet struct {
	byName map[string]Key
}

// NewKeySet creates a set holding the given keys.
func NewKeySet(keys ...Key) *KeySet {
	s := &KeySet{byName: make(map[string]Key, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts a key. Adding a key whose name is already present is a
// no-op: identity is by name.
func (s *KeySet) Add(k Key) {
	if k == nil {
		return
	}
	if _, ok := s.byName[k.Name()]; ok {
		return
	}
	s.byName[k.Name()] = k
}

// Contains reports whether a key with the same name is in the set.
func (s *KeySet) Contains(k Key) bool {
	if k == nil {
		return false
	}
	_, ok := s.byName[k.Name()]
	return ok
}

// ContainsName reports whether a key with the given name is in the set.
func (s *KeySet) ContainsName(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Len returns the number of keys in the set.
func (s *KeySet) Len() int { return len(s.byName) }

// Union returns a new set holding the keys of both sets.
func (s *KeySet) Union(other *KeySet) *KeySet {
	out := NewKeySet(s.Keys()...)
	if other != nil {
		for _, k := range other.Keys() {
			out.Add(k)
		}
	}
	return out
}

// Names returns the key names in canonical order.
func (s *KeySet) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keys returns the keys in canonical order.
func (s *KeySet) Keys() []Key {
	names := s.Names()
	out := make([]Key, len(names))
	for i, name := range names {
		out[i] = s.byName[name]
	}
	return out
}
