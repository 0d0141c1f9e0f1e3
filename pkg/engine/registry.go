package engine

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Registry is the key store for one configuration-build session. Keys
// are registered at creation and live for the session's duration. There
// is deliberately no process-wide registry: independent sessions hold
// independent namespaces, so tests and concurrent builds cannot leak
// keys into each other.
type Registry struct {
	id   string
	keys map[string]Key
}

// NewRegistry creates an empty key registry for a new session.
func NewRegistry() *Registry {
	return &Registry{
		id:   uuid.New().String(),
		keys: make(map[string]Key),
	}
}

// ID returns the session identifier.
func (r *Registry) ID() string { return r.id }

// Len returns the number of registered keys.
func (r *Registry) Len() int { return len(r.keys) }

// Lookup returns the key registered under name.
func (r *Registry) Lookup(name string) (Key, bool) {
	k, ok := r.keys[name]
	return k, ok
}

// Keys returns all registered keys in canonical (name) order.
func (r *Registry) Keys() []Key {
	names := make([]string, 0, len(r.keys))
	for name := range r.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Key, len(names))
	for i, name := range names {
		out[i] = r.keys[name]
	}
	return out
}

// KeySet returns the set of all registered keys.
func (r *Registry) KeySet() *KeySet {
	return NewKeySet(r.Keys()...)
}

// register adds a key, failing when the name is taken.
func (r *Registry) register(k Key) error {
	if k.Name() == "" {
		return NewConfigError("key name must not be empty", nil).
			WithCode(ErrCodeValidation)
	}
	if _, exists := r.keys[k.Name()]; exists {
		return NewConfigError(fmt.Sprintf("key %q is already registered", k.Name()), nil).
			WithCode(ErrCodeDuplicateKey).
			WithKey(k.Name())
	}
	r.keys[k.Name()] = k
	return nil
}

// NewKey creates and registers a key, building its Doc from the help
// text alone. Creation fails with a DUPLICATE_KEY error when name
// collides with a previously registered key; the two are never silently
// aliased.
func NewKey[T any](r *Registry, name, help string, stage Stage, def T, desc Descriptor[T]) (*TypedKey[T], error) {
	return NewKeyRaw(r, Doc{Help: help}, stage, def, name, desc)
}

// NewKeyRaw creates and registers a key with a fully built Doc.
func NewKeyRaw[T any](r *Registry, doc Doc, stage Stage, def T, name string, desc Descriptor[T]) (*TypedKey[T], error) {
	if err := stage.Validate(); err != nil {
		return nil, NewConfigError("invalid key stage", err).
			WithCode(ErrCodeValidation).
			WithKey(name)
	}
	k := &TypedKey[T]{
		name:  name,
		stage: stage,
		def:   def,
		doc:   doc,
		desc:  desc,
	}
	if err := r.register(k); err != nil {
		return nil, err
	}
	return k, nil
}
