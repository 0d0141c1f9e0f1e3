package engine

import (
	"fmt"
	"sort"
)

// cell is one resolved key value and its provenance.
type cell struct {
	value  interface{}
	source ValueSource
}

// EvalContext is the mutable store of resolved key values for one
// evaluation pass. Cells are written exactly once per pass, either by
// flag binding (SourceFlag) or by default filling (SourceDefault), and
// read many times afterwards. A context is owned by a single pass and
// must not be shared across passes.
type EvalContext struct {
	cells map[string]cell
}

// NewEvalContext creates an empty evaluation context.
func NewEvalContext() *EvalContext {
	return &EvalContext{cells: make(map[string]cell)}
}

// Set writes an explicitly supplied value for key. A second explicit
// write to the same key fails: cells are written once per pass.
func Set[T any](ctx *EvalContext, key *TypedKey[T], v T) error {
	return ctx.set(key.Name(), v, SourceFlag)
}

// Get returns the resolved value for key, if its cell is set.
func Get[T any](ctx *EvalContext, key *TypedKey[T]) (T, bool) {
	var zero T
	raw, ok := ctx.lookup(key.Name())
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// IsSet reports whether the key's cell is populated.
func (c *EvalContext) IsSet(k Key) bool {
	_, ok := c.cells[k.Name()]
	return ok
}

// Source returns how the key's cell was populated.
func (c *EvalContext) Source(k Key) (ValueSource, bool) {
	cl, ok := c.cells[k.Name()]
	if !ok {
		return "", false
	}
	return cl.source, true
}

// Names returns the populated key names in canonical order.
func (c *EvalContext) Names() []string {
	names := make([]string, 0, len(c.cells))
	for name := range c.cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of populated cells.
func (c *EvalContext) Len() int { return len(c.cells) }

// set writes a cell, enforcing the write-once rule for explicit values.
func (c *EvalContext) set(name string, v interface{}, source ValueSource) error {
	if _, exists := c.cells[name]; exists {
		return NewInternalError(fmt.Sprintf("key %q is already resolved for this pass", name), nil).
			WithCode(ErrCodeAlreadyExists).
			WithKey(name)
	}
	c.cells[name] = cell{value: v, source: source}
	return nil
}

// fill writes a default value unless the cell is already set. Default
// filling never overwrites an explicit value.
func (c *EvalContext) fill(name string, v interface{}) {
	if _, exists := c.cells[name]; exists {
		return
	}
	c.cells[name] = cell{value: v, source: SourceDefault}
}

// lookup returns the raw cell value for a key name.
func (c *EvalContext) lookup(name string) (interface{}, bool) {
	cl, ok := c.cells[name]
	if !ok {
		return nil, false
	}
	return cl.value, true
}
