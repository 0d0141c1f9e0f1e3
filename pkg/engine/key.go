package engine

import "fmt"

// Doc holds the command-line presentation metadata for a key. It is
// immutable and convertible both to a flag registration and to
// documentation text.
type Doc struct {
	// Help is the one-line help text shown in usage output.
	Help string `json:"help"`

	// Placeholder is the value-placeholder name shown in usage output
	// (for example PORT in --port=PORT).
	Placeholder string `json:"placeholder,omitempty"`

	// Section is the documentation section heading the key is listed
	// under.
	Section string `json:"section,omitempty"`

	// Aliases are alternate flag names accepted for the key.
	Aliases []string `json:"aliases,omitempty"`
}

// TypedKey is a uniquely named, staged, typed setting with a default
// value. Identity and equality are defined solely by name: two handles
// with the same name denote the same key. A key is never mutated after
// creation; its resolved value lives in the EvalContext for the pass,
// not in the key.
type TypedKey[T any] struct {
	name  string
	stage Stage
	def   T
	doc   Doc
	desc  Descriptor[T]
}

// Name returns the unique key name.
func (k *TypedKey[T]) Name() string { return k.name }

// Stage returns when the key's value is required.
func (k *TypedKey[T]) Stage() Stage { return k.stage }

// Doc returns the key's presentation metadata.
func (k *TypedKey[T]) Doc() Doc { return k.doc }

// Default returns the key's default value.
func (k *TypedKey[T]) Default() T { return k.def }

// Descriptor returns the key's value-type descriptor.
func (k *TypedKey[T]) Descriptor() Descriptor[T] { return k.desc }

// TypeDescription returns the descriptor's description of the value type.
func (k *TypedKey[T]) TypeDescription() string { return k.desc.Description() }

// DefaultPrint returns display text for the default value.
func (k *TypedKey[T]) DefaultPrint() string { return k.desc.Print(k.def) }

// ParseRaw parses raw input with the key's descriptor. The returned
// value has the key's value type.
func (k *TypedKey[T]) ParseRaw(raw string) (interface{}, error) {
	v, err := k.desc.Parse(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// FillDefault writes the default value into ctx unless the key's cell is
// already set.
func (k *TypedKey[T]) FillDefault(ctx *EvalContext) {
	ctx.fill(k.name, k.def)
}

// PrintValue returns display text for the key's resolved value in ctx.
func (k *TypedKey[T]) PrintValue(ctx *EvalContext) (string, error) {
	v, err := k.resolved(ctx)
	if err != nil {
		return "", err
	}
	return k.desc.Print(v), nil
}

// SerializeValue returns Go source text reconstructing the key's
// resolved value in ctx.
func (k *TypedKey[T]) SerializeValue(ctx *EvalContext) (string, error) {
	v, err := k.resolved(ctx)
	if err != nil {
		return "", err
	}
	return k.desc.Serialize(v), nil
}

func (k *TypedKey[T]) resolved(ctx *EvalContext) (T, error) {
	var zero T
	raw, ok := ctx.lookup(k.name)
	if !ok {
		return zero, NewInternalError("key has no resolved cell", nil).
			WithCode(ErrCodeUnresolvedKey).
			WithKey(k.name)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, NewInternalError(fmt.Sprintf("cell holds %T, not the key's value type", raw), nil).
			WithCode(ErrCodeInternal).
			WithKey(k.name)
	}
	return v, nil
}
