package engine

// Key is the untyped view of a typed key. Graph nodes, key sets, flag
// binding, and source generation work over this interface; typed access
// goes through TypedKey and the generic context helpers.
//
// Identity is by name: implementations with equal names denote the same
// key.
type Key interface {
	// Name returns the unique key name.
	Name() string

	// Stage returns when the key's value is required.
	Stage() Stage

	// Doc returns the key's presentation metadata.
	Doc() Doc

	// TypeDescription returns the descriptor's description of the
	// value type.
	TypeDescription() string

	// DefaultPrint returns display text for the default value.
	DefaultPrint() string

	// ParseRaw parses raw input with the key's descriptor, returning a
	// value of the key's value type. The error carries the descriptor's
	// message for malformed input.
	ParseRaw(raw string) (interface{}, error)

	// FillDefault writes the default value into ctx unless the key's
	// cell is already set.
	FillDefault(ctx *EvalContext)

	// PrintValue returns display text for the key's resolved value.
	PrintValue(ctx *EvalContext) (string, error)

	// SerializeValue returns Go source text reconstructing the key's
	// resolved value.
	SerializeValue(ctx *EvalContext) (string, error)
}

// AnyExpr is the untyped view of a value expression. Graph nodes hold
// heterogeneous expressions through this interface.
type AnyExpr interface {
	// Deps returns the set of all keys the expression references.
	Deps() *KeySet

	// PeekAny attempts evaluation without forcing defaults; it returns
	// false as soon as any reachable key's cell is unset.
	PeekAny(ctx *EvalContext) (interface{}, bool)

	// EvalAny evaluates unconditionally; every reachable key must have
	// a resolved cell.
	EvalAny(ctx *EvalContext) (interface{}, error)
}
