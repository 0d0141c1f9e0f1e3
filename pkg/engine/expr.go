package engine

import "fmt"

// exprNode is the untyped expression AST. Exactly three variants exist:
// constants, key references, and applications. The structural
// interpreter (depSet) and the evaluating interpreters (peek, eval) are
// defined over this form; the typed Expr facade only adds compile-time
// typing at the construction boundary.
type exprNode interface {
	depSet() *KeySet
	peek(ctx *EvalContext) (interface{}, bool)
	eval(ctx *EvalContext) (interface{}, error)
}

// constNode is a constant with no dependencies.
type constNode struct {
	v interface{}
}

func (n *constNode) depSet() *KeySet { return NewKeySet() }

func (n *constNode) peek(_ *EvalContext) (interface{}, bool) { return n.v, true }

func (n *constNode) eval(_ *EvalContext) (interface{}, error) { return n.v, nil }

// keyNode references exactly one key.
type keyNode struct {
	k Key
}

func (n *keyNode) depSet() *KeySet { return NewKeySet(n.k) }

func (n *keyNode) peek(ctx *EvalContext) (interface{}, bool) {
	return ctx.lookup(n.k.Name())
}

func (n *keyNode) eval(ctx *EvalContext) (interface{}, error) {
	v, ok := ctx.lookup(n.k.Name())
	if !ok {
		// Reaching an unset cell here means default filling was skipped
		// or the graph referenced a key outside its key set. Callers
		// abort the pass rather than substitute a value.
		return nil, NewInternalError("evaluation reached an unresolved key", nil).
			WithCode(ErrCodeUnresolvedKey).
			WithKey(n.k.Name())
	}
	return v, nil
}

// applyNode applies a function-valued expression to an argument
// expression. The call closure is captured with the concrete types at
// construction time, so application needs no reflection.
type applyNode struct {
	fn   exprNode
	arg  exprNode
	call func(f, x interface{}) interface{}

	// deps is memoized on first computation; the AST is immutable.
	deps *KeySet
}

func (n *applyNode) depSet() *KeySet {
	if n.deps == nil {
		n.deps = n.fn.depSet().Union(n.arg.depSet())
	}
	return n.deps
}

func (n *applyNode) peek(ctx *EvalContext) (interface{}, bool) {
	f, ok := n.fn.peek(ctx)
	if !ok {
		return nil, false
	}
	x, ok := n.arg.peek(ctx)
	if !ok {
		return nil, false
	}
	return n.call(f, x), true
}

func (n *applyNode) eval(ctx *EvalContext) (interface{}, error) {
	f, err := n.fn.eval(ctx)
	if err != nil {
		return nil, err
	}
	x, err := n.arg.eval(ctx)
	if err != nil {
		return nil, err
	}
	return n.call(f, x), nil
}

// Expr is a typed value expression over keys: a tree of constants, key
// references, and applications. Expressions are immutable once built;
// they are constructed once per configuration and evaluated many times.
//
// The dependency set of an expression is computable purely structurally,
// without evaluating anything. That is what allows the flag surface and
// the partial-evaluation check to be derived before any value is known.
type Expr[T any] struct {
	node exprNode
}

// Pure creates a constant expression with no dependencies.
func Pure[T any](v T) *Expr[T] {
	return &Expr[T]{node: &constNode{v: v}}
}

// Value creates an expression that resolves to the key's value. It
// depends on exactly that key.
func Value[T any](k *TypedKey[T]) *Expr[T] {
	return &Expr[T]{node: &keyNode{k: k}}
}

// Apply applies a function-valued expression to an argument expression.
// The result depends on the union of both children's dependencies.
func Apply[A, B any](f *Expr[func(A) B], x *Expr[A]) *Expr[B] {
	return &Expr[B]{node: &applyNode{
		fn:  f.node,
		arg: x.node,
		call: func(fv, xv interface{}) interface{} {
			return fv.(func(A) B)(xv.(A))
		},
	}}
}

// Map applies a plain function to an expression. Shorthand for
// Apply(Pure(f), x).
func Map[A, B any](f func(A) B, x *Expr[A]) *Expr[B] {
	return Apply(Pure(f), x)
}

// Deps returns the set of all keys the expression references. The
// result is memoized per application node.
func (e *Expr[T]) Deps() *KeySet {
	return e.node.depSet()
}

// Peek attempts evaluation without forcing anything: it returns false as
// soon as any reachable key's cell is unset. Peek never fills defaults,
// which is what makes it safe for checking whether a value is already
// fully known from explicitly supplied keys.
func (e *Expr[T]) Peek(ctx *EvalContext) (T, bool) {
	var zero T
	raw, ok := e.node.peek(ctx)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Eval evaluates unconditionally. Every reachable key must have a
// resolved cell; an unset cell is an internal invariant violation
// reported with the offending key's name.
func (e *Expr[T]) Eval(ctx *EvalContext) (T, error) {
	var zero T
	raw, err := e.node.eval(ctx)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, NewInternalError(fmt.Sprintf("expression produced %T, not the declared type", raw), nil).
			WithCode(ErrCodeInternal)
	}
	return v, nil
}

// PeekAny implements AnyExpr.
func (e *Expr[T]) PeekAny(ctx *EvalContext) (interface{}, bool) {
	return e.node.peek(ctx)
}

// EvalAny implements AnyExpr.
func (e *Expr[T]) EvalAny(ctx *EvalContext) (interface{}, error) {
	return e.node.eval(ctx)
}
