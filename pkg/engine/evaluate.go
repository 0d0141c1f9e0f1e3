package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ResolvedKey is one key's outcome in a Resolution: the printed value
// and whether it came from a flag or from the key's default.
type ResolvedKey struct {
	// Name is the key name.
	Name string `json:"name" yaml:"name"`

	// Stage records when the value applies.
	Stage Stage `json:"stage" yaml:"stage"`

	// Value is the human-readable printed value.
	Value string `json:"value" yaml:"value"`

	// Source records where the value came from.
	Source ValueSource `json:"source" yaml:"source"`
}

// Resolution is the outcome of evaluating a graph against a context:
// the topological order that was used, every resolved key with its
// provenance, and, under partial evaluation, the keys still unset.
type Resolution struct {
	// ID uniquely identifies this evaluation.
	ID string `json:"id" yaml:"id"`

	// Mode is the evaluation mode that produced this resolution.
	Mode EvalMode `json:"mode" yaml:"mode"`

	// Order is the topological node order the evaluation walked.
	Order []NodeID `json:"order" yaml:"order"`

	// Keys lists every resolved key in canonical name order.
	Keys []ResolvedKey `json:"keys" yaml:"keys"`

	// Unresolved lists, in canonical name order, the keys that partial
	// evaluation could not resolve. Always empty under full evaluation.
	Unresolved []string `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`

	// Exprs counts the node expressions the walk evaluated (full mode)
	// or successfully peeked (partial mode).
	Exprs int `json:"exprs" yaml:"exprs"`
}

// Evaluate resolves the graph's keys against ctx and walks every node
// expression in topological order.
//
// Under EvalFull, every key missing from ctx is first filled from its
// default, then every expression is evaluated; an expression that still
// finds an unset key reports the key as an invariant violation and
// aborts. Under EvalPartial, nothing is filled in: expressions are
// peeked best-effort and keys without a value are listed in
// Resolution.Unresolved instead of failing.
func (g *Graph) Evaluate(ctx *EvalContext, mode EvalMode) (*Resolution, error) {
	if err := mode.Validate(); err != nil {
		return nil, NewUserError("invalid evaluation mode", err).
			WithCode(ErrCodeValidation)
	}
	if ctx == nil {
		ctx = NewEvalContext()
	}

	order, err := g.Toposort()
	if err != nil {
		return nil, err
	}

	keys := g.Keys()
	if mode == EvalFull {
		for _, k := range keys.Keys() {
			k.FillDefault(ctx)
		}
	}

	res := &Resolution{
		ID:    uuid.New().String(),
		Mode:  mode,
		Order: order,
	}

	for _, id := range order {
		n := g.nodes[id]
		if n.cfg == nil {
			continue
		}
		for _, ex := range n.cfg.Exprs {
			if mode == EvalPartial {
				if _, ok := ex.PeekAny(ctx); ok {
					res.Exprs++
				}
				continue
			}
			if _, err := ex.EvalAny(ctx); err != nil {
				var e *Error
				if errors.As(err, &e) {
					return nil, e.WithNodes(n.label)
				}
				return nil, NewInternalError(fmt.Sprintf("node %s: expression evaluation failed", n.label), err).
					WithNodes(n.label)
			}
			res.Exprs++
		}
	}

	for _, k := range keys.Keys() {
		if !ctx.IsSet(k) {
			res.Unresolved = append(res.Unresolved, k.Name())
			continue
		}
		printed, err := k.PrintValue(ctx)
		if err != nil {
			return nil, err
		}
		source, _ := ctx.Source(k)
		res.Keys = append(res.Keys, ResolvedKey{
			Name:   k.Name(),
			Stage:  k.Stage(),
			Value:  printed,
			Source: source,
		})
	}

	return res, nil
}

// Lookup returns the resolved entry for a key name.
func (r *Resolution) Lookup(name string) (ResolvedKey, bool) {
	for _, rk := range r.Keys {
		if rk.Name == name {
			return rk, true
		}
	}
	return ResolvedKey{}, false
}
