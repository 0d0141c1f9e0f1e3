package engine

import (
	"fmt"
	"testing"
)

func TestExpr_PureHasNoDeps(t *testing.T) {
	e := Pure(42)

	if e.Deps().Len() != 0 {
		t.Errorf("Expected no dependencies, got %d", e.Deps().Len())
	}

	v, ok := e.Peek(NewEvalContext())
	if !ok || v != 42 {
		t.Errorf("Expected peek 42, got %d (%v)", v, ok)
	}

	v, err := e.Eval(NewEvalContext())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != 42 {
		t.Errorf("Expected eval 42, got %d", v)
	}
}

func TestExpr_ValueDependsOnKey(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "log_level", "log verbosity", StageBoth, "info", StringDescriptor())

	e := Value(k)
	if e.Deps().Len() != 1 || !e.Deps().ContainsName("log_level") {
		t.Errorf("Expected dependency on log_level, got %v", e.Deps().Names())
	}
}

func TestExpr_ApplyUnionsDeps(t *testing.T) {
	r := NewRegistry()
	host, _ := NewKey(r, "host", "bind host", StageBoth, "localhost", StringDescriptor())
	port, _ := NewKey(r, "port", "bind port", StageBoth, 8080, IntDescriptor())

	join := Map(func(h string) func(int) string {
		return func(p int) string { return fmt.Sprintf("%s:%d", h, p) }
	}, Value(host))
	addr := Apply(join, Value(port))

	deps := addr.Deps()
	if deps.Len() != 2 {
		t.Fatalf("Expected 2 dependencies, got %d", deps.Len())
	}
	names := deps.Names()
	if names[0] != "host" || names[1] != "port" {
		t.Errorf("Expected [host port], got %v", names)
	}

	// Dependency sets are structural: nothing was evaluated yet, and
	// repeated queries agree.
	if addr.Deps().Len() != 2 {
		t.Errorf("Expected memoized deps to agree, got %d", addr.Deps().Len())
	}

	ctx := NewEvalContext()
	_ = Set(ctx, host, "example.net")
	_ = Set(ctx, port, 443)

	v, err := addr.Eval(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != "example.net:443" {
		t.Errorf("Expected example.net:443, got %s", v)
	}
}

func TestExpr_PeekStopsAtUnsetKey(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "port", "bind port", StageBoth, 8080, IntDescriptor())

	doubled := Map(func(p int) int { return p * 2 }, Value(k))
	ctx := NewEvalContext()

	if _, ok := doubled.Peek(ctx); ok {
		t.Error("Expected peek to fail with the key unset")
	}

	_ = Set(ctx, k, 21)
	v, ok := doubled.Peek(ctx)
	if !ok {
		t.Fatal("Expected peek to succeed after set")
	}
	if v != 42 {
		t.Errorf("Expected 42, got %d", v)
	}
}

func TestExpr_PeekNeverFillsDefaults(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "port", "bind port", StageBoth, 8080, IntDescriptor())

	ctx := NewEvalContext()
	if _, ok := Value(k).Peek(ctx); ok {
		t.Error("Expected peek to ignore the key's default")
	}
	if ctx.Len() != 0 {
		t.Errorf("Expected peek to leave the context untouched, got %d cells", ctx.Len())
	}
}

func TestExpr_EvalUnresolvedKeyIsInvariantViolation(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "port", "bind port", StageBoth, 8080, IntDescriptor())

	_, err := Value(k).Eval(NewEvalContext())
	if err == nil {
		t.Fatal("Expected error for unresolved key, got nil")
	}
	if !IsInternal(err) {
		t.Error("Expected internal-class error for unresolved key")
	}
	if !IsCode(err, ErrCodeUnresolvedKey) {
		t.Errorf("Expected UNRESOLVED_KEY code, got: %v", err)
	}
	if KeyName(err) != "port" {
		t.Errorf("Expected error to name key port, got %q", KeyName(err))
	}
}

func TestExpr_EvalAbortsOnFirstUnresolved(t *testing.T) {
	r := NewRegistry()
	a, _ := NewKey(r, "a", "a", StageBoth, 1, IntDescriptor())
	b, _ := NewKey(r, "b", "b", StageBoth, 2, IntDescriptor())

	sum := Apply(Map(func(x int) func(int) int {
		return func(y int) int { return x + y }
	}, Value(a)), Value(b))

	ctx := NewEvalContext()
	_ = Set(ctx, a, 10)

	_, err := sum.Eval(ctx)
	if err == nil {
		t.Fatal("Expected error with b unresolved, got nil")
	}
	if KeyName(err) != "b" {
		t.Errorf("Expected error to name key b, got %q", KeyName(err))
	}

	_ = Set(ctx, b, 32)
	v, err := sum.Eval(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != 42 {
		t.Errorf("Expected 42, got %d", v)
	}
}

func TestExpr_AnyExprView(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "name", "app name", StageBoth, "app", StringDescriptor())

	var any AnyExpr = Map(func(s string) string { return "hello " + s }, Value(k))

	if any.Deps().Len() != 1 {
		t.Errorf("Expected 1 dependency, got %d", any.Deps().Len())
	}

	ctx := NewEvalContext()
	if _, ok := any.PeekAny(ctx); ok {
		t.Error("Expected PeekAny to fail with the key unset")
	}

	k.FillDefault(ctx)
	v, err := any.EvalAny(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != "hello app" {
		t.Errorf("Expected hello app, got %v", v)
	}
}
