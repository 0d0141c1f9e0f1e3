package engine

import "testing"

func TestEvalContext_SetAndGet(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "log_level", "log verbosity", StageBoth, "info", StringDescriptor())
	ctx := NewEvalContext()

	if _, ok := Get(ctx, k); ok {
		t.Error("Expected unset key to report no value")
	}

	if err := Set(ctx, k, "debug"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	v, ok := Get(ctx, k)
	if !ok {
		t.Fatal("Expected value after set")
	}
	if v != "debug" {
		t.Errorf("Expected debug, got %s", v)
	}

	src, ok := ctx.Source(k)
	if !ok || src != SourceFlag {
		t.Errorf("Expected flag provenance, got %s", src)
	}
}

func TestEvalContext_WriteOnce(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "port", "listen port", StageConfigure, 8080, IntDescriptor())
	ctx := NewEvalContext()

	if err := Set(ctx, k, 9090); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	err := Set(ctx, k, 7070)
	if err == nil {
		t.Fatal("Expected error on second explicit write, got nil")
	}
	if !IsCode(err, ErrCodeAlreadyExists) {
		t.Errorf("Expected ALREADY_EXISTS code, got: %v", err)
	}

	// The first write stands.
	v, _ := Get(ctx, k)
	if v != 9090 {
		t.Errorf("Expected 9090 to survive, got %d", v)
	}
}

func TestEvalContext_FillNeverOverwrites(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "port", "listen port", StageConfigure, 8080, IntDescriptor())
	ctx := NewEvalContext()

	if err := Set(ctx, k, 9090); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	k.FillDefault(ctx)

	v, _ := Get(ctx, k)
	if v != 9090 {
		t.Errorf("Expected explicit value to survive default fill, got %d", v)
	}
	src, _ := ctx.Source(k)
	if src != SourceFlag {
		t.Errorf("Expected flag provenance to survive, got %s", src)
	}
}

func TestEvalContext_FillDefaultProvenance(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "port", "listen port", StageConfigure, 8080, IntDescriptor())
	ctx := NewEvalContext()

	k.FillDefault(ctx)
	k.FillDefault(ctx)

	if ctx.Len() != 1 {
		t.Errorf("Expected 1 cell, got %d", ctx.Len())
	}
	v, ok := Get(ctx, k)
	if !ok || v != 8080 {
		t.Errorf("Expected default 8080, got %d", v)
	}
	src, _ := ctx.Source(k)
	if src != SourceDefault {
		t.Errorf("Expected default provenance, got %s", src)
	}
}

func TestEvalContext_Names(t *testing.T) {
	r := NewRegistry()
	b, _ := NewKey(r, "b", "b", StageBoth, "", StringDescriptor())
	a, _ := NewKey(r, "a", "a", StageBoth, "", StringDescriptor())
	ctx := NewEvalContext()

	_ = Set(ctx, b, "1")
	_ = Set(ctx, a, "2")

	names := ctx.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Expected canonical [a b], got %v", names)
	}
}
