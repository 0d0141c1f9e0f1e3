package engine

import (
	"testing"
)

func TestNewKey_RegistersKey(t *testing.T) {
	r := NewRegistry()

	k, err := NewKey(r, "log_level", "log verbosity", StageBoth, "info", StringDescriptor())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if k.Name() != "log_level" {
		t.Errorf("Expected name log_level, got %s", k.Name())
	}
	if k.Stage() != StageBoth {
		t.Errorf("Expected stage both, got %s", k.Stage())
	}
	if k.Default() != "info" {
		t.Errorf("Expected default info, got %s", k.Default())
	}
	if k.DefaultPrint() != "info" {
		t.Errorf("Expected default print info, got %s", k.DefaultPrint())
	}

	if r.Len() != 1 {
		t.Errorf("Expected 1 registered key, got %d", r.Len())
	}
	got, ok := r.Lookup("log_level")
	if !ok {
		t.Fatal("Expected lookup to find log_level")
	}
	if got.Name() != "log_level" {
		t.Errorf("Expected looked-up key log_level, got %s", got.Name())
	}
}

func TestNewKey_DuplicateName(t *testing.T) {
	r := NewRegistry()

	if _, err := NewKey(r, "port", "listen port", StageConfigure, 8080, IntDescriptor()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err := NewKey(r, "port", "another port", StageRun, 9090, IntDescriptor())
	if err == nil {
		t.Fatal("Expected error for duplicate key name, got nil")
	}
	if !IsConfig(err) {
		t.Error("Expected config-class error for duplicate key name")
	}
	if !IsCode(err, ErrCodeDuplicateKey) {
		t.Errorf("Expected DUPLICATE_KEY code, got: %v", err)
	}
	if KeyName(err) != "port" {
		t.Errorf("Expected error to name key port, got %q", KeyName(err))
	}

	// The first registration is untouched.
	if r.Len() != 1 {
		t.Errorf("Expected 1 registered key, got %d", r.Len())
	}
}

func TestNewKey_SameNameDifferentType(t *testing.T) {
	r := NewRegistry()

	if _, err := NewKey(r, "verbose", "verbosity", StageBoth, true, BoolDescriptor()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err := NewKey(r, "verbose", "verbosity", StageBoth, "yes", StringDescriptor())
	if err == nil {
		t.Fatal("Expected error for duplicate name across types, got nil")
	}
	if !IsCode(err, ErrCodeDuplicateKey) {
		t.Errorf("Expected DUPLICATE_KEY code, got: %v", err)
	}
}

func TestNewKey_EmptyName(t *testing.T) {
	r := NewRegistry()

	_, err := NewKey(r, "", "nameless", StageBoth, "", StringDescriptor())
	if err == nil {
		t.Fatal("Expected error for empty key name, got nil")
	}
}

func TestNewKeyRaw_InvalidStage(t *testing.T) {
	r := NewRegistry()

	_, err := NewKeyRaw(r, Doc{Help: "bad"}, Stage("sometimes"), 0, "bad_stage", IntDescriptor())
	if err == nil {
		t.Fatal("Expected error for invalid stage, got nil")
	}
	if !IsConfig(err) {
		t.Error("Expected config-class error for invalid stage")
	}
}

func TestRegistry_Keys_CanonicalOrder(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := NewKey(r, name, name, StageConfigure, "", StringDescriptor()); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	keys := r.Keys()
	want := []string{"alpha", "mid", "zeta"}
	if len(keys) != len(want) {
		t.Fatalf("Expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range keys {
		if k.Name() != want[i] {
			t.Errorf("Expected key %d to be %s, got %s", i, want[i], k.Name())
		}
	}
}

func TestRegistry_IndependentSessions(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()

	if r1.ID() == r2.ID() {
		t.Error("Expected distinct session identifiers")
	}

	if _, err := NewKey(r1, "shared", "first session", StageBoth, "", StringDescriptor()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := NewKey(r2, "shared", "second session", StageBoth, "", StringDescriptor()); err != nil {
		t.Errorf("Expected sessions to hold independent namespaces, got: %v", err)
	}
}

func TestKey_ValueThroughContext(t *testing.T) {
	r := NewRegistry()
	k, err := NewKey(r, "port", "listen port", StageConfigure, 8080, IntDescriptor())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ctx := NewEvalContext()
	if _, err := k.PrintValue(ctx); err == nil {
		t.Fatal("Expected error printing an unresolved key, got nil")
	}

	k.FillDefault(ctx)
	printed, err := k.PrintValue(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if printed != "8080" {
		t.Errorf("Expected printed 8080, got %s", printed)
	}

	serialized, err := k.SerializeValue(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if serialized != "8080" {
		t.Errorf("Expected serialized 8080, got %s", serialized)
	}
}

func TestKey_UnresolvedIsInternal(t *testing.T) {
	r := NewRegistry()
	k, err := NewKey(r, "port", "listen port", StageConfigure, 8080, IntDescriptor())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err = k.SerializeValue(NewEvalContext())
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
