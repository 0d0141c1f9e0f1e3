package engine

import (
	"strings"
	"testing"
)

func TestDescribeKey_Markers(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "log_level", "log verbosity", StageBoth, "info", StringDescriptor())

	// Unset: the default shows, marked unset.
	line := DescribeKey(k, NewEvalContext())
	if !strings.Contains(line, "log_level=info (unset)") {
		t.Errorf("Expected unset marker, got %q", line)
	}

	// Default-filled: marked so the reader can tell it from user input.
	ctx := NewEvalContext()
	k.FillDefault(ctx)
	line = DescribeKey(k, ctx)
	if !strings.Contains(line, "log_level=info (default)") {
		t.Errorf("Expected default marker, got %q", line)
	}

	// Explicitly set: no marker.
	ctx = NewEvalContext()
	_ = Set(ctx, k, "debug")
	line = DescribeKey(k, ctx)
	if !strings.Contains(line, "log_level=debug") {
		t.Errorf("Expected explicit value, got %q", line)
	}
	if strings.Contains(line, "(default)") || strings.Contains(line, "(unset)") {
		t.Errorf("Expected no marker for explicit value, got %q", line)
	}
}

func TestDescribeKey_NilContext(t *testing.T) {
	r := NewRegistry()
	k, _ := NewKey(r, "port", "listen port", StageConfigure, 8080, IntDescriptor())

	line := DescribeKey(k, nil)
	if !strings.Contains(line, "port=8080 (unset)") {
		t.Errorf("Expected default with unset marker, got %q", line)
	}
	if !strings.Contains(line, "[configure]") {
		t.Errorf("Expected stage tag, got %q", line)
	}
}

func TestEmitDoc(t *testing.T) {
	r := NewRegistry()
	k, err := NewKeyRaw(r, Doc{
		Help:        "log verbosity",
		Placeholder: "LEVEL",
		Section:     "Logging",
		Aliases:     []string{"verbosity"},
	}, StageBoth, "info", "log_level", StringDescriptor())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var b strings.Builder
	EmitDoc(&b, k)
	out := b.String()

	if !strings.Contains(out, "LOGGING") {
		t.Errorf("Expected section heading, got:\n%s", out)
	}
	if !strings.Contains(out, "--log_level, --verbosity=LEVEL") {
		t.Errorf("Expected flag synopsis with alias, got:\n%s", out)
	}
	if !strings.Contains(out, "Default: info.") {
		t.Errorf("Expected default in doc block, got:\n%s", out)
	}
	if !strings.Contains(out, "Stage: both.") {
		t.Errorf("Expected stage in doc block, got:\n%s", out)
	}
}
