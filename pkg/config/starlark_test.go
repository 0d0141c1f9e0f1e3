package config

import (
	"context"
	"testing"
	"time"
)

func TestStarlarkEvaluator_Expressions(t *testing.T) {
	se := NewStarlarkEvaluator(5 * time.Second)
	ctx := context.Background()

	cases := []struct {
		name  string
		expr  string
		input map[string]interface{}
		want  interface{}
	}{
		{
			name: "arithmetic over inputs",
			expr: "workers * 32",
			input: map[string]interface{}{
				"workers": 4,
			},
			want: int64(128),
		},
		{
			name: "string concatenation",
			expr: `prefix + "-suffix"`,
			input: map[string]interface{}{
				"prefix": "name",
			},
			want: "name-suffix",
		},
		{
			name: "conditional expression",
			expr: `"debug" if verbose else "info"`,
			input: map[string]interface{}{
				"verbose": true,
			},
			want: "debug",
		},
		{
			name:  "boolean literal",
			expr:  "1 < 2",
			input: nil,
			want:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := se.Evaluate(ctx, tc.expr, tc.input)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if result.Value != tc.want {
				t.Fatalf("Expected %v (%T), got %v (%T)", tc.want, tc.want, result.Value, result.Value)
			}
		})
	}
}

func TestStarlarkEvaluator_ListResult(t *testing.T) {
	se := NewStarlarkEvaluator(5 * time.Second)

	result, err := se.Evaluate(context.Background(), "[f + \".go\" for f in files]", map[string]interface{}{
		"files": []string{"main", "util"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	list, ok := result.Value.([]interface{})
	if !ok {
		t.Fatalf("Expected a list result, got %T", result.Value)
	}
	if len(list) != 2 || list[0] != "main.go" || list[1] != "util.go" {
		t.Fatalf("Expected [main.go util.go], got %v", list)
	}
}

func TestStarlarkEvaluator_EnvBuiltin(t *testing.T) {
	se := NewStarlarkEvaluator(5 * time.Second)

	t.Setenv("FUNCTORIA_TEST_LEVEL", "warn")

	result, err := se.Evaluate(context.Background(), `env("FUNCTORIA_TEST_LEVEL", "info")`, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Value != "warn" {
		t.Fatalf("Expected warn, got %v", result.Value)
	}

	result, err = se.Evaluate(context.Background(), `env("FUNCTORIA_TEST_MISSING", "fallback")`, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Value != "fallback" {
		t.Fatalf("Expected fallback, got %v", result.Value)
	}
}

func TestStarlarkEvaluator_EvaluationError(t *testing.T) {
	se := NewStarlarkEvaluator(5 * time.Second)

	result, err := se.Evaluate(context.Background(), "undefined_name + 1", nil)
	if err == nil {
		t.Fatal("Expected evaluation of an undefined name to fail")
	}
	if result == nil || result.Error == "" {
		t.Fatal("Expected the result to carry the error text")
	}
}

func TestStarlarkEvaluator_Timeout(t *testing.T) {
	se := NewStarlarkEvaluator(50 * time.Millisecond)

	// A list comprehension large enough to outlive the timeout.
	_, err := se.Evaluate(context.Background(),
		"len([x * y for x in range(2000) for y in range(2000)])", nil)
	if err == nil {
		t.Fatal("Expected evaluation to time out")
	}
}

func TestStarlarkEvaluator_StatementsRejected(t *testing.T) {
	se := NewStarlarkEvaluator(5 * time.Second)

	// Only single expressions are accepted; definitions are not.
	if _, err := se.Evaluate(context.Background(), "def f():\n  return 1", nil); err == nil {
		t.Fatal("Expected a statement to be rejected")
	}
}
