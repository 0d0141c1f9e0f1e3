package policy

import (
	"context"
	"testing"
)

func cleanInput() *Input {
	return &Input{
		App: AppInput{Name: "hello", Version: "1.0.0"},
		Keys: []KeyInput{
			{Name: "port", Stage: "run", Value: "8080", Source: "default"},
			{Name: "log_level", Stage: "both", Value: "info", Source: "flag"},
		},
		Components: []ComponentInput{
			{Name: "console", Type: "console"},
			{Name: "web", Constructor: "NewWeb", Import: "example.com/web"},
		},
		Graph: GraphInput{Nodes: 3},
	}
}

func TestEngine_AllowsCleanInput(t *testing.T) {
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	result, err := eng.Evaluate(context.Background(), cleanInput())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if !result.Allowed {
		t.Fatalf("Expected a clean input to be allowed, got violations %+v", result.Violations)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("Expected no warnings, got %+v", result.Warnings)
	}
	if len(result.Policies) != 1 || result.Policies[0] != "functoria-builtin" {
		t.Fatalf("Expected only the builtin policy, got %v", result.Policies)
	}
}

func TestEngine_DeniesReservedKeyName(t *testing.T) {
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	input := cleanInput()
	input.Keys = append(input.Keys, KeyInput{Name: "help", Stage: "both", Value: "x", Source: "default"})

	result, err := eng.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Allowed {
		t.Fatal("Expected a reserved key name to be denied")
	}
	if len(result.Violations) != 1 {
		t.Fatalf("Expected 1 violation, got %+v", result.Violations)
	}
	v := result.Violations[0]
	if v.Policy != "reserved-key-name" || v.Rule != "deny" || v.Severity != SeverityDeny {
		t.Fatalf("Unexpected violation: %+v", v)
	}
}

func TestEngine_DeniesEmptyGraph(t *testing.T) {
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	input := cleanInput()
	input.Graph.Nodes = 0

	result, err := eng.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Allowed {
		t.Fatal("Expected an empty graph to be denied")
	}
	if result.Violations[0].Policy != "empty-graph" {
		t.Fatalf("Expected empty-graph, got %+v", result.Violations)
	}
}

func TestEngine_WarnsWithoutBlocking(t *testing.T) {
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	input := cleanInput()
	input.Graph.Nodes = 150
	input.Keys = append(input.Keys, KeyInput{Name: "kv_path", Stage: "run", Value: "", Source: "default"})

	result, err := eng.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if !result.Allowed {
		t.Fatalf("Expected warnings not to block, got violations %+v", result.Violations)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("Expected 2 warnings, got %+v", result.Warnings)
	}
	names := map[string]bool{}
	for _, w := range result.Warnings {
		if w.Severity != SeverityWarn || w.Rule != "warn" {
			t.Fatalf("Unexpected warning classification: %+v", w)
		}
		names[w.Policy] = true
	}
	if !names["large-graph"] || !names["empty-runtime-default"] {
		t.Fatalf("Expected large-graph and empty-runtime-default, got %+v", result.Warnings)
	}
}

func TestEngine_ProjectPolicy(t *testing.T) {
	extra := Policy{
		Name:   "no-debug-logging",
		Source: "no-debug-logging.rego",
		Rego: `package functoria

import rego.v1

deny contains violation if {
	some key in input.keys
	key.name == "log_level"
	key.value == "debug"
	violation := {
		"policy": "no-debug-logging",
		"message": "debug logging is not allowed here",
	}
}
`,
	}

	eng, err := NewEngine(nil, extra)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	input := cleanInput()
	input.Keys[1].Value = "debug"

	result, err := eng.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Allowed {
		t.Fatal("Expected the project policy to deny")
	}
	if result.Violations[0].Policy != "no-debug-logging" {
		t.Fatalf("Expected no-debug-logging, got %+v", result.Violations)
	}
	if len(result.Policies) != 2 {
		t.Fatalf("Expected 2 evaluated modules, got %v", result.Policies)
	}
}

func TestEngine_AddPoliciesRollsBackOnBadModule(t *testing.T) {
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	bad := Policy{Name: "broken", Rego: "package functoria\n\ndeny[", Source: "broken.rego"}
	if err := eng.AddPolicies(context.Background(), bad); err == nil {
		t.Fatal("Expected a broken module to be rejected")
	}

	// The engine must still evaluate with what it had.
	if _, err := eng.Evaluate(context.Background(), cleanInput()); err != nil {
		t.Fatalf("Evaluate after rejected module failed: %v", err)
	}
	if len(eng.Policies()) != 1 {
		t.Fatalf("Expected the broken module to be rolled back, got %v", eng.Policies())
	}
}
