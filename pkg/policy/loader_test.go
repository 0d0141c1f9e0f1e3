package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const validRego = `package functoria

import rego.v1

deny contains violation if {
	input.app.name == "forbidden"
	violation := {
		"policy": "no-forbidden-app",
		"message": "this application name is blocked",
	}
}
`

func writePolicy(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoader_LoadFile(t *testing.T) {
	path := writePolicy(t, t.TempDir(), "no-forbidden-app.rego", validRego)

	policies, err := NewLoader(nil).LoadFromPaths(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("LoadFromPaths failed: %v", err)
	}

	if len(policies) != 1 {
		t.Fatalf("Expected 1 policy, got %d", len(policies))
	}
	p := policies[0]
	if p.Name != "no-forbidden-app" {
		t.Fatalf("Expected name from file stem, got %s", p.Name)
	}
	if p.Source != path {
		t.Fatalf("Expected source %s, got %s", path, p.Source)
	}
}

func TestLoader_WalksDirectories(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "a.rego", validRego)

	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	writePolicy(t, sub, "b.rego", validRego)
	writePolicy(t, dir, "notes.txt", "not a policy")

	policies, err := NewLoader(nil).LoadFromPaths(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("LoadFromPaths failed: %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("Expected 2 policies, got %d", len(policies))
	}
}

func TestLoader_RejectsWrongPackage(t *testing.T) {
	path := writePolicy(t, t.TempDir(), "wrong.rego", "package other\n\nimport rego.v1\n\ndeny contains \"x\" if { true }\n")

	if _, err := NewLoader(nil).LoadFromPaths(context.Background(), []string{path}); err == nil {
		t.Fatal("Expected a module outside package functoria to be rejected")
	}
}

func TestLoader_RejectsUnparsableModule(t *testing.T) {
	path := writePolicy(t, t.TempDir(), "broken.rego", "package functoria\n\ndeny [")

	if _, err := NewLoader(nil).LoadFromPaths(context.Background(), []string{path}); err == nil {
		t.Fatal("Expected a syntax error to be surfaced")
	}
}

func TestLoader_MissingPath(t *testing.T) {
	if _, err := NewLoader(nil).LoadFromPaths(context.Background(), []string{"/nonexistent/policies"}); err == nil {
		t.Fatal("Expected a missing path to fail")
	}
}
