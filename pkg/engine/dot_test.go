package engine

import (
	"strings"
	"testing"
)

func TestGraph_DOT_ShapesAndEdgeStyles(t *testing.T) {
	r := NewRegistry()
	port, _ := NewKey(r, "port", "listen port", StageConfigure, 8080, IntDescriptor())

	g := NewGraph()
	console := g.AddVertex("console", "console.Default")
	server, _ := g.AddConfigurable(Configurable{
		Name: "server",
		Keys: NewKeySet(port),
	}, []NodeID{console}, nil)
	app, _ := g.AddApp(server, []NodeID{console})
	if err := g.AddDataDep(app, console); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	dot := g.DOT()

	if !strings.HasPrefix(dot, "digraph G {") {
		t.Errorf("Expected digraph header, got %q", dot[:20])
	}
	if !strings.Contains(dot, `n0 [label="console", shape=circle]`) {
		t.Errorf("Expected circle for vertex, got:\n%s", dot)
	}
	if !strings.Contains(dot, `n1 [label="server", shape=box]`) {
		t.Errorf("Expected box for configurable, got:\n%s", dot)
	}
	if !strings.Contains(dot, `n2 [label="server", shape=diamond]`) {
		t.Errorf("Expected diamond for app, got:\n%s", dot)
	}

	if !strings.Contains(dot, `n1 -> n0 [style="bold,solid"]`) {
		t.Errorf("Expected bold argument edge, got:\n%s", dot)
	}
	if !strings.Contains(dot, `n2 -> n1 [style="bold,solid"]`) {
		t.Errorf("Expected bold base edge, got:\n%s", dot)
	}
	if !strings.Contains(dot, `n2 -> n0 [style=dashed]`) {
		t.Errorf("Expected dashed data-dependency edge, got:\n%s", dot)
	}
}

func TestGraph_DOT_Deterministic(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex("a", "1")
	b, _ := g.AddConfigurable(Configurable{Name: "b"}, []NodeID{a}, nil)
	_ = b

	first := g.DOT()
	second := g.DOT()
	if first != second {
		t.Error("Expected identical DOT output across calls")
	}
}

func TestGraph_DOT_Empty(t *testing.T) {
	dot := NewGraph().DOT()
	if !strings.Contains(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("Expected well-formed empty digraph, got:\n%s", dot)
	}
}
