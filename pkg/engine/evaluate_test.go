package engine

import "testing"

// scenarioGraph builds a single server node carrying a run-and-build
// key log_level and a configure-only key port.
func scenarioGraph(t *testing.T) (*Graph, *TypedKey[string], *TypedKey[int]) {
	t.Helper()
	r := NewRegistry()
	logLevel, err := NewKey(r, "log_level", "log verbosity", StageBoth, "info", StringDescriptor())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	port, err := NewKey(r, "port", "listen port", StageConfigure, 8080, IntDescriptor())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	g := NewGraph()
	if _, err := g.AddConfigurable(Configurable{
		Name:        "server",
		Constructor: "server.New",
		Import:      "example.com/app/server",
		Keys:        NewKeySet(logLevel, port),
	}, nil, nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return g, logLevel, port
}

func TestGraph_Evaluate_FullUsesDefaults(t *testing.T) {
	g, _, _ := scenarioGraph(t)

	res, err := g.Evaluate(NewEvalContext(), EvalFull)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if res.ID == "" {
		t.Error("Expected a resolution id")
	}
	if res.Mode != EvalFull {
		t.Errorf("Expected full mode, got %s", res.Mode)
	}
	if len(res.Unresolved) != 0 {
		t.Errorf("Expected nothing unresolved, got %v", res.Unresolved)
	}
	if len(res.Keys) != 2 {
		t.Fatalf("Expected 2 resolved keys, got %d", len(res.Keys))
	}

	// Canonical order: log_level before port.
	if res.Keys[0].Name != "log_level" || res.Keys[0].Value != "info" {
		t.Errorf("Expected log_level=info, got %s=%s", res.Keys[0].Name, res.Keys[0].Value)
	}
	if res.Keys[1].Name != "port" || res.Keys[1].Value != "8080" {
		t.Errorf("Expected port=8080, got %s=%s", res.Keys[1].Name, res.Keys[1].Value)
	}
	for _, rk := range res.Keys {
		if rk.Source != SourceDefault {
			t.Errorf("Expected default provenance for %s, got %s", rk.Name, rk.Source)
		}
	}
}

func TestGraph_Evaluate_FullKeepsExplicitValues(t *testing.T) {
	g, logLevel, _ := scenarioGraph(t)

	ctx := NewEvalContext()
	if err := Set(ctx, logLevel, "debug"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	res, err := g.Evaluate(ctx, EvalFull)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, ok := res.Lookup("log_level")
	if !ok {
		t.Fatal("Expected log_level in resolution")
	}
	if got.Value != "debug" {
		t.Errorf("Expected log_level=debug, got %s", got.Value)
	}
	if got.Source != SourceFlag {
		t.Errorf("Expected flag provenance, got %s", got.Source)
	}

	port, ok := res.Lookup("port")
	if !ok || port.Value != "8080" || port.Source != SourceDefault {
		t.Errorf("Expected port to stay at its default, got %+v", port)
	}
}

func TestGraph_Evaluate_PartialListsUnresolved(t *testing.T) {
	g, logLevel, _ := scenarioGraph(t)

	ctx := NewEvalContext()
	if err := Set(ctx, logLevel, "debug"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	res, err := g.Evaluate(ctx, EvalPartial)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(res.Keys) != 1 || res.Keys[0].Name != "log_level" {
		t.Errorf("Expected only log_level resolved, got %+v", res.Keys)
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0] != "port" {
		t.Errorf("Expected port unresolved, got %v", res.Unresolved)
	}

	// Partial evaluation never fills defaults into the context.
	if ctx.Len() != 1 {
		t.Errorf("Expected context untouched beyond the explicit set, got %d cells", ctx.Len())
	}
}

func TestGraph_Evaluate_PartialThenFullAgree(t *testing.T) {
	g, logLevel, _ := scenarioGraph(t)

	ctx := NewEvalContext()
	if err := Set(ctx, logLevel, "warn"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	partial, err := g.Evaluate(ctx, EvalPartial)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	full, err := g.Evaluate(ctx, EvalFull)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Every key the partial pass resolved resolves identically in full.
	for _, pk := range partial.Keys {
		fk, ok := full.Lookup(pk.Name)
		if !ok {
			t.Errorf("Expected %s in full resolution", pk.Name)
			continue
		}
		if fk.Value != pk.Value || fk.Source != pk.Source {
			t.Errorf("Expected %s to agree across modes, got %+v and %+v", pk.Name, pk, fk)
		}
	}
	if len(full.Unresolved) != 0 {
		t.Errorf("Expected full pass to resolve everything, got %v", full.Unresolved)
	}
}

func TestGraph_Evaluate_WalksExpressions(t *testing.T) {
	r := NewRegistry()
	name, _ := NewKey(r, "name", "app name", StageConfigure, "app", StringDescriptor())

	greeting := Map(func(s string) string { return "hello " + s }, Value(name))
	g := NewGraph()
	if _, err := g.AddConfigurable(Configurable{
		Name:  "greeter",
		Exprs: []AnyExpr{greeting},
	}, nil, nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	full, err := g.Evaluate(NewEvalContext(), EvalFull)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if full.Exprs != 1 {
		t.Errorf("Expected 1 evaluated expression, got %d", full.Exprs)
	}

	// With nothing set, the partial pass cannot peek the expression.
	partial, err := g.Evaluate(NewEvalContext(), EvalPartial)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if partial.Exprs != 0 {
		t.Errorf("Expected 0 peeked expressions, got %d", partial.Exprs)
	}
	if len(partial.Unresolved) != 1 || partial.Unresolved[0] != "name" {
		t.Errorf("Expected name unresolved, got %v", partial.Unresolved)
	}
}

func TestGraph_Evaluate_InvalidMode(t *testing.T) {
	g, _, _ := scenarioGraph(t)

	_, err := g.Evaluate(NewEvalContext(), EvalMode("half"))
	if err == nil {
		t.Fatal("Expected error for invalid mode, got nil")
	}
	if !IsUser(err) {
		t.Error("Expected user-class error for invalid mode")
	}
}

func TestGraph_Evaluate_OrderMatchesToposort(t *testing.T) {
	g := NewGraph()
	base := g.AddVertex("base", "base.Default")
	mid, _ := g.AddConfigurable(Configurable{Name: "mid"}, []NodeID{base}, nil)
	top, _ := g.AddApp(mid, []NodeID{base})

	res, err := g.Evaluate(NewEvalContext(), EvalFull)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []NodeID{base, mid, top}
	if len(res.Order) != len(want) {
		t.Fatalf("Expected %d nodes in order, got %d", len(want), len(res.Order))
	}
	for i := range want {
		if res.Order[i] != want[i] {
			t.Errorf("Expected position %d to be %d, got %d", i, want[i], res.Order[i])
		}
	}
}
