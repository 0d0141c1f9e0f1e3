package engine_test

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yomimono/functoria/pkg/engine"
)

// Example demonstrates composing, evaluating, and generating an
// application graph.
func Example_composition() {
	// One server unit parameterized by two keys:
	// log_level is needed at run time too, port only while generating.
	registry := engine.NewRegistry()
	logLevel, _ := engine.NewKey(registry, "log_level", "log verbosity",
		engine.StageBoth, "info", engine.StringDescriptor())
	port, _ := engine.NewKey(registry, "port", "listen port",
		engine.StageConfigure, 8080, engine.IntDescriptor())

	g := engine.NewGraph()
	console := g.AddVertex("console", "console.Default")
	_, err := g.AddConfigurable(engine.Configurable{
		Name:        "server",
		Constructor: "server.New",
		Import:      "example.com/app/server",
		Keys:        engine.NewKeySet(logLevel, port),
	}, []engine.NodeID{console}, nil)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	// The user set log_level; port falls back to its default.
	ctx := engine.NewEvalContext()
	_ = engine.Set(ctx, logLevel, "debug")

	res, err := g.Evaluate(ctx, engine.EvalFull)
	if err != nil {
		log.Fatalf("Failed to evaluate: %v", err)
	}
	for _, rk := range res.Keys {
		fmt.Printf("%s=%s (%s)\n", rk.Name, rk.Value, rk.Source)
	}
	fmt.Printf("order: %v\n", res.Order)

	// Generated source rebinds run-stage keys as flags and hands the
	// final binding to the runtime.
	src, err := g.GenerateSource(ctx)
	if err != nil {
		log.Fatalf("Failed to generate: %v", err)
	}
	fmt.Println(strings.Contains(src, `runtime.String("log_level", "debug", "log verbosity")`))
	fmt.Println(strings.Contains(src, "runtime.Main(server1)"))

	// Output:
	// log_level=debug (flag)
	// port=8080 (default)
	// order: [0 1]
	// true
	// true
}

// Example demonstrates cycle reporting on data-dependency edges.
func Example_cycleDetection() {
	g := engine.NewGraph()
	a, _ := g.AddConfigurable(engine.Configurable{Name: "a"}, nil, nil)
	b, _ := g.AddConfigurable(engine.Configurable{Name: "b"}, []engine.NodeID{a}, nil)
	c, _ := g.AddConfigurable(engine.Configurable{Name: "c"}, []engine.NodeID{b}, nil)
	_ = c

	// c consumes b, b consumes a; making a wait for c closes the loop.
	err := g.AddDataDep(a, c)

	var e *engine.Error
	if errors.As(err, &e) {
		fmt.Println(e.Code)
		fmt.Println(e.Nodes)
	}

	// Output:
	// CYCLIC_GRAPH
	// [a c b]
}
