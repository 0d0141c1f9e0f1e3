// Package engine implements the configuration core of functoria: typed
// staged keys, applicative value expressions, and the composition graph
// that is evaluated and rendered into a program's entry point.
//
// # Overview
//
// A functoria build runs through four phases over a single session:
//
//  1. Declare - Register keys and build the composition graph
//  2. Bind - Parse command-line flags into an evaluation context
//  3. Evaluate - Resolve keys and walk the graph in topological order
//  4. Generate - Render deterministic Go source for the composed app
//
// # Keys and Stages
//
// A key is a named, typed configuration point. Every key carries a
// stage that decides when its value applies:
//
//   - StageConfigure: consumed while generating, absent from the output
//   - StageRun: compiled into the generated program as a flag
//   - StageBoth: available in both phases
//
// Keys are registered against a Registry, which enforces unique names.
// Values are parsed, printed, and serialized through the key's
// Descriptor, so a value always round-trips through its textual forms.
//
// # Value Expressions
//
// Expr composes key lookups applicatively:
//
//	hello := engine.Value(nameKey)
//	greet := engine.Map(func(s string) string { return "hello " + s }, hello)
//
// An expression knows its dependency key set without being evaluated.
// Peek resolves best-effort against a partially filled context; Eval
// demands every dependency and reports a still-unset key as an
// invariant violation.
//
// # Composition Graph
//
// The graph holds three node kinds in an arena addressed by NodeID:
//
//   - Vertex: an opaque leaf bound verbatim in generated source
//   - Configurable: a unit with a constructor, keys, and expressions
//   - App: a Configurable applied to argument nodes
//
// Argument edges are ordered and mirror constructor argument order.
// Data-dependency edges added with AddDataDep only order evaluation; an
// edge that closes a cycle is reported immediately and keeps the graph
// failing until it is rebuilt.
//
// # Evaluation
//
// Evaluate walks the graph in a stable topological order. EvalFull
// fills every key from its default first and requires every expression
// to resolve; EvalPartial peeks what it can and lists the rest in
// Resolution.Unresolved. The Resolution records each key's printed
// value together with its provenance (flag or default).
//
// # Code Generation
//
// GenerateSource renders a main package that rebuilds the composition
// at run time: one binding per node in topological order, configure
// stage key values inlined as serialized literals, and run-stage keys
// re-exposed as flags through the runtime package. Output is
// byte-identical across runs for the same graph and context.
//
// # Error Classification
//
// Errors carry a class and a stable code:
//
//   - DUPLICATE_KEY: two keys registered under one name
//   - PARSE_FAILURE: a flag value the key's descriptor rejected
//   - CYCLIC_GRAPH: a data-dependency edge closed a cycle
//   - UNRESOLVED_KEY: eval reached a key with no value
//
// Use the helpers to inspect them:
//
//	if engine.IsCode(err, engine.ErrCodeParseFailure) {
//	    fmt.Println("bad flag for", engine.KeyName(err))
//	}
//
// # Concurrency Model
//
// A session is single-threaded and one-shot: registries, contexts, and
// graphs are built, evaluated, and discarded within one invocation and
// are not safe for concurrent use.
package engine
