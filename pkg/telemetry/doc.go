// Package telemetry provides observability instrumentation for functoria.
//
// The telemetry package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus), and event publishing into a unified system
// for monitoring and debugging functoria builds.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with multiple exporters
//  3. Metrics Collection - Prometheus metrics for operational insights
//  4. Event Publishing - Async event system for build progress and audit
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context propagation:
//
//	logger := tel.Logger.NewComponentLogger("engine")
//	logger = logger.WithBuildID("build-123").WithKey("log_level")
//	logger.Info("Resolving key")
//	logger.WithError(err).Error("Resolution failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Distributed Tracing
//
// Every build runs under a build span with one child span per phase
// (load, compose, evaluate, generate, write):
//
//	ctx, span := tel.Tracer.StartBuildSpan(ctx, buildID, appName)
//	defer span.End()
//
//	ctx, phase := tel.Tracer.StartPhaseSpan(ctx, "evaluate")
//	defer phase.End()
//
//	if err != nil {
//	    telemetry.RecordError(phase, err)
//	}
//
// Supported exporters: OTLP (production), Stdout (development), None (testing)
//
// # Metrics
//
// Prometheus metrics track build behavior and performance:
//
//	tel.Metrics.RecordBuildStarted("hello")
//	tel.Metrics.RecordBuildCompleted("succeeded", duration)
//	tel.Metrics.RecordPhase("evaluate", duration)
//	tel.Metrics.RecordKeyResolution("flag")
//	tel.Metrics.RecordParseFailure("port")
//
// One-shot commands record metrics without serving them; the dev watch
// server exposes them via HTTP at /metrics (default: :9090/metrics).
//
// # Event Publishing
//
// The event system provides async publishing with buffering and filtering:
//
//	tel.Events.PublishBuildStarted(buildID, app)
//	tel.Events.PublishPhaseCompleted(buildID, "generate", duration)
//	tel.Events.PublishPackLoaded("console", "1.0.0", 2)
//
//	tel.Events.Subscribe(func(event telemetry.Event) {
//	    fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
//	}, telemetry.FilterByLevel("warning"))
//
// Event filters: FilterByLevel, FilterByType, FilterByBuildID, FilterByKey
//
// # Context Helpers
//
// High-level helpers simplify common instrumentation patterns:
//
//	// Build context
//	ctx = telemetry.WithBuildContext(ctx, buildID, app)
//	defer telemetry.EndBuildContext(ctx, buildID, status, err)
//
//	// Phase context
//	ctx = telemetry.WithPhaseContext(ctx, buildID, "evaluate")
//	defer telemetry.EndPhaseContext(ctx, buildID, "evaluate", err)
//
//	// Pack operation
//	err := telemetry.RecordPackOperation(ctx, "console", "load", func() error {
//	    return registry.LoadPack(ctx, dir)
//	})
//
// # Graceful Shutdown
//
// Always shut down telemetry gracefully to flush pending data:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	if err := tel.Shutdown(ctx); err != nil {
//	    log.Printf("Telemetry shutdown error: %v", err)
//	}
//
// # Common Metrics
//
// Key metrics exposed:
//
//   - functoria_builds_started_total{app}
//   - functoria_builds_completed_total{status}
//   - functoria_build_duration_seconds{status}
//   - functoria_phase_duration_seconds{phase}
//   - functoria_key_resolutions_total{source}
//   - functoria_parse_failures_total{key}
//   - functoria_graph_nodes{kind}
//   - functoria_pack_calls_total{pack,operation}
//   - functoria_policy_violations_total{policy,severity}
//   - functoria_artifacts_written_total{kind}
//   - functoria_active_builds
package telemetry
