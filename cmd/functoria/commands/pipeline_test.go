package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yomimono/functoria/pkg/artifacts"
	"github.com/yomimono/functoria/pkg/telemetry"
)

// collectEvents builds a synchronous telemetry stack whose events are
// funneled into a channel. Delivery happens on subscriber goroutines,
// so tests collect by type rather than order.
func collectEvents(t *testing.T) (*telemetry.Telemetry, chan telemetry.Event) {
	t.Helper()

	cfg := telemetry.DefaultConfig()
	cfg.Events.EnableAsync = false
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("NewTelemetry failed: %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	events := make(chan telemetry.Event, 16)
	tel.Events.Subscribe(func(ev telemetry.Event) { events <- ev }, nil)
	return tel, events
}

func waitEvents(t *testing.T, events chan telemetry.Event, n int) map[string]telemetry.Event {
	t.Helper()

	got := make(map[string]telemetry.Event, n)
	for i := 0; i < n; i++ {
		select {
		case ev := <-events:
			got[ev.Type] = ev
		case <-time.After(2 * time.Second):
			t.Fatalf("Expected %d events, got %d: %v", n, len(got), got)
		}
	}
	return got
}

func TestRunPhase_PublishesLifecycle(t *testing.T) {
	tel, events := collectEvents(t)
	ctx := tel.WithContext(context.Background())

	var carried bool
	if err := runPhase(ctx, "b1", "evaluate", func(ctx context.Context) error {
		carried = telemetry.FromTelemetryContext(ctx) != nil
		return nil
	}); err != nil {
		t.Fatalf("runPhase failed: %v", err)
	}
	if !carried {
		t.Error("Expected the phase context to carry telemetry")
	}

	got := waitEvents(t, events, 2)
	started, ok := got[telemetry.EventTypePhaseStarted]
	if !ok || started.Phase != "evaluate" || started.BuildID != "b1" {
		t.Errorf("Expected phase started for evaluate/b1, got %+v", started)
	}
	if completed, ok := got[telemetry.EventTypePhaseCompleted]; !ok || completed.Phase != "evaluate" {
		t.Errorf("Expected phase completed for evaluate, got %+v", completed)
	}
}

func TestRunPhase_FailureSkipsCompleted(t *testing.T) {
	tel, events := collectEvents(t)
	ctx := tel.WithContext(context.Background())

	boom := errors.New("boom")
	err := runPhase(ctx, "b2", "generate", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the phase error back, got %v", err)
	}

	got := waitEvents(t, events, 1)
	if _, ok := got[telemetry.EventTypePhaseStarted]; !ok {
		t.Errorf("Expected phase started, got %v", got)
	}
	select {
	case ev := <-events:
		t.Errorf("Expected no completion event after a failure, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBuildContext_PublishesLifecycle(t *testing.T) {
	tel, events := collectEvents(t)
	ctx := tel.WithContext(context.Background())

	ctx = telemetry.WithBuildContext(ctx, "b3", "hello")
	telemetry.EndBuildContext(ctx, "b3", "ok", nil)

	got := waitEvents(t, events, 2)
	started, ok := got[telemetry.EventTypeBuildStarted]
	if !ok || started.BuildID != "b3" {
		t.Errorf("Expected build started for b3, got %+v", started)
	}
	if _, ok := got[telemetry.EventTypeBuildCompleted]; !ok {
		t.Errorf("Expected build completed, got %v", got)
	}
}

func TestBuildContext_ReportsFailure(t *testing.T) {
	tel, events := collectEvents(t)
	ctx := tel.WithContext(context.Background())

	ctx = telemetry.WithBuildContext(ctx, "b4", "hello")
	telemetry.EndBuildContext(ctx, "b4", "failed", errors.New("graph has a cycle"))

	got := waitEvents(t, events, 2)
	failed, ok := got[telemetry.EventTypeBuildFailed]
	if !ok || failed.BuildID != "b4" {
		t.Errorf("Expected build failed for b4, got %+v", failed)
	}
}

func TestPublishArtifact(t *testing.T) {
	tel, events := collectEvents(t)
	ctx := tel.WithContext(context.Background())

	publishArtifact(ctx, "b5", artifacts.Artifact{Kind: artifacts.KindSource, Path: "main.go"})

	got := waitEvents(t, events, 1)
	ev, ok := got[telemetry.EventTypeArtifactWritten]
	if !ok || ev.BuildID != "b5" {
		t.Fatalf("Expected artifact written for b5, got %+v", ev)
	}
	if ev.Data["path"] != "main.go" {
		t.Errorf("Expected path main.go, got %v", ev.Data["path"])
	}

	// No telemetry in the context is a no-op, not a panic.
	publishArtifact(context.Background(), "b5", artifacts.Artifact{Kind: artifacts.KindDot, Path: "graph.dot"})
}

func TestBuildTelemetry(t *testing.T) {
	t.Setenv("FUNCTORIA_TRACE", "")

	tel, err := buildTelemetry()
	if err != nil {
		t.Fatalf("buildTelemetry failed: %v", err)
	}
	defer tel.Shutdown(context.Background())

	if tel.Config.Events.EnableAsync {
		t.Error("Expected synchronous event delivery for one-shot commands")
	}
	if tel.Config.Tracing.Enabled {
		t.Error("Expected tracing off without FUNCTORIA_TRACE")
	}
}
