package commands

import (
	"context"
	"os"

	"github.com/yomimono/functoria/pkg/artifacts"
	"github.com/yomimono/functoria/pkg/telemetry"
)

// buildTelemetry creates the telemetry stack for one-shot build
// commands. Metrics are recorded but never served, events are
// delivered synchronously and surface in the debug log, and spans
// export to stdout when FUNCTORIA_TRACE is set.
func buildTelemetry() (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	cfg.Events.EnableAsync = false
	if os.Getenv("FUNCTORIA_TRACE") != "" {
		cfg.Tracing.Enabled = true
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, err
	}

	tel.Events.Subscribe(func(ev telemetry.Event) {
		tel.Logger.WithField("type", ev.Type).Debug(ev.Message)
	}, nil)

	return tel, nil
}

// runPhase runs one build phase under its span, publishing the phase
// lifecycle events and recording its duration.
func runPhase(ctx context.Context, buildID, phase string, fn func(context.Context) error) error {
	ctx = telemetry.WithPhaseContext(ctx, buildID, phase)
	err := fn(ctx)
	telemetry.EndPhaseContext(ctx, buildID, phase, err)
	return err
}

// publishArtifact reports one written artifact on the event stream.
func publishArtifact(ctx context.Context, buildID string, a artifacts.Artifact) {
	tel := telemetry.FromTelemetryContext(ctx)
	if tel == nil {
		return
	}
	tel.Metrics.RecordArtifactWritten(string(a.Kind))
	_ = tel.Events.PublishArtifactWritten(buildID, string(a.Kind), a.Path)
}
