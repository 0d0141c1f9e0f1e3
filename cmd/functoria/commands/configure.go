package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yomimono/functoria/pkg/artifacts"
	"github.com/yomimono/functoria/pkg/config"
	"github.com/yomimono/functoria/pkg/engine"
	"github.com/yomimono/functoria/pkg/telemetry"
)

func newConfigureCommand() *cobra.Command {
	var (
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "configure [-- --key=value ...]",
		Short: "Resolve keys and generate the application source",
		Long: `Resolve configuration keys and generate the program that assembles
the application.

Configure-stage key values are taken from the flags after --, falling
back to declared defaults. The generated main.go re-exposes run-stage
keys as flags of the built program.`,
		Example: `  # Configure with defaults
  functoria configure

  # Set configure-stage keys
  functoria configure -- --log_level=debug

  # Write artifacts somewhere else
  functoria configure --out ./out`,
		RunE: func(cmd *cobra.Command, args []string) (retErr error) {
			ctx := cmd.Context()

			tel, err := buildTelemetry()
			if err != nil {
				return err
			}
			defer tel.Shutdown(context.Background())
			ctx = tel.WithContext(ctx)

			buildID := uuid.New().String()

			var project *config.Project
			if err := runPhase(ctx, buildID, "load", func(ctx context.Context) error {
				var err error
				project, err = loadProject(ctx)
				return err
			}); err != nil {
				return err
			}

			ctx = telemetry.WithBuildContext(ctx, buildID, project.App.Name)
			defer func() {
				status := "ok"
				if retErr != nil {
					status = "failed"
				}
				telemetry.EndBuildContext(ctx, buildID, status, retErr)
			}()

			var session *config.Session
			if err := runPhase(ctx, buildID, "compose", func(ctx context.Context) error {
				var err error
				session, err = composeSession(ctx, project)
				return err
			}); err != nil {
				return err
			}

			var resolution *engine.Resolution
			if err := runPhase(ctx, buildID, "evaluate", func(ctx context.Context) error {
				if err := session.BindFlags(engine.FilterConfigure, args); err != nil {
					return err
				}
				var err error
				resolution, err = session.Evaluate(engine.EvalFull)
				return err
			}); err != nil {
				return err
			}

			var source string
			if err := runPhase(ctx, buildID, "generate", func(ctx context.Context) error {
				var err error
				source, err = session.Graph.GenerateSource(session.Context)
				return err
			}); err != nil {
				return err
			}

			if outDir == "" {
				outDir = session.Project.OutputDir()
			}
			var manifestPath string
			if err := runPhase(ctx, buildID, "write", func(ctx context.Context) error {
				writer, err := artifacts.NewWriter(outDir, project.App.Name, project.App.Version, buildID)
				if err != nil {
					return err
				}
				artifact, err := writer.WriteFile("main.go", []byte(source), artifacts.KindSource)
				if err != nil {
					return err
				}
				publishArtifact(ctx, buildID, artifact)
				writer.RecordKeys(resolution)
				manifestPath, err = writer.WriteManifest()
				return err
			}); err != nil {
				return err
			}

			log.Info().
				Str("app", project.App.Name).
				Str("build_id", buildID).
				Str("out", outDir).
				Int("keys", len(resolution.Keys)).
				Msg("Configuration complete")
			fmt.Printf("Generated %s/main.go (manifest: %s)\n", outDir, manifestPath)

			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "artifact output directory (default from project file)")

	return cmd
}
