package commands

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yomimono/functoria/pkg/artifacts"
	"github.com/yomimono/functoria/pkg/config"
	"github.com/yomimono/functoria/pkg/engine"
	"github.com/yomimono/functoria/pkg/policy"
	"github.com/yomimono/functoria/pkg/telemetry"
)

func newBuildCommand() *cobra.Command {
	var (
		outDir     string
		skipChecks bool
	)

	cmd := &cobra.Command{
		Use:   "build [-- --key=value ...]",
		Short: "Run the full build: resolve, check, generate",
		Long: `Run the full build pipeline: load the project, compose the graph,
resolve keys, check the result against policy, and write every
artifact (generated source, graph, key documentation, manifest).

A policy deny aborts the build before anything is written.`,
		Example: `  # Full build with defaults
  functoria build

  # Build with configure-stage key values
  functoria build -- --log_level=warn

  # Skip policy checks
  functoria build --skip-checks`,
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

			if !skipChecks {
				if err := runPhase(ctx, buildID, "check", func(ctx context.Context) error {
					eng, err := policy.NewEngine(nil)
					if err != nil {
						return err
					}
					if len(session.Project.Policies) > 0 {
						if err := eng.LoadPaths(ctx, session.Project.Policies); err != nil {
							return err
						}
					}

					result, err := eng.Evaluate(ctx, policy.NewInput(session, resolution))
					if err != nil {
						return err
					}
					for _, w := range result.Warnings {
						tel.Metrics.RecordPolicyViolation(w.Policy, string(w.Severity))
						_ = tel.Events.PublishPolicyViolation(buildID, w.Policy, string(w.Severity), w.Message)
						log.Warn().Str("policy", w.Policy).Msg(w.Message)
					}
					if !result.Allowed {
						for _, v := range result.Violations {
							tel.Metrics.RecordPolicyViolation(v.Policy, string(v.Severity))
							_ = tel.Events.PublishPolicyViolation(buildID, v.Policy, string(v.Severity), v.Message)
							log.Error().Str("policy", v.Policy).Msg(v.Message)
						}
						return fmt.Errorf("build blocked by %d policy violation(s)", len(result.Violations))
					}
					return nil
				}); err != nil {
					return err
				}
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

				artifact, err = writer.WriteFile("graph.dot", []byte(session.Graph.DOT()), artifacts.KindDot)
				if err != nil {
					return err
				}
				publishArtifact(ctx, buildID, artifact)

				var docs bytes.Buffer
				for _, k := range session.Graph.Keys().Keys() {
					engine.EmitDoc(&docs, k)
				}
				artifact, err = writer.WriteFile("keys.txt", docs.Bytes(), artifacts.KindDocs)
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
				Msg("Build complete")
			fmt.Printf("Build %s written to %s (manifest: %s)\n", buildID, outDir, manifestPath)

			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "artifact output directory (default from project file)")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "skip policy checks")

	return cmd
}
