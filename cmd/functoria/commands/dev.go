package commands

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yomimono/functoria/pkg/engine"
	"github.com/yomimono/functoria/pkg/telemetry"
)

// devDebounce coalesces the editor's write-then-rename into one
// reload.
const devDebounce = 300 * time.Millisecond

func newDevCommand() *cobra.Command {
	var (
		listen    string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Watch the project file and re-evaluate on change",
		Long: `Watch the project file and re-run load, compose, and partial
evaluation on every change, reporting diagnostics as they appear.

A prometheus endpoint serves build metrics while the watcher runs.`,
		Example: `  # Watch with metrics on :9090
  functoria dev

  # Metrics elsewhere
  functoria dev --listen :9100

  # No metrics endpoint
  functoria dev --no-metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := telemetry.DefaultConfig()
			cfg.Metrics.Enabled = !noMetrics
			cfg.Metrics.ListenAddress = listen
			tel, err := telemetry.NewTelemetry(cfg)
			if err != nil {
				return err
			}
			defer tel.Shutdown(ctx)

			if !noMetrics {
				if err := tel.StartMetricsServer(); err != nil {
					return err
				}
				log.Info().Str("listen", listen).Msg("Metrics endpoint up")
			}

			last := map[string]string{}
			reload := func() {
				start := time.Now()
				session, err := loadSession(ctx)
				if err != nil {
					tel.Metrics.RecordBuildCompleted("failed", time.Since(start))
					log.Error().Err(err).Msg("Project rejected")
					return
				}

				tel.Metrics.RecordBuildStarted(session.Project.App.Name)
				tel.Metrics.SetGraphNodes("total", float64(session.Graph.Len()))

				resolution, err := session.Evaluate(engine.EvalPartial)
				if err != nil {
					tel.Metrics.RecordBuildCompleted("failed", time.Since(start))
					log.Error().Err(err).Msg("Evaluation failed")
					return
				}

				// Log what changed since the previous good reload.
				current := make(map[string]string, len(resolution.Keys))
				for _, rk := range resolution.Keys {
					current[rk.Name] = rk.Value
					if prev, ok := last[rk.Name]; ok && prev != rk.Value {
						log.Info().Str("key", rk.Name).Str("from", prev).Str("to", rk.Value).Msg("Key changed")
					} else if !ok && len(last) > 0 {
						log.Info().Str("key", rk.Name).Str("value", rk.Value).Msg("Key added")
					}
				}
				for name := range last {
					if _, ok := current[name]; !ok {
						log.Info().Str("key", name).Msg("Key removed")
					}
				}
				last = current

				tel.Metrics.RecordBuildCompleted("ok", time.Since(start))
				log.Info().
					Str("app", session.Project.App.Name).
					Int("nodes", session.Graph.Len()).
					Int("keys", len(resolution.Keys)).
					Int("unresolved", len(resolution.Unresolved)).
					Dur("took", time.Since(start)).
					Msg("Project OK")
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			// Watch the directory, not the file: editors replace files
			// by rename, which drops a direct file watch.
			dir := filepath.Dir(projectFile)
			if dir == "" {
				dir = "."
			}
			if err := watcher.Add(dir); err != nil {
				return err
			}
			tel.Metrics.SetWatchedFiles(1)

			log.Info().Str("file", projectFile).Msg("Watching project file")
			reload()

			var timer *time.Timer
			for {
				select {
				case <-ctx.Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Base(event.Name) != filepath.Base(projectFile) {
						continue
					}
					if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
						continue
					}
					_ = tel.Events.PublishProjectChanged(event.Name)
					if timer == nil {
						timer = time.AfterFunc(devDebounce, reload)
					} else {
						timer.Reset(devDebounce)
					}

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Warn().Err(err).Msg("Watcher error")
				}
			}
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":9090", "metrics listen address")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the metrics endpoint")

	return cmd
}
