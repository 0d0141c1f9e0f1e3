package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yomimono/functoria/pkg/components"
	"github.com/yomimono/functoria/pkg/config"
	"github.com/yomimono/functoria/pkg/telemetry"
)

var (
	// Global flags
	projectFile string
	verbose     bool
	jsonOutput  bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "functoria",
		Short: "Functoria - Typed Application Configuration and Assembly",
		Long: `Functoria assembles applications from typed, composable components.

A project file declares configuration keys, components, and how they
plug together; functoria resolves key values from flags and defaults,
checks the composition against policy, and generates the Go program
that wires everything up.

Features:
  - Typed configuration keys via CUE
  - Computed key defaults via Starlark
  - WASM component packs
  - Deterministic code generation
  - Policy enforcement via rego`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&projectFile, "config", "c", "functoria.cue", "project file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newConfigureCommand())
	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newDescribeCommand())
	rootCmd.AddCommand(newKeysCommand())
	rootCmd.AddCommand(newGraphCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newPacksCommand())
	rootCmd.AddCommand(newCleanCommand())
	rootCmd.AddCommand(newDevCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, buildDate))

	return rootCmd
}

// loadProject parses the project file.
func loadProject(ctx context.Context) (*config.Project, error) {
	return config.NewLoader().Load(ctx, projectFile)
}

// composeSession pulls in component packs if the project points at a
// pack directory and composes the graph. Loaded packs are reported on
// the event stream when the context carries telemetry.
func composeSession(ctx context.Context, project *config.Project) (*config.Session, error) {
	catalog := components.NewCatalog()
	if project.Packs != nil {
		registry := components.NewRegistry(project.Packs.Dir, nil)
		if err := registry.ScanDirectory(ctx, project.Packs.Dir); err != nil {
			return nil, fmt.Errorf("failed to scan pack directory: %w", err)
		}
		defer registry.Close(ctx)
		if err := registry.LoadInto(ctx, catalog); err != nil {
			return nil, err
		}
		if tel := telemetry.FromTelemetryContext(ctx); tel != nil {
			for _, m := range registry.List() {
				_ = tel.Events.PublishPackLoaded(m.Metadata.Name, m.Metadata.Version, len(m.Components))
			}
		}
	}

	return config.Compose(project, catalog)
}

// loadSession loads the project file, pulls in component packs, and
// composes the graph. Every command that needs a composed project
// goes through here or through the phased variant in the build
// commands.
func loadSession(ctx context.Context) (*config.Session, error) {
	project, err := loadProject(ctx)
	if err != nil {
		return nil, err
	}
	return composeSession(ctx, project)
}
