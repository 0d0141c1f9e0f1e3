package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// scaffoldProject is the starter project init writes. It uses only
// builtin component types so it configures out of the box.
const scaffoldProject = `app: {
	name: "%s"
	root: "web"
}

keys: [
	{name: "log_level", type: "string", stage: "both", default: "info", help: "minimum log level"},
	{name: "greeting", type: "string", stage: "configure", default: "hello", help: "startup banner text"},
]

computed: [
	// Starlark expressions can compute key defaults from other keys.
	{name: "greeting", expr: "greeting + \", from %s\""},
]

components: [
	{name: "console", type: "console"},
	{name: "log", type: "logger", args: ["console"]},
	{name: "web", type: "http_server", args: ["log"], keys: ["greeting"]},
]

packs: {dir: "./packs"}
`

func newInitCommand() *cobra.Command {
	var (
		name  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a functoria project",
		Long: `Initialize a functoria project: a starter project file built from
the builtin component types and an empty pack directory.

The starter project configures as-is:

  functoria configure`,
		Example: `  # Initialize in the current directory
  functoria init --name hello

  # Overwrite an existing project file
  functoria init --name hello --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().
				Str("name", name).
				Str("file", projectFile).
				Msg("Initializing project")

			if _, err := os.Stat(projectFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", projectFile)
			}

			content := fmt.Sprintf(scaffoldProject, name, name)
			if err := os.WriteFile(projectFile, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write project file: %w", err)
			}
			fmt.Printf("✓ Created project file: %s\n", projectFile)

			packsDir := filepath.Join(filepath.Dir(projectFile), "packs")
			if err := os.MkdirAll(packsDir, 0o755); err != nil {
				return fmt.Errorf("failed to create pack directory: %w", err)
			}
			fmt.Printf("✓ Created pack directory: %s\n", packsDir)

			fmt.Printf("\nNext steps:\n")
			fmt.Printf("  1. Inspect the configuration keys:\n")
			fmt.Printf("     functoria keys\n\n")
			fmt.Printf("  2. Generate the application:\n")
			fmt.Printf("     functoria configure\n\n")

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "app", "application name")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing project file")

	return cmd
}
