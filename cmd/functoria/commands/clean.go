package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yomimono/functoria/pkg/artifacts"
	"github.com/yomimono/functoria/pkg/config"
)

func newCleanCommand() *cobra.Command {
	var (
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove generated artifacts",
		Long: `Remove the artifacts the last build's manifest lists, manifest
included. Files in the output directory the build did not write are
left alone; a missing manifest means there is nothing to clean.`,
		Example: `  # Clean the project's output directory
  functoria clean

  # Clean another directory
  functoria clean --out ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if outDir == "" {
				project, err := config.NewLoader().Load(ctx, projectFile)
				if err != nil {
					return err
				}
				outDir = project.OutputDir()
			}

			removed, err := artifacts.Clean(outDir)
			if err != nil {
				return err
			}

			if len(removed) == 0 {
				fmt.Println("Nothing to clean.")
				return nil
			}
			for _, path := range removed {
				fmt.Printf("removed %s\n", path)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "artifact output directory (default from project file)")

	return cmd
}
