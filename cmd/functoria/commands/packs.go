package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yomimono/functoria/pkg/components"
	"github.com/yomimono/functoria/pkg/config"
)

func newPacksCommand() *cobra.Command {
	var (
		dir string
	)

	cmd := &cobra.Command{
		Use:   "packs",
		Short: "List available component packs",
		Long: `Scan the pack directory and list every pack with its declared
component types. The directory comes from the project file unless
--dir is given; packs with WASM entrypoints are marked verified once
their checksum has been checked.`,
		Example: `  # Packs from the project's pack directory
  functoria packs

  # Scan a different directory
  functoria packs --dir ./packs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if dir == "" {
				project, err := config.NewLoader().Load(ctx, projectFile)
				if err != nil {
					return err
				}
				if project.Packs == nil {
					return fmt.Errorf("project declares no pack directory; use --dir")
				}
				dir = project.Packs.Dir
			}

			registry := components.NewRegistry(dir, nil)
			if err := registry.ScanDirectory(ctx, dir); err != nil {
				return err
			}
			defer registry.Close(ctx)

			manifests := registry.List()
			if len(manifests) == 0 {
				fmt.Println("No packs found.")
				return nil
			}

			for _, m := range manifests {
				fmt.Println(packHeader(m))
				for _, t := range m.Components {
					fmt.Printf("  %-16s %s (%d arg(s), %d key(s))\n", t.Name, t.Constructor, t.Arity, len(t.Keys))
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "pack directory (default from project file)")

	return cmd
}

// packHeader formats the one-line summary for a pack listing.
func packHeader(m *components.Manifest) string {
	verified := ""
	if m.Verified {
		verified = " (verified)"
	}
	return fmt.Sprintf("%s@%s%s: %s", m.Metadata.Name, m.Metadata.Version, verified, m.Metadata.Description)
}
