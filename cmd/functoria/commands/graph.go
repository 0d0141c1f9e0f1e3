package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"
)

func newGraphCommand() *cobra.Command {
	var (
		outFile string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the composition graph",
		Long: `Render the composition graph. The default output is DOT on stdout;
--format svg or png renders an image via graphviz and requires --out.`,
		Example: `  # DOT to stdout
  functoria graph

  # DOT to a file
  functoria graph --out graph.dot

  # Rendered image
  functoria graph --format svg --out graph.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			session, err := loadSession(ctx)
			if err != nil {
				return err
			}
			dot := session.Graph.DOT()

			var layout graphviz.Format
			switch format {
			case "dot":
				if outFile == "" {
					fmt.Print(dot)
					return nil
				}
				if err := os.WriteFile(outFile, []byte(dot), 0o644); err != nil {
					return fmt.Errorf("failed to write DOT file: %w", err)
				}
				return nil
			case "svg":
				layout = graphviz.SVG
			case "png":
				layout = graphviz.PNG
			default:
				return fmt.Errorf("unknown format %q (want dot, svg, or png)", format)
			}

			if outFile == "" {
				return fmt.Errorf("--out is required for format %s", format)
			}

			gv, err := graphviz.New(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize graphviz: %w", err)
			}
			defer gv.Close()

			g, err := graphviz.ParseBytes([]byte(dot))
			if err != nil {
				return fmt.Errorf("failed to parse DOT: %w", err)
			}
			defer g.Close()

			var buf bytes.Buffer
			if err := gv.Render(ctx, g, layout, &buf); err != nil {
				return fmt.Errorf("failed to render graph: %w", err)
			}
			if err := os.WriteFile(outFile, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write rendered graph: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Graph written to %s\n", outFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output file path")
	cmd.Flags().StringVar(&format, "format", "dot", "output format: dot, svg, or png")

	return cmd
}
