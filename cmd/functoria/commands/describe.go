package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yomimono/functoria/pkg/engine"
	"gopkg.in/yaml.v3"
)

func newDescribeCommand() *cobra.Command {
	var (
		evalMode string
		dotFile  string
	)

	cmd := &cobra.Command{
		Use:   "describe [-- --key=value ...]",
		Short: "Show the resolved configuration",
		Long: `Show the resolution document: evaluation order, every key with its
value and provenance, and the evaluated expressions.

Partial evaluation (the default) leaves run-stage keys unresolved and
lists them; full evaluation resolves everything from flags and
defaults the way build does.`,
		Example: `  # Partial evaluation, YAML to stdout
  functoria describe

  # Full evaluation with key values
  functoria describe --eval full -- --port=9000

  # Also write the composition graph
  functoria describe --dot graph.dot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			session, err := loadSession(ctx)
			if err != nil {
				return err
			}

			mode := engine.EvalPartial
			filter := engine.FilterConfigure
			switch evalMode {
			case "partial":
			case "full":
				mode = engine.EvalFull
				filter = engine.FilterAll
			default:
				return fmt.Errorf("unknown eval mode %q (want partial or full)", evalMode)
			}

			if err := session.BindFlags(filter, args); err != nil {
				return err
			}

			resolution, err := session.Evaluate(mode)
			if err != nil {
				return err
			}

			var out []byte
			if jsonOutput {
				out, err = json.MarshalIndent(resolution, "", "  ")
			} else {
				out, err = yaml.Marshal(resolution)
			}
			if err != nil {
				return fmt.Errorf("failed to marshal resolution: %w", err)
			}
			fmt.Println(string(out))

			if dotFile != "" {
				if err := os.WriteFile(dotFile, []byte(session.Graph.DOT()), 0o644); err != nil {
					return fmt.Errorf("failed to write DOT file: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Graph written to %s\n", dotFile)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&evalMode, "eval", "partial", "evaluation mode: partial or full")
	cmd.Flags().StringVar(&dotFile, "dot", "", "also write the composition graph as DOT")

	return cmd
}
