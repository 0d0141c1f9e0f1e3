package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yomimono/functoria/pkg/engine"
)

func newKeysCommand() *cobra.Command {
	var (
		doc bool
	)

	cmd := &cobra.Command{
		Use:   "keys [-- --key=value ...]",
		Short: "List the project's configuration keys",
		Long: `List every configuration key reachable from the composition graph,
one line per key with its current value, provenance, and stage.

With --doc, print the full documentation block for each key instead.`,
		Example: `  # One line per key
  functoria keys

  # Show how flag values would resolve
  functoria keys -- --port=9000

  # Full documentation blocks
  functoria keys --doc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession(cmd.Context())
			if err != nil {
				return err
			}

			if err := session.BindFlags(engine.FilterAll, args); err != nil {
				return err
			}
			if _, err := session.Evaluate(engine.EvalPartial); err != nil {
				return err
			}

			for _, k := range session.Graph.Keys().Keys() {
				if doc {
					engine.EmitDoc(os.Stdout, k)
					fmt.Println()
					continue
				}
				fmt.Println(engine.DescribeKey(k, session.Context))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&doc, "doc", false, "print full documentation blocks")

	return cmd
}
