package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yomimono/functoria/pkg/engine"
	"github.com/yomimono/functoria/pkg/policy"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [-- --key=value ...]",
		Short: "Check the configuration against policy",
		Long: `Resolve the configuration and check it against the builtin policy
plus any rego files the project lists. Violations are printed one per
line; a deny makes the command fail without writing anything.`,
		Example: `  # Check with default key values
  functoria check

  # Check a specific configuration
  functoria check -- --log_level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			session, err := loadSession(ctx)
			if err != nil {
				return err
			}

			if err := session.BindFlags(engine.FilterConfigure, args); err != nil {
				return err
			}
			resolution, err := session.Evaluate(engine.EvalFull)
			if err != nil {
				return err
			}

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

			for _, v := range result.Violations {
				fmt.Printf("deny  %-24s %s\n", v.Policy, v.Message)
			}
			for _, w := range result.Warnings {
				fmt.Printf("warn  %-24s %s\n", w.Policy, w.Message)
			}

			if !result.Allowed {
				return fmt.Errorf("%d policy violation(s)", len(result.Violations))
			}

			fmt.Printf("OK: %d policy module(s), %d warning(s)\n", len(result.Policies), len(result.Warnings))
			return nil
		},
	}

	return cmd
}
