package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"merchlens/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var flags jobFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify readiness for a job without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings, err := flags.settings(cfg)
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg, settings)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "PASS"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Check", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return preflight.Err(results)
		},
	}

	flags.register(cmd)
	return cmd
}
