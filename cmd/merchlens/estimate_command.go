package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"merchlens/internal/config"
	"merchlens/internal/costs"
	"merchlens/internal/records"
)

func newEstimateCommand(ctx *commandContext) *cobra.Command {
	var input string
	var startRow, endRow int
	var mode, model string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the cost of a job before running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path, err := config.ExpandPath(input)
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			if endRow == 0 {
				if endRow, err = lastDataRow(path); err != nil {
					return err
				}
			}
			rows := endRow - startRow + 1
			if rows < 0 {
				rows = 0
			}

			mode = strings.ToLower(strings.TrimSpace(mode))
			if model = strings.TrimSpace(model); model == "" {
				model = cfg.LLM.Model
			}

			table := cfg.CostTable()
			estimate := table.EstimateJob(rows, mode, model)
			perRow := 0.0
			if rows > 0 {
				perRow = estimate / float64(rows)
			}
			budget := cfg.Costs.BudgetPerRow
			within := costs.WithinBudget(estimate, rows, budget)

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				[][]string{
					{"Rows", strconv.Itoa(rows)},
					{"Mode", mode},
					{"Model", model},
					{"Estimated per row", fmt.Sprintf("$%.4f", perRow)},
					{"Estimated total", fmt.Sprintf("$%.4f", estimate)},
					{"Budget per row", fmt.Sprintf("$%.4f", budget)},
					{"Within budget", yesNo(within)},
				},
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input spreadsheet path")
	cmd.Flags().IntVar(&startRow, "start-row", 2, "First data row to process")
	cmd.Flags().IntVar(&endRow, "end-row", 0, "Last data row to process (default: last row of the sheet)")
	cmd.Flags().StringVar(&mode, "mode", records.ModeBasic, "Resolution mode: basic or enhanced")
	cmd.Flags().StringVar(&model, "model", "", "Language model identifier (default: configured model)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
