package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"merchlens/internal/config"
	"merchlens/internal/records"
	"merchlens/internal/sheet"
)

// jobFlags collects the per-job settings shared by run and check.
type jobFlags struct {
	input         string
	output        string
	startRow      int
	endRow        int
	mode          string
	model         string
	budgetPerRow  float64
	nameColumn    string
	addressColumn string
	cityColumn    string
	countryColumn string
	stateColumn   string
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Input spreadsheet path")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output spreadsheet path (default: <input>_resolved)")
	cmd.Flags().IntVar(&f.startRow, "start-row", 2, "First data row to process (1-based, row 1 is the header)")
	cmd.Flags().IntVar(&f.endRow, "end-row", 0, "Last data row to process (default: last row of the sheet)")
	cmd.Flags().StringVar(&f.mode, "mode", records.ModeBasic, "Resolution mode: basic or enhanced")
	cmd.Flags().StringVar(&f.model, "model", "", "Language model identifier (default: configured model)")
	cmd.Flags().Float64Var(&f.budgetPerRow, "budget-per-row", 0, "Per-row spend ceiling in dollars (default: configured budget)")
	cmd.Flags().StringVar(&f.nameColumn, "name-column", "", "Header of the merchant name column")
	cmd.Flags().StringVar(&f.addressColumn, "address-column", "", "Header of the address column")
	cmd.Flags().StringVar(&f.cityColumn, "city-column", "", "Header of the city column")
	cmd.Flags().StringVar(&f.countryColumn, "country-column", "", "Header of the country column")
	cmd.Flags().StringVar(&f.stateColumn, "state-column", "", "Header of the state column")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("name-column")
}

// settings resolves the flags into validated job settings. An unset end
// row is read from the sheet itself so "the whole file" needs no counting
// by hand.
func (f *jobFlags) settings(cfg *config.Config) (records.JobSettings, error) {
	input, err := config.ExpandPath(f.input)
	if err != nil {
		return records.JobSettings{}, fmt.Errorf("resolve input path: %w", err)
	}

	output := strings.TrimSpace(f.output)
	if output == "" {
		ext := filepath.Ext(input)
		output = strings.TrimSuffix(input, ext) + "_resolved" + ext
	} else if output, err = config.ExpandPath(output); err != nil {
		return records.JobSettings{}, fmt.Errorf("resolve output path: %w", err)
	}

	endRow := f.endRow
	if endRow == 0 {
		if endRow, err = lastDataRow(input); err != nil {
			return records.JobSettings{}, err
		}
	}

	settings := records.JobSettings{
		InputPath:  input,
		OutputPath: output,
		ColumnMapping: records.ColumnMapping{
			Name:    f.nameColumn,
			Address: f.addressColumn,
			City:    f.cityColumn,
			Country: f.countryColumn,
			State:   f.stateColumn,
		},
		StartRow:     f.startRow,
		EndRow:       endRow,
		Mode:         strings.ToLower(strings.TrimSpace(f.mode)),
		ModelName:    strings.TrimSpace(f.model),
		BudgetPerRow: f.budgetPerRow,
	}
	if settings.ModelName == "" {
		settings.ModelName = cfg.LLM.Model
	}
	if settings.BudgetPerRow == 0 {
		settings.BudgetPerRow = cfg.Costs.BudgetPerRow
	}
	if err := settings.Validate(); err != nil {
		return records.JobSettings{}, err
	}
	return settings, nil
}

func lastDataRow(input string) (int, error) {
	table, err := sheet.Open(input)
	if err != nil {
		return 0, err
	}
	defer table.Close()
	last := table.LastRow()
	if last < 2 {
		return 0, fmt.Errorf("%s has a header but no data rows", input)
	}
	return last, nil
}
