package records

import (
	"errors"
	"fmt"
	"strings"
)

// Processing modes. Enhanced consults the paid place-lookup service before
// falling back to web search; basic uses web search only.
const (
	ModeBasic    = "basic"
	ModeEnhanced = "enhanced"
)

// ColumnMapping binds the required and optional input fields to header
// names in the source sheet. Name is mandatory; the rest may be empty.
type ColumnMapping struct {
	Name    string `json:"merchant_name" toml:"merchant_name"`
	Address string `json:"address" toml:"address"`
	City    string `json:"city" toml:"city"`
	Country string `json:"country" toml:"country"`
	State   string `json:"state" toml:"state"`
}

// Mapped returns every non-empty header claimed by the mapping. Columns
// outside this set are passthrough data.
func (m ColumnMapping) Mapped() []string {
	var headers []string
	for _, h := range []string{m.Name, m.Address, m.City, m.Country, m.State} {
		if strings.TrimSpace(h) != "" {
			headers = append(headers, h)
		}
	}
	return headers
}

// OutputColumn projects one ResolvedRecord field into a named sheet column.
type OutputColumn struct {
	SourceField  string `json:"source_field" toml:"source_field"`
	OutputHeader string `json:"output_header" toml:"output_header"`
	Enabled      bool   `json:"enabled" toml:"enabled"`
}

// DefaultOutputColumns returns the standard projection covering every
// resolved field.
func DefaultOutputColumns() []OutputColumn {
	defaults := []struct{ field, header string }{
		{"cleaned_name", "Cleaned Merchant Name"},
		{"website", "Website"},
		{"socials", "Social(s)"},
		{"evidence", "Evidence"},
		{"evidence_links", "Evidence Links"},
		{"accumulated_cost", "Cost per Row"},
		{"logo_filename", "Logo Filename"},
		{"remarks", "Remarks"},
	}
	columns := make([]OutputColumn, 0, len(defaults))
	for _, d := range defaults {
		columns = append(columns, OutputColumn{SourceField: d.field, OutputHeader: d.header, Enabled: true})
	}
	return columns
}

// FieldValue extracts the projected value for a source field, joining
// list-valued fields with a comma separator. The second return is false
// for unknown field names.
func (r ResolvedRecord) FieldValue(sourceField string) (string, bool) {
	switch sourceField {
	case "cleaned_name":
		return r.CleanedName, true
	case "website":
		return r.Website, true
	case "socials":
		return strings.Join(r.Socials, ", "), true
	case "evidence":
		return r.Evidence, true
	case "evidence_links":
		return strings.Join(r.EvidenceLinks, ", "), true
	case "accumulated_cost":
		return fmt.Sprintf("%.4f", r.AccumulatedCost), true
	case "logo_filename":
		return r.LogoFilename, true
	case "remarks":
		return r.Remarks, true
	default:
		return "", false
	}
}

// JobSettings is the full configuration of one batch job. StartRow and
// EndRow are inclusive 1-based sheet rows where row 1 is the header, so
// the first processable row is 2.
type JobSettings struct {
	InputPath     string         `json:"input_filepath" toml:"input_filepath"`
	OutputPath    string         `json:"output_filepath" toml:"output_filepath"`
	ColumnMapping ColumnMapping  `json:"column_mapping" toml:"column_mapping"`
	StartRow      int            `json:"start_row" toml:"start_row"`
	EndRow        int            `json:"end_row" toml:"end_row"`
	Mode          string         `json:"mode" toml:"mode"`
	ModelName     string         `json:"model_name" toml:"model_name"`
	BudgetPerRow  float64        `json:"budget_per_row" toml:"budget_per_row"`
	OutputColumns []OutputColumn `json:"output_columns" toml:"output_columns"`
}

// Clone returns a deep copy so the worker goroutine can never observe
// caller-side mutation of slices.
func (s JobSettings) Clone() JobSettings {
	cp := s
	if s.OutputColumns != nil {
		cp.OutputColumns = make([]OutputColumn, len(s.OutputColumns))
		copy(cp.OutputColumns, s.OutputColumns)
	}
	return cp
}

// Validate rejects settings the orchestrator cannot safely run with.
func (s JobSettings) Validate() error {
	if strings.TrimSpace(s.InputPath) == "" {
		return errors.New("job settings: input path required")
	}
	if strings.TrimSpace(s.OutputPath) == "" {
		return errors.New("job settings: output path required")
	}
	if strings.TrimSpace(s.ColumnMapping.Name) == "" {
		return errors.New("job settings: merchant name column required")
	}
	if s.StartRow < 2 {
		return fmt.Errorf("job settings: start row %d precedes first data row 2", s.StartRow)
	}
	if s.EndRow < s.StartRow {
		return fmt.Errorf("job settings: end row %d precedes start row %d", s.EndRow, s.StartRow)
	}
	switch s.Mode {
	case ModeBasic, ModeEnhanced:
	default:
		return fmt.Errorf("job settings: unknown mode %q", s.Mode)
	}
	return nil
}
