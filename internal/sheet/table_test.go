package sheet

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"merchlens/internal/records"
)

// writeWorkbook builds a small fixture: a header plus one row per entry.
func writeWorkbook(t *testing.T, headers []string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheetName := f.GetSheetName(0)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			t.Fatal(err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "merchants.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func testMapping() records.ColumnMapping {
	return records.ColumnMapping{Name: "Merchant", City: "City", Country: "Country"}
}

func TestRecordMapsColumnsAndPassthrough(t *testing.T) {
	path := writeWorkbook(t,
		[]string{"TxID", "Merchant", "City", "Country"},
		[][]string{
			{"t-1", "SQ *Coffee Shop#5", "Austin", "USA"},
			{"t-2", "Corner Bakery", "Portland", ""},
		},
	)
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer table.Close()

	if table.LastRow() != 3 {
		t.Fatalf("LastRow = %d, want 3", table.LastRow())
	}

	raw, err := table.Record(2, testMapping())
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if raw.Name != "SQ *Coffee Shop#5" || raw.City != "Austin" || raw.Country != "USA" {
		t.Fatalf("mapped fields wrong: %+v", raw)
	}
	if len(raw.Extra) != 1 || raw.Extra[0].Header != "TxID" || raw.Extra[0].Value != "t-1" {
		t.Fatalf("passthrough wrong: %+v", raw.Extra)
	}

	raw, err = table.Record(3, testMapping())
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if raw.Country != "" {
		t.Fatalf("ragged row should read empty, got %q", raw.Country)
	}
}

func TestRecordRowBoundaries(t *testing.T) {
	path := writeWorkbook(t,
		[]string{"Merchant"},
		[][]string{{"Acme"}, {"Bravo"}},
	)
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer table.Close()

	// Row 2 is the first data row, row 3 the last.
	if _, err := table.Record(2, records.ColumnMapping{Name: "Merchant"}); err != nil {
		t.Fatalf("first data row: %v", err)
	}
	if _, err := table.Record(3, records.ColumnMapping{Name: "Merchant"}); err != nil {
		t.Fatalf("last data row: %v", err)
	}
	if _, err := table.Record(1, records.ColumnMapping{Name: "Merchant"}); err == nil {
		t.Fatal("header row must not be readable as data")
	}
	if _, err := table.Record(4, records.ColumnMapping{Name: "Merchant"}); err == nil {
		t.Fatal("row past the end must error")
	}
}

func TestRecordMissingNameColumn(t *testing.T) {
	path := writeWorkbook(t, []string{"Something"}, [][]string{{"x"}})
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer table.Close()

	if _, err := table.Record(2, records.ColumnMapping{Name: "Merchant"}); err == nil {
		t.Fatal("missing name column must error")
	}
}

func TestApplyProjectionOverwritesOnlyTargetSlice(t *testing.T) {
	path := writeWorkbook(t,
		[]string{"Merchant", "City"},
		[][]string{
			{"Alpha", "Austin"},
			{"Bravo", "Boston"},
			{"Charlie", "Chicago"},
		},
	)
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer table.Close()

	resolved := []records.ResolvedRecord{
		{CleanedName: "Bravo Inc", Website: "https://bravo.example", AccumulatedCost: 0.1234},
	}
	columns := []records.OutputColumn{
		{SourceField: "cleaned_name", OutputHeader: "Cleaned Merchant Name", Enabled: true},
		{SourceField: "website", OutputHeader: "Website", Enabled: true},
		{SourceField: "accumulated_cost", OutputHeader: "Cost per Row", Enabled: true},
		{SourceField: "remarks", OutputHeader: "Remarks", Enabled: false},
	}
	if err := table.ApplyProjection(3, resolved, columns); err != nil {
		t.Fatalf("ApplyProjection returned error: %v", err)
	}

	out := filepath.Join(t.TempDir(), "out.xlsx")
	if err := table.Write(out); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	reopened, err := Open(out)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	header := reopened.Header()
	if len(header) != 5 || header[2] != "Cleaned Merchant Name" || header[4] != "Cost per Row" {
		t.Fatalf("projected headers wrong: %v", header)
	}
	if reopened.HasColumn("Remarks") {
		t.Fatal("disabled column must not be written")
	}
	if got := reopened.Cell(3, 2); got != "Bravo Inc" {
		t.Fatalf("row 3 cleaned name %q", got)
	}
	if got := reopened.Cell(3, 4); got != "0.1234" {
		t.Fatalf("row 3 cost %q", got)
	}
	// Rows outside the slice keep their original cells untouched.
	if got := reopened.Cell(2, 0); got != "Alpha" {
		t.Fatalf("row 2 merchant %q", got)
	}
	if got := reopened.Cell(2, 2); got != "" {
		t.Fatalf("row 2 should have no projection, got %q", got)
	}
	if got := reopened.Cell(4, 1); got != "Chicago" {
		t.Fatalf("row 4 city %q", got)
	}
	if got := reopened.Cell(4, 3); got != "" {
		t.Fatalf("row 4 should have no projection, got %q", got)
	}
}

func TestApplyProjectionReusesExistingColumns(t *testing.T) {
	path := writeWorkbook(t,
		[]string{"Merchant", "Website"},
		[][]string{{"Alpha", "stale"}},
	)
	table, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer table.Close()

	columns := []records.OutputColumn{{SourceField: "website", OutputHeader: "Website", Enabled: true}}
	resolved := []records.ResolvedRecord{{Website: "https://alpha.example"}}
	if err := table.ApplyProjection(2, resolved, columns); err != nil {
		t.Fatalf("ApplyProjection returned error: %v", err)
	}

	if len(table.Header()) != 2 {
		t.Fatalf("existing column should be reused, headers %v", table.Header())
	}

	out := filepath.Join(t.TempDir(), "out.xlsx")
	if err := table.Write(out); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	reopened, err := Open(out)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := reopened.Cell(2, 1); got != "https://alpha.example" {
		t.Fatalf("website cell %q", got)
	}
}
