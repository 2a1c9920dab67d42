// Package sheet reads and writes the tabular row source. Rows are
// addressed 1-based with row 1 as the header, so the first data row is 2.
// This package owns the conversion to spreadsheet coordinates; nothing
// else in the system touches cell addressing.
package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"merchlens/internal/records"
)

// Table wraps one open workbook. All operations target the first sheet.
type Table struct {
	file        *excelize.File
	sheet       string
	rows        [][]string
	header      []string
	headerIndex map[string]int
}

// Open loads a workbook and caches its first sheet.
func Open(path string) (*Table, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("sheet: open %s: %w", path, err)
	}
	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		file.Close()
		return nil, fmt.Errorf("sheet: %s has no sheets", path)
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("sheet: read rows: %w", err)
	}
	if len(rows) == 0 {
		file.Close()
		return nil, fmt.Errorf("sheet: %s is empty", path)
	}

	t := &Table{
		file:        file,
		sheet:       sheetName,
		rows:        rows,
		headerIndex: make(map[string]int, len(rows[0])),
	}
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		t.header = append(t.header, h)
		if h == "" {
			continue
		}
		if _, dup := t.headerIndex[h]; !dup {
			t.headerIndex[h] = i
		}
	}
	return t, nil
}

// Close releases the workbook.
func (t *Table) Close() error {
	return t.file.Close()
}

// Header returns the trimmed header row.
func (t *Table) Header() []string {
	return t.header
}

// LastRow returns the 1-based number of the last row in the sheet. A
// header-only sheet returns 1.
func (t *Table) LastRow() int {
	return len(t.rows)
}

// HasColumn reports whether a header exists.
func (t *Table) HasColumn(header string) bool {
	_, ok := t.headerIndex[strings.TrimSpace(header)]
	return ok
}

// Cell returns the trimmed value at a 1-based sheet row and 0-based
// column index, tolerating the ragged rows the reader produces.
func (t *Table) Cell(rowNum, col int) string {
	if rowNum < 1 || rowNum > len(t.rows) {
		return ""
	}
	row := t.rows[rowNum-1]
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Record maps one data row into a RawRecord. Columns the mapping does not
// claim are carried as ordered passthrough data.
func (t *Table) Record(rowNum int, mapping records.ColumnMapping) (records.RawRecord, error) {
	if rowNum < 2 || rowNum > t.LastRow() {
		return records.RawRecord{}, fmt.Errorf("sheet: row %d outside data range [2, %d]", rowNum, t.LastRow())
	}
	nameCol, ok := t.headerIndex[strings.TrimSpace(mapping.Name)]
	if !ok {
		return records.RawRecord{}, fmt.Errorf("sheet: merchant name column %q not found", mapping.Name)
	}

	lookup := func(header string) string {
		header = strings.TrimSpace(header)
		if header == "" {
			return ""
		}
		col, ok := t.headerIndex[header]
		if !ok {
			return ""
		}
		return t.Cell(rowNum, col)
	}

	raw := records.RawRecord{
		Name:    t.Cell(rowNum, nameCol),
		Address: lookup(mapping.Address),
		City:    lookup(mapping.City),
		Country: lookup(mapping.Country),
		State:   lookup(mapping.State),
	}

	mapped := make(map[string]struct{})
	for _, h := range mapping.Mapped() {
		mapped[h] = struct{}{}
	}
	for i, h := range t.header {
		if h == "" {
			continue
		}
		if _, claimed := mapped[h]; claimed {
			continue
		}
		raw.Extra = append(raw.Extra, records.ExtraColumn{Header: h, Value: t.Cell(rowNum, i)})
	}
	return raw, nil
}

// ApplyProjection overwrites the slice of rows starting at actualStart
// with the enabled output columns of the resolved records. Missing output
// headers are appended after the last existing column; rows outside the
// slice are left untouched, which is what lets several checkpointed
// partial runs compose into one correct file.
func (t *Table) ApplyProjection(actualStart int, resolved []records.ResolvedRecord, columns []records.OutputColumn) error {
	if actualStart < 2 {
		return fmt.Errorf("sheet: projection start row %d precedes first data row 2", actualStart)
	}

	type target struct {
		field string
		col   int
	}
	targets := make([]target, 0, len(columns))
	nextCol := len(t.header)
	for _, c := range columns {
		if !c.Enabled {
			continue
		}
		header := strings.TrimSpace(c.OutputHeader)
		if header == "" {
			return fmt.Errorf("sheet: output column %q has no header", c.SourceField)
		}
		col, ok := t.headerIndex[header]
		if !ok {
			col = nextCol
			nextCol++
			t.headerIndex[header] = col
			t.header = append(t.header, header)
			if err := t.setCell(1, col, header); err != nil {
				return err
			}
		}
		targets = append(targets, target{field: c.SourceField, col: col})
	}

	for i, rec := range resolved {
		rowNum := actualStart + i
		for _, tg := range targets {
			value, ok := rec.FieldValue(tg.field)
			if !ok {
				return fmt.Errorf("sheet: unknown output field %q", tg.field)
			}
			if err := t.setCell(rowNum, tg.col, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Table) setCell(rowNum, col int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
	if err != nil {
		return fmt.Errorf("sheet: cell address: %w", err)
	}
	if err := t.file.SetCellValue(t.sheet, cell, value); err != nil {
		return fmt.Errorf("sheet: set %s: %w", cell, err)
	}
	return nil
}

// Write saves the workbook to the given path.
func (t *Table) Write(path string) error {
	if err := t.file.SaveAs(path); err != nil {
		return fmt.Errorf("sheet: write %s: %w", path, err)
	}
	return nil
}
