package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads the first sheet of an Excel workbook into a table.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("open xlsx: %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read xlsx: sheet %q is empty", sheets[0])
	}
	header := make([]string, len(rows[0]))
	for i, v := range rows[0] {
		header[i] = strings.TrimSpace(v)
	}
	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = strings.TrimSpace(v)
		}
		records = append(records, rec)
	}
	return FromRecords(header, records), nil
}

// WriteXLSX serializes the table as a single-sheet workbook.
func (t *Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	header := make([]interface{}, t.NumCols())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]interface{}, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.cols {
			if c.IsMissing(i) {
				row[j] = nil
			} else if c.IsNumeric() {
				row[j] = c.Float[i]
			} else {
				row[j] = c.Text[i]
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

// ReadFile dispatches on the file extension: .csv/.tsv via ReadCSV, .xlsx
// via ReadXLSX. Anything else is an error.
func ReadFile(path string) (*Table, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"):
		return ReadCSV(path)
	case strings.HasSuffix(lower, ".xlsx"):
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported input format (expected .csv, .tsv or .xlsx): %s", path)
	}
}
