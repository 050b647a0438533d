package table

import (
	"fmt"
	"strconv"
)

// Column is a single named column. Exactly one of Float or Text is populated:
// numeric columns carry Float plus a parallel Missing mask, textual columns
// carry Text where the empty string means missing.
type Column struct {
	Name    string
	Float   []float64
	Missing []bool
	Text    []string
}

// NewFloatColumn returns a numeric column of n rows, all missing.
func NewFloatColumn(name string, n int) *Column {
	return &Column{Name: name, Float: make([]float64, n), Missing: allMissing(n)}
}

// NewTextColumn returns a textual column of n rows, all empty.
func NewTextColumn(name string, n int) *Column {
	return &Column{Name: name, Text: make([]string, n)}
}

func allMissing(n int) []bool {
	m := make([]bool, n)
	for i := range m {
		m[i] = true
	}
	return m
}

// IsNumeric reports whether the column holds float values.
func (c *Column) IsNumeric() bool { return c.Float != nil }

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.IsNumeric() {
		return len(c.Float)
	}
	return len(c.Text)
}

// IsMissing reports whether row i has no value.
func (c *Column) IsMissing(i int) bool {
	if c.IsNumeric() {
		return c.Missing[i]
	}
	return c.Text[i] == ""
}

// HasMissing reports whether any row of the column is missing.
func (c *Column) HasMissing() bool {
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			return true
		}
	}
	return false
}

// Cell formats the value at row i for serialization. Missing values render
// as the empty string.
func (c *Column) Cell(i int) string {
	if c.IsNumeric() {
		if c.Missing[i] {
			return ""
		}
		return strconv.FormatFloat(c.Float[i], 'g', -1, 64)
	}
	return c.Text[i]
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name}
	if c.IsNumeric() {
		out.Float = append([]float64(nil), c.Float...)
		out.Missing = append([]bool(nil), c.Missing...)
	} else {
		out.Text = append([]string(nil), c.Text...)
	}
	return out
}

// Table is an ordered collection of equal-length columns. Column names are
// not required to be unique; duplicates arise from header normalization and
// are resolved by the duplicate-merge stage.
type Table struct {
	cols  []*Column
	nrows int
}

// New returns an empty table expecting n rows per column.
func New(n int) *Table { return &Table{nrows: n} }

// NumRows returns the row count shared by every column.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the backing column slice in order.
func (t *Table) Columns() []*Column { return t.cols }

// Col returns the column at position i.
func (t *Table) Col(i int) *Column { return t.cols[i] }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the first column with the given name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Lookup returns the first column with the given name.
func (t *Table) Lookup(name string) (*Column, bool) {
	if i := t.Index(name); i >= 0 {
		return t.cols[i], true
	}
	return nil, false
}

// Append adds a column at the end of the table.
func (t *Table) Append(c *Column) error {
	if c.Len() != t.nrows {
		return fmt.Errorf("column %q has %d rows, table has %d", c.Name, c.Len(), t.nrows)
	}
	t.cols = append(t.cols, c)
	return nil
}

// InsertAt places a column at position i, shifting later columns right.
func (t *Table) InsertAt(i int, c *Column) error {
	if c.Len() != t.nrows {
		return fmt.Errorf("column %q has %d rows, table has %d", c.Name, c.Len(), t.nrows)
	}
	t.cols = append(t.cols, nil)
	copy(t.cols[i+1:], t.cols[i:])
	t.cols[i] = c
	return nil
}

// RemoveAt drops the column at position i.
func (t *Table) RemoveAt(i int) {
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
}

// Remove drops the first column with the given name, reporting whether one
// was found.
func (t *Table) Remove(name string) bool {
	if i := t.Index(name); i >= 0 {
		t.RemoveAt(i)
		return true
	}
	return false
}

// Select returns a new table containing the named columns in the given
// order. The columns are shared, not copied.
func (t *Table) Select(names []string) (*Table, error) {
	out := New(t.nrows)
	for _, name := range names {
		c, ok := t.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		out.cols = append(out.cols, c)
	}
	return out, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.nrows)
	for _, c := range t.cols {
		out.cols = append(out.cols, c.Clone())
	}
	return out
}

// FromColumns builds a table from pre-built columns, validating that all
// lengths agree.
func FromColumns(cols []*Column) (*Table, error) {
	if len(cols) == 0 {
		return New(0), nil
	}
	t := New(cols[0].Len())
	for _, c := range cols {
		if err := t.Append(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromRecords builds a table from a header row plus data records. A column
// becomes numeric when every non-empty cell parses as a float; otherwise it
// stays textual. Short records are padded with missing values.
func FromRecords(header []string, records [][]string) *Table {
	n := len(records)
	t := New(n)
	for j, name := range header {
		numeric := true
		nonEmpty := 0
		for i := 0; i < n; i++ {
			v := cellAt(records, i, j)
			if v == "" {
				continue
			}
			nonEmpty++
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
				break
			}
		}
		if numeric && nonEmpty > 0 {
			c := NewFloatColumn(name, n)
			for i := 0; i < n; i++ {
				v := cellAt(records, i, j)
				if v == "" {
					continue
				}
				f, _ := strconv.ParseFloat(v, 64)
				c.Float[i] = f
				c.Missing[i] = false
			}
			t.cols = append(t.cols, c)
			continue
		}
		c := NewTextColumn(name, n)
		for i := 0; i < n; i++ {
			c.Text[i] = cellAt(records, i, j)
		}
		t.cols = append(t.cols, c)
	}
	return t
}

func cellAt(records [][]string, i, j int) string {
	if j < len(records[i]) {
		return records[i][j]
	}
	return ""
}
