package pipeline

import (
	"github.com/mibikit/cellprep/internal/header"
	"github.com/mibikit/cellprep/internal/table"
)

// frame pairs the working table with the classified key of every column.
// The two slices stay parallel through every stage.
type frame struct {
	tbl  *table.Table
	keys []header.Key
}

// classify (re)builds the key slice from the current column names.
func (f *frame) classify(cls *header.Classifier) error {
	keys := make([]header.Key, f.tbl.NumCols())
	for i, c := range f.tbl.Columns() {
		k, err := cls.Classify(c.Name)
		if err != nil {
			return err
		}
		keys[i] = k
	}
	f.keys = keys
	return nil
}

// metaIndex returns the position of the metadata column with the given
// canonical name, or -1.
func (f *frame) metaIndex(name string) int {
	for i, k := range f.keys {
		if k.Kind == header.Metadata && k.Name == name {
			return i
		}
	}
	return -1
}

// metaCol returns the metadata column with the given canonical name.
func (f *frame) metaCol(name string) (*table.Column, bool) {
	if i := f.metaIndex(name); i >= 0 {
		return f.tbl.Col(i), true
	}
	return nil, false
}

// measurementIndex returns the position of the measurement column matching
// (marker, compartment, statistic), or -1.
func (f *frame) measurementIndex(marker, compartment, statistic string) int {
	for i, k := range f.keys {
		if k.Kind == header.Measurement && k.Marker == marker &&
			k.Compartment == compartment && k.Statistic == statistic {
			return i
		}
	}
	return -1
}

// removeAt drops the column and its key at position i.
func (f *frame) removeAt(i int) {
	f.tbl.RemoveAt(i)
	f.keys = append(f.keys[:i], f.keys[i+1:]...)
}

// replaceAt swaps in a new column and key at position i.
func (f *frame) replaceAt(i int, c *table.Column, k header.Key) {
	f.tbl.Columns()[i] = c
	f.keys[i] = k
}

// ensureFloat converts an all-empty textual column into a numeric one so
// that row-level fills have somewhere to land. Columns with textual data are
// returned unchanged.
func ensureFloat(c *table.Column) *table.Column {
	if c.IsNumeric() {
		return c
	}
	for _, v := range c.Text {
		if v != "" {
			return c
		}
	}
	return table.NewFloatColumn(c.Name, c.Len())
}

// ensureText renders a numeric column as text. Annotation columns whose
// values happen to all parse as numbers (e.g. coded class labels) are folded
// back to strings.
func ensureText(c *table.Column) *table.Column {
	if !c.IsNumeric() {
		return c
	}
	out := table.NewTextColumn(c.Name, c.Len())
	for i := range out.Text {
		out.Text[i] = c.Cell(i)
	}
	return out
}
