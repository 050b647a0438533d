package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mibikit/cellprep/internal/table"
)

// InferenceCode is the placeholder label emitted when the Class column is
// empty (inference mode) and no real encoding exists.
const InferenceCode = -1

// encodeCellTypes builds the integer label per row and, in training mode,
// the reversible decoder. Codes are assigned to the distinct post-cleanup
// Class values in lexicographic order, which fixes the decoder contents
// deterministically. An all-empty Class column degenerates to the
// InferenceCode placeholder with no decoder; a partially empty column is a
// fatal annotation inconsistency.
func encodeCellTypes(f *frame, sum *Summary) ([]int, map[int]string, error) {
	idx := f.metaIndex("Class")
	if idx < 0 {
		return nil, nil, &MissingColumnError{Column: "Class"}
	}
	class := f.tbl.Col(idx)

	n := f.tbl.NumRows()
	empty := 0
	for i := 0; i < n; i++ {
		if class.IsMissing(i) {
			empty++
		}
	}
	labels := make([]int, n)
	switch empty {
	case n:
		for i := range labels {
			labels[i] = InferenceCode
		}
		return labels, nil, nil
	case 0:
		cellTypes := distinctNonEmpty(class)
		codes := make(map[string]int, len(cellTypes))
		decoder := make(map[int]string, len(cellTypes))
		for code, ct := range cellTypes {
			codes[ct] = code
			decoder[code] = ct
		}
		for i := 0; i < n; i++ {
			labels[i] = codes[class.Text[i]]
		}
		sum.CellTypes = cellTypes
		sum.Encoding = make([]LabelCode, len(cellTypes))
		for code, ct := range cellTypes {
			sum.Encoding[code] = LabelCode{Code: code, Label: ct}
		}
		sum.CellTypeCounts = countValues(class)
		return labels, decoder, nil
	default:
		return nil, nil, &AnnotationError{Column: "Class", Empty: empty, Total: n}
	}
}

// binarizeClassification converts the +/- suffix convention of the
// Classification column into 1/0 labels, 1 meaning the functional marker is
// present. The decoder maps 1 to the first and 0 to the second of the two
// sorted distinct labels ("CD69+" sorts before "CD69-").
func binarizeClassification(f *frame, sum *Summary) ([]int, map[int]string, error) {
	idx := f.metaIndex("Classification")
	if idx < 0 {
		return nil, nil, &MissingColumnError{Column: "Classification"}
	}
	cls := f.tbl.Col(idx)

	n := f.tbl.NumRows()
	empty := 0
	for i := 0; i < n; i++ {
		if cls.IsMissing(i) {
			empty++
		}
	}
	if empty > 0 {
		return nil, nil, &AnnotationError{Column: "Classification", Empty: empty, Total: n}
	}

	distinct := distinctNonEmpty(cls)
	if len(distinct) != 2 {
		return nil, nil, fmt.Errorf("binarize: expected exactly 2 classification labels, found %d (%s)",
			len(distinct), strings.Join(distinct, ", "))
	}
	decoder := map[int]string{1: distinct[0], 0: distinct[1]}

	bin := make([]int, n)
	for i := 0; i < n; i++ {
		if strings.Contains(cls.Text[i], "+") {
			bin[i] = 1
		}
	}
	sum.ClassificationCounts = countValues(cls)
	return bin, decoder, nil
}

// oneHotCellTypes builds one 0/1 feature column per cell type, named by the
// cell type, in sorted order. Each row has exactly one hot column.
func oneHotCellTypes(f *frame) ([]*table.Column, error) {
	idx := f.metaIndex("Class")
	if idx < 0 {
		return nil, &MissingColumnError{Column: "Class"}
	}
	class := f.tbl.Col(idx)
	cellTypes := distinctNonEmpty(class)

	n := f.tbl.NumRows()
	cols := make([]*table.Column, len(cellTypes))
	pos := make(map[string]int, len(cellTypes))
	for i, ct := range cellTypes {
		c := table.NewFloatColumn(ct, n)
		for row := range c.Float {
			c.Missing[row] = false
		}
		cols[i] = c
		pos[ct] = i
	}
	for row := 0; row < n; row++ {
		if class.Text[row] == "" {
			return nil, &AnnotationError{Column: "Class", Empty: 1, Total: n}
		}
		cols[pos[class.Text[row]]].Float[row] = 1
	}
	return cols, nil
}

// countValues tallies a textual column, most frequent first.
func countValues(c *table.Column) []LabelCount {
	counts := make(map[string]int)
	for _, v := range c.Text {
		if v != "" {
			counts[v]++
		}
	}
	out := make([]LabelCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, LabelCount{Label: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Label < out[j].Label
		}
		return out[i].Count > out[j].Count
	})
	return out
}
