package pipeline

import (
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/mibikit/cellprep/internal/header"
	"github.com/mibikit/cellprep/internal/table"
)

// mergeTolerance bounds how far two duplicate values may drift apart before
// the disagreement is treated as data corruption rather than float noise.
const mergeTolerance = 1e-9

// mergeDuplicates collapses columns sharing a ColumnKey into one. The merged
// value per row is the first non-missing value scanning the group in
// original column order; non-missing values that disagree beyond tolerance
// are a fatal consistency failure. A table without duplicate keys is
// returned unchanged.
func mergeDuplicates(f *frame, sum *Summary) error {
	groups := make(map[header.Key][]int)
	order := make([]header.Key, 0, f.tbl.NumCols())
	for i, k := range f.keys {
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	if len(order) == f.tbl.NumCols() {
		return nil
	}

	newCols := make([]*table.Column, 0, len(order))
	newKeys := make([]header.Key, 0, len(order))
	for _, k := range order {
		idxs := groups[k]
		if len(idxs) == 1 {
			newCols = append(newCols, f.tbl.Col(idxs[0]))
			newKeys = append(newKeys, k)
			continue
		}
		merged, err := mergeGroup(f, k, idxs)
		if err != nil {
			return err
		}
		sources := make([]string, len(idxs))
		for i, idx := range idxs {
			sources[i] = f.tbl.Col(idx).Name
		}
		sum.MergedColumns = append(sum.MergedColumns, MergedGroup{
			Canonical: k.String(),
			Sources:   sources,
		})
		newCols = append(newCols, merged)
		newKeys = append(newKeys, k)
	}

	tbl, err := table.FromColumns(newCols)
	if err != nil {
		return err
	}
	f.tbl = tbl
	f.keys = newKeys
	return nil
}

func mergeGroup(f *frame, k header.Key, idxs []int) (*table.Column, error) {
	n := f.tbl.NumRows()
	sources := make([]string, len(idxs))
	numeric := false
	for i, idx := range idxs {
		sources[i] = f.tbl.Col(idx).Name
		if f.tbl.Col(idx).IsNumeric() {
			numeric = true
		}
	}

	if numeric {
		// A textual column with data in a numeric group can never agree
		// with its siblings; surface it instead of skipping it.
		cols := make([]*table.Column, len(idxs))
		for i, idx := range idxs {
			c := ensureFloat(f.tbl.Col(idx))
			if !c.IsNumeric() {
				row := 0
				for r, v := range c.Text {
					if v != "" {
						row = r
						break
					}
				}
				return nil, &ConflictError{Row: row, Column: k.String(), Sources: sources}
			}
			cols[i] = c
		}
		out := table.NewFloatColumn(k.String(), n)
		for row := 0; row < n; row++ {
			for _, c := range cols {
				if c.IsMissing(row) {
					continue
				}
				v := c.Float[row]
				if out.Missing[row] {
					out.Float[row] = v
					out.Missing[row] = false
					continue
				}
				if !scalar.EqualWithinAbsOrRel(out.Float[row], v, mergeTolerance, mergeTolerance) {
					return nil, &ConflictError{
						Row:     row,
						Column:  k.String(),
						Sources: sources,
						A:       out.Float[row],
						B:       v,
					}
				}
			}
		}
		return out, nil
	}

	out := table.NewTextColumn(k.String(), n)
	for row := 0; row < n; row++ {
		for _, idx := range idxs {
			v := f.tbl.Col(idx).Text[row]
			if v == "" {
				continue
			}
			if out.Text[row] == "" {
				out.Text[row] = v
				continue
			}
			if out.Text[row] != v {
				return nil, &ConflictError{Row: row, Column: k.String(), Sources: sources}
			}
		}
	}
	return out, nil
}
