package pipeline

import (
	"sort"

	"github.com/mibikit/cellprep/internal/header"
)

// substituteMembrane applies the Cytoplasm←Membrane rule. Densely packed
// segmentations can leave cells without a cytoplasm compartment (nucleus and
// cell boundary share pixels), so membrane intensities stand in for
// cytoplasm ones. Per (marker, statistic) with both compartments present,
// each row takes the Membrane value where one exists, keeps the Cytoplasm
// value otherwise, and the Membrane column is dropped. The surviving column
// keeps the Cytoplasm header.
//
// Must run before fillNucleusFromCell: both rules can touch the same
// (marker, statistic) group.
func substituteMembrane(f *frame, sum *Summary) {
	var drop []int
	for i, k := range f.keys {
		if k.Kind != header.Measurement || k.Compartment != "Cytoplasm" {
			continue
		}
		memIdx := f.measurementIndex(k.Marker, "Membrane", k.Statistic)
		if memIdx < 0 {
			continue
		}
		cyto := ensureFloat(f.tbl.Col(i))
		f.replaceAt(i, cyto, k)
		mem := f.tbl.Col(memIdx)
		if !cyto.IsNumeric() || !mem.IsNumeric() {
			continue
		}
		for row := 0; row < f.tbl.NumRows(); row++ {
			if mem.IsMissing(row) {
				continue
			}
			if cyto.Missing[row] || cyto.Float[row] != mem.Float[row] {
				sum.CytoplasmCellsSubstituted++
			}
			cyto.Float[row] = mem.Float[row]
			cyto.Missing[row] = false
		}
		drop = append(drop, memIdx)
		sum.MembraneColumnsDropped++
	}
	removeAll(f, drop)
}

// fillNucleusFromCell applies the Nucleus←Cell rule: rows whose nucleus
// measurement is missing (nucleus area too small to segment) take the
// whole-cell measurement for the same (marker, statistic). Rows with a
// present nucleus value are untouched and both columns survive.
func fillNucleusFromCell(f *frame, sum *Summary) {
	for i, k := range f.keys {
		if k.Kind != header.Measurement || k.Compartment != "Nucleus" {
			continue
		}
		cellIdx := f.measurementIndex(k.Marker, "Cell", k.Statistic)
		if cellIdx < 0 {
			continue
		}
		nuc := ensureFloat(f.tbl.Col(i))
		f.replaceAt(i, nuc, k)
		cell := f.tbl.Col(cellIdx)
		if !nuc.IsNumeric() || !cell.IsNumeric() {
			continue
		}
		for row := 0; row < f.tbl.NumRows(); row++ {
			if nuc.Missing[row] && !cell.IsMissing(row) {
				nuc.Float[row] = cell.Float[row]
				nuc.Missing[row] = false
				sum.NucleusCellsFilled++
			}
		}
	}
}

// removeAll drops the given column positions, highest first so earlier
// indices stay valid.
func removeAll(f *frame, idxs []int) {
	sort.Sort(sort.Reverse(sort.IntSlice(idxs)))
	for _, i := range idxs {
		f.removeAt(i)
	}
}
