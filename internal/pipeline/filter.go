package pipeline

import (
	"sort"

	"github.com/mibikit/cellprep/internal/header"
)

// FilterSpec is the user-directed filtering configuration. Each field is
// independently optional; an empty set means no filtering along that
// dimension.
type FilterSpec struct {
	// UnwantedCellTypes lists Class values to relabel to ChangeTo. Rows are
	// never dropped.
	UnwantedCellTypes []string
	// ChangeTo is the replacement label for unwanted cell types.
	ChangeTo string
	// UnwantedMarkers, UnwantedCompartments and UnwantedStatistics remove
	// the matching measurement columns. A statistic entry matches either the
	// bare statistic ("Mean") or its compartment-qualified form
	// ("Nucleus: Mean").
	UnwantedMarkers      []string
	UnwantedCompartments []string
	UnwantedStatistics   []string
	// DefaultStatistics are statistics dropped when present but not
	// validated against the data; the configured default list applies
	// to exports that may not carry every statistic it names.
	DefaultStatistics []string
	// KeepMetadata names additional metadata columns to retain alongside the
	// required ones.
	KeepMetadata []string
}

// validateFilter rejects filter entries that reference values absent from
// the data before anything is modified. Cell-type entries are not validated
// in inference mode, where no annotations exist to match against.
func validateFilter(f *frame, spec FilterSpec, inference bool) error {
	markers := make(map[string]bool)
	compartments := make(map[string]bool)
	statistics := make(map[string]bool)
	for _, k := range f.keys {
		if k.Kind != header.Measurement {
			continue
		}
		markers[k.Marker] = true
		compartments[k.Compartment] = true
		statistics[k.Statistic] = true
		statistics[k.Compartment+": "+k.Statistic] = true
	}
	for _, m := range spec.UnwantedMarkers {
		if !markers[m] {
			return &FilterSpecError{Field: "marker", Value: m}
		}
	}
	for _, c := range spec.UnwantedCompartments {
		if !compartments[c] {
			return &FilterSpecError{Field: "compartment", Value: c}
		}
	}
	for _, s := range spec.UnwantedStatistics {
		if !statistics[s] {
			return &FilterSpecError{Field: "statistic", Value: s}
		}
	}
	for _, name := range spec.KeepMetadata {
		if f.metaIndex(name) < 0 {
			return &FilterSpecError{Field: "metadata column", Value: name}
		}
	}
	if !inference {
		cellTypes := make(map[string]bool)
		if class, ok := f.metaCol("Class"); ok {
			for _, v := range class.Text {
				cellTypes[v] = true
			}
		}
		for _, ct := range spec.UnwantedCellTypes {
			if !cellTypes[ct] {
				return &FilterSpecError{Field: "cell type", Value: ct}
			}
		}
	}
	return nil
}

// applyFilter relabels unwanted cell types and drops unwanted measurement
// columns. Metadata columns survive only if required by the output schema or
// explicitly requested.
func applyFilter(f *frame, spec FilterSpec, inference bool, sum *Summary) {
	unwantedMarkers := toSet(spec.UnwantedMarkers)
	unwantedCompartments := toSet(spec.UnwantedCompartments)
	unwantedStatistics := toSet(spec.UnwantedStatistics)
	for _, s := range spec.DefaultStatistics {
		unwantedStatistics[s] = true
	}
	unwantedCellTypes := toSet(spec.UnwantedCellTypes)

	sum.MarkersFound = collectMarkers(f)

	keepMeta := map[string]bool{
		"Image":          true,
		"Class":          true,
		"Classification": true,
		"Centroid X µm":  true,
		"Centroid Y µm":  true,
	}
	for _, name := range spec.KeepMetadata {
		keepMeta[name] = true
	}

	var drop []int
	for i, k := range f.keys {
		switch k.Kind {
		case header.Measurement:
			switch {
			case unwantedMarkers[k.Marker]:
				drop = append(drop, i)
				sum.MarkerColumnsDropped++
			case unwantedCompartments[k.Compartment]:
				drop = append(drop, i)
				sum.CompartmentColumnsDropped++
			case unwantedStatistics[k.Statistic] || unwantedStatistics[k.Compartment+": "+k.Statistic]:
				drop = append(drop, i)
				sum.StatisticColumnsDropped++
			}
		case header.Metadata:
			if !keepMeta[k.Name] {
				drop = append(drop, i)
				sum.MetadataColumnsDropped++
			}
		}
	}
	removeAll(f, drop)

	if !inference && len(unwantedCellTypes) > 0 {
		if class, ok := f.metaCol("Class"); ok {
			for i, v := range class.Text {
				if unwantedCellTypes[v] {
					class.Text[i] = spec.ChangeTo
					sum.RowsRelabeled++
				}
			}
		}
	}

	sum.MarkersKept = collectMarkers(f)
}

// collectMarkers returns the sorted distinct markers present among the
// measurement columns.
func collectMarkers(f *frame) []string {
	seen := make(map[string]bool)
	for _, k := range f.keys {
		if k.Kind == header.Measurement {
			seen[k.Marker] = true
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func toSet(vals []string) map[string]bool {
	s := make(map[string]bool, len(vals))
	for _, v := range vals {
		s[v] = true
	}
	return s
}
