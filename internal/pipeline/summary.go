package pipeline

import (
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/mibikit/cellprep/internal/table"
)

// MergedGroup records one duplicate-column merge: the canonical surviving
// header and the original headers that collapsed into it.
type MergedGroup struct {
	Canonical string   `json:"canonical"`
	Sources   []string `json:"sources"`
}

// LabelCode is one entry of the label encoding table.
type LabelCode struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// LabelCount is a per-label row tally.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FeatureStat summarizes one output feature column over its non-missing
// values.
type FeatureStat struct {
	Name    string  `json:"name"`
	NonNull int     `json:"non_null"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
}

// Summary is the structured account of every transformation the pipeline
// performed, consumed by the external report renderer. It carries counts
// and tables, never presentation markup beyond its own Markdown rendering.
type Summary struct {
	RunID       string    `json:"run_id"`
	Batch       string    `json:"batch"`
	InputPath   string    `json:"input_path"`
	Target      Target    `json:"target"`
	GeneratedAt time.Time `json:"generated_at"`

	Rows           int  `json:"rows"`
	InputColumns   int  `json:"input_columns"`
	TrainingMode   bool `json:"training_mode"`
	HeadersRenamed int  `json:"headers_renamed"`

	FoundCellTypes []string     `json:"found_cell_types,omitempty"`
	CellTypes      []string     `json:"cell_types,omitempty"`
	Encoding       []LabelCode  `json:"encoding,omitempty"`
	CellTypeCounts []LabelCount `json:"cell_type_counts,omitempty"`

	ClassificationCounts []LabelCount `json:"classification_counts,omitempty"`

	MarkersFound []string `json:"markers_found"`
	MarkersKept  []string `json:"markers_kept"`

	MergedColumns             []MergedGroup `json:"merged_columns,omitempty"`
	CentroidCellsFilled       int           `json:"centroid_cells_filled"`
	PixelColumnsConverted     int           `json:"pixel_columns_converted"`
	CytoplasmCellsSubstituted int           `json:"cytoplasm_cells_substituted"`
	MembraneColumnsDropped    int           `json:"membrane_columns_dropped"`
	NucleusCellsFilled        int           `json:"nucleus_cells_filled"`

	MarkerColumnsDropped      int `json:"marker_columns_dropped"`
	CompartmentColumnsDropped int `json:"compartment_columns_dropped"`
	StatisticColumnsDropped   int `json:"statistic_columns_dropped"`
	MetadataColumnsDropped    int `json:"metadata_columns_dropped"`
	RowsRelabeled             int `json:"rows_relabeled"`

	NullColumns  []string      `json:"null_columns,omitempty"`
	FeatureStats []FeatureStat `json:"feature_stats,omitempty"`
}

// recordFeatures captures the columns still containing missing values and
// per-feature moments of the final feature table.
func (s *Summary) recordFeatures(features *table.Table) {
	for _, c := range features.Columns() {
		if c.HasMissing() {
			s.NullColumns = append(s.NullColumns, c.Name)
		}
		if !c.IsNumeric() {
			continue
		}
		vals := make([]float64, 0, c.Len())
		for i, v := range c.Float {
			if !c.Missing[i] {
				vals = append(vals, v)
			}
		}
		fs := FeatureStat{Name: c.Name, NonNull: len(vals)}
		if len(vals) > 0 {
			fs.Mean = stat.Mean(vals, nil)
		}
		if len(vals) > 1 {
			fs.Std = stat.StdDev(vals, nil)
		}
		s.FeatureStats = append(s.FeatureStats, fs)
	}
}

// Markdown renders the summary as a standalone document for the report
// renderer.
func (s *Summary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Preprocessing summary: %s\n\n", s.Batch)
	fmt.Fprintf(&b, "Run %s, generated %s\n\n", s.RunID, s.GeneratedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("## Input\n\n")
	fmt.Fprintf(&b, "- File: `%s`\n", s.InputPath)
	fmt.Fprintf(&b, "- Target: %s\n", s.Target)
	fmt.Fprintf(&b, "- Rows: %d\n", s.Rows)
	fmt.Fprintf(&b, "- Columns: %d\n", s.InputColumns)
	mode := "inference (no annotations)"
	if s.TrainingMode {
		mode = "training (fully annotated)"
	}
	fmt.Fprintf(&b, "- Mode: %s\n\n", mode)

	if len(s.FoundCellTypes) > 0 {
		b.WriteString("## Cell types found\n\n")
		writeList(&b, s.FoundCellTypes)
		b.WriteString("## Cell types after relabeling\n\n")
		writeList(&b, s.CellTypes)
	}
	if len(s.Encoding) > 0 {
		b.WriteString("## Encoding\n\n")
		b.WriteString("| Code | Cell type |\n|---|---|\n")
		for _, e := range s.Encoding {
			fmt.Fprintf(&b, "| %d | %s |\n", e.Code, e.Label)
		}
		b.WriteString("\n")
	}
	if len(s.CellTypeCounts) > 0 {
		b.WriteString("## Count of each cell type\n\n")
		writeCounts(&b, s.CellTypeCounts)
	}
	if len(s.ClassificationCounts) > 0 {
		b.WriteString("## Count of each classification\n\n")
		writeCounts(&b, s.ClassificationCounts)
	}

	b.WriteString("## Markers found\n\n")
	writeList(&b, s.MarkersFound)
	b.WriteString("## Markers after removing user-defined markers\n\n")
	writeList(&b, s.MarkersKept)

	b.WriteString("## Transformations\n\n")
	fmt.Fprintf(&b, "- Headers renamed during normalization: %d\n", s.HeadersRenamed)
	fmt.Fprintf(&b, "- Centroid cells converted from pixels: %d\n", s.CentroidCellsFilled)
	fmt.Fprintf(&b, "- Pixel-unit columns rescaled: %d\n", s.PixelColumnsConverted)
	fmt.Fprintf(&b, "- Duplicate column groups merged: %d\n", len(s.MergedColumns))
	fmt.Fprintf(&b, "- Cytoplasm cells substituted from membrane: %d\n", s.CytoplasmCellsSubstituted)
	fmt.Fprintf(&b, "- Membrane columns dropped: %d\n", s.MembraneColumnsDropped)
	fmt.Fprintf(&b, "- Nucleus cells filled from cell: %d\n", s.NucleusCellsFilled)
	fmt.Fprintf(&b, "- Columns dropped (marker/compartment/statistic/metadata): %d/%d/%d/%d\n",
		s.MarkerColumnsDropped, s.CompartmentColumnsDropped, s.StatisticColumnsDropped, s.MetadataColumnsDropped)
	fmt.Fprintf(&b, "- Rows relabeled: %d\n\n", s.RowsRelabeled)

	if len(s.MergedColumns) > 0 {
		b.WriteString("## Merged duplicate columns\n\n")
		b.WriteString("| Merged column | Original columns |\n|---|---|\n")
		for _, g := range s.MergedColumns {
			fmt.Fprintf(&b, "| %s | %s |\n", g.Canonical, strings.Join(g.Sources, "; "))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Columns with missing values\n\n")
	if len(s.NullColumns) == 0 {
		b.WriteString("None\n\n")
	} else {
		writeList(&b, s.NullColumns)
		b.WriteString("Missing values usually mean measurement names differ across " +
			"images or cohorts. Check that all images share the same channel names " +
			"and that channels were not renamed after segmentation.\n\n")
	}

	if len(s.FeatureStats) > 0 {
		b.WriteString("## Feature summary\n\n")
		b.WriteString("| Feature | Non-null | Mean | Std |\n|---|---|---|---|\n")
		for _, fs := range s.FeatureStats {
			fmt.Fprintf(&b, "| %s | %d | %.4g | %.4g |\n", fs.Name, fs.NonNull, fs.Mean, fs.Std)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("None\n\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func writeCounts(b *strings.Builder, counts []LabelCount) {
	b.WriteString("| Label | Count |\n|---|---|\n")
	for _, c := range counts {
		fmt.Fprintf(b, "| %s | %d |\n", c.Label, c.Count)
	}
	b.WriteString("\n")
}
