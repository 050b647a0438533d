// Package pipeline implements the preprocessing of per-cell measurement
// tables exported from QuPath into machine-learning-ready datasets: a
// cleaned feature table, integer-encoded labels, an image/position index
// and a label decoder.
//
// The pipeline is a strict linear sequence over one in-memory table:
// normalize headers, classify columns, clean annotations, convert units,
// merge duplicate columns, substitute compartments, filter, encode labels.
// Every stage preserves row count and row order; only columns are added,
// merged, renamed or removed. Any stage failure aborts the run before any
// output artifact is written.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mibikit/cellprep/internal/header"
	"github.com/mibikit/cellprep/internal/table"
)

// Target selects the output schema and label-building rule.
type Target string

const (
	// TargetCellType encodes the Class column for cell-type classification.
	TargetCellType Target = "cell-type"
	// TargetFunctionalMarker binarizes the Classification column.
	TargetFunctionalMarker Target = "functional-marker"
	// TargetFunctionalMarkerCellType additionally one-hot encodes the cell
	// types into the feature table.
	TargetFunctionalMarkerCellType Target = "functional-marker-with-celltype"
)

// ParseTarget validates a user-supplied target name.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetCellType, TargetFunctionalMarker, TargetFunctionalMarkerCellType:
		return Target(s), nil
	}
	return "", fmt.Errorf("unknown target %q (use %s, %s or %s)",
		s, TargetCellType, TargetFunctionalMarker, TargetFunctionalMarkerCellType)
}

// Functional reports whether the target produces binarized labels.
func (t Target) Functional() bool {
	return t == TargetFunctionalMarker || t == TargetFunctionalMarkerCellType
}

// DefaultPixelSize is the micrometres-per-pixel scale of the imaging setup,
// used when the caller provides none.
const DefaultPixelSize = 0.3906

// DefaultClassPrefixes are the redundant label prefixes left behind by the
// annotation tooling.
var DefaultClassPrefixes = []string{"Edited: ", "Immune cells: "}

// DefaultChangeTo is the replacement label for unwanted cell types.
const DefaultChangeTo = "Other"

// Options configures a single pipeline run. Configuration is passed in
// explicitly; nothing is read from ambient state, so parallel invocations
// over different batches are isolated.
type Options struct {
	Target        Target
	Batch         string
	InputPath     string
	PixelSize     float64
	ClassPrefixes []string
	Filter        FilterSpec
	Logger        *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.PixelSize == 0 {
		o.PixelSize = DefaultPixelSize
	}
	if o.ClassPrefixes == nil {
		o.ClassPrefixes = DefaultClassPrefixes
	}
	if o.Filter.ChangeTo == "" {
		o.Filter.ChangeTo = DefaultChangeTo
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Result holds the output tables of a run, all row-aligned to the input by
// position.
type Result struct {
	RunID string
	// Features is the numeric feature matrix.
	Features *table.Table
	// Labels is the integer cell-type code per row (InferenceCode when no
	// annotations exist).
	Labels []int
	// Images is the image id + centroid index.
	Images *table.Table
	// Decoder maps codes back to cell-type labels; nil in inference mode.
	Decoder map[int]string
	// Binarized and BinarizedDecoder are set for functional-marker targets.
	Binarized        []int
	BinarizedDecoder map[int]string
	Summary          *Summary
}

// RunFile loads the input table from path and runs the pipeline on it.
func RunFile(path string, opts Options) (*Result, error) {
	tbl, err := table.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts.InputPath = path
	return Run(tbl, opts)
}

// Run executes every stage over the given table. The table is modified in
// place; on error no result is produced and nothing has been written.
func Run(tbl *table.Table, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	sum := &Summary{
		RunID:        uuid.NewString(),
		Batch:        opts.Batch,
		InputPath:    opts.InputPath,
		Target:       opts.Target,
		GeneratedAt:  time.Now(),
		Rows:         tbl.NumRows(),
		InputColumns: tbl.NumCols(),
	}
	log.Debug("starting preprocessing",
		slog.String("run_id", sum.RunID),
		slog.String("target", string(opts.Target)),
		slog.Int("rows", tbl.NumRows()),
		slog.Int("columns", tbl.NumCols()))

	f := &frame{tbl: tbl}

	for _, c := range tbl.Columns() {
		if n := header.Normalize(c.Name); n != c.Name {
			c.Name = n
			sum.HeadersRenamed++
		}
	}

	keep := make([]string, len(opts.Filter.KeepMetadata))
	for i, name := range opts.Filter.KeepMetadata {
		keep[i] = header.Normalize(name)
	}
	opts.Filter.KeepMetadata = keep

	if err := f.classify(header.NewClassifier(keep)); err != nil {
		return nil, err
	}
	if f.metaIndex("Image") < 0 {
		return nil, &MissingColumnError{Column: "Image"}
	}
	if f.metaIndex("Class") < 0 {
		return nil, &MissingColumnError{Column: "Class"}
	}
	for _, name := range []string{"Image", "Class", "Classification", "Name"} {
		if i := f.metaIndex(name); i >= 0 {
			f.replaceAt(i, ensureText(f.tbl.Col(i)), f.keys[i])
		}
	}

	cleanAnnotations(f, opts.ClassPrefixes, sum)

	inference := classAllEmpty(f)
	sum.TrainingMode = !inference

	if err := convertCentroids(f, opts.PixelSize, sum); err != nil {
		return nil, err
	}
	convertPixelUnits(f, opts.PixelSize, sum)

	if err := mergeDuplicates(f, sum); err != nil {
		return nil, err
	}
	log.Debug("merged duplicate columns", slog.Int("groups", len(sum.MergedColumns)))

	// Validate against the pre-substitution view: a Membrane filter entry
	// must match even when every Membrane column is about to be consumed
	// by the cytoplasm substitution.
	if err := validateFilter(f, opts.Filter, inference); err != nil {
		return nil, err
	}

	substituteMembrane(f, sum)
	fillNucleusFromCell(f, sum)

	applyFilter(f, opts.Filter, inference, sum)

	labels, decoder, err := encodeCellTypes(f, sum)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:   sum.RunID,
		Labels:  labels,
		Decoder: decoder,
		Summary: sum,
	}

	if opts.Target.Functional() {
		res.Binarized, res.BinarizedDecoder, err = binarizeClassification(f, sum)
		if err != nil {
			return nil, err
		}
	}

	var oneHots []*table.Column
	if opts.Target == TargetFunctionalMarkerCellType {
		oneHots, err = oneHotCellTypes(f)
		if err != nil {
			return nil, err
		}
	}

	res.Features, err = featureTable(f, oneHots)
	if err != nil {
		return nil, err
	}
	res.Images, err = imageTable(f, opts.Filter.KeepMetadata)
	if err != nil {
		return nil, err
	}
	sum.recordFeatures(res.Features)

	log.Debug("preprocessing complete",
		slog.Int("features", res.Features.NumCols()),
		slog.Bool("training_mode", sum.TrainingMode))
	return res, nil
}

// classAllEmpty reports inference mode: a Class column with no annotations
// at all.
func classAllEmpty(f *frame) bool {
	class, ok := f.metaCol("Class")
	if !ok {
		return true
	}
	for i := 0; i < class.Len(); i++ {
		if !class.IsMissing(i) {
			return false
		}
	}
	return true
}

// featureTable assembles the numeric feature matrix: every surviving
// measurement column, plus any one-hot cell-type columns.
func featureTable(f *frame, oneHots []*table.Column) (*table.Table, error) {
	cols := make([]*table.Column, 0, f.tbl.NumCols()+len(oneHots))
	for i, k := range f.keys {
		if k.Kind == header.Measurement {
			cols = append(cols, ensureFloat(f.tbl.Col(i)))
		}
	}
	cols = append(cols, oneHots...)
	return table.FromColumns(cols)
}

// imageTable assembles the image/position index: image id, centroids, plus
// any explicitly requested metadata.
func imageTable(f *frame, keepMetadata []string) (*table.Table, error) {
	names := []string{"Image", "Centroid X µm", "Centroid Y µm"}
	present := toSet(names)
	for _, name := range keepMetadata {
		if !present[name] {
			names = append(names, name)
			present[name] = true
		}
	}
	cols := make([]*table.Column, 0, len(names))
	for _, name := range names {
		c, ok := f.metaCol(name)
		if !ok {
			return nil, &MissingColumnError{Column: name}
		}
		cols = append(cols, c)
	}
	return table.FromColumns(cols)
}
