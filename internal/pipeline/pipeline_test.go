package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibikit/cellprep/internal/table"
)

// rawExport mimics a QuPath export with escaped headers, duplicate columns,
// a missing cytoplasm compartment and unsegmented nuclei.
func rawExport() ([]string, [][]string) {
	header := []string{
		"Image", "Class", "Name", "Centroid.X.µm", "Centroid Y µm",
		"CD4..Cell..Mean", "CD4: Cell: Mean", "CD4..Nucleus..Mean",
		"CD8..Cytoplasm..Mean", "CD8..Membrane..Mean",
		"DAPI..Nucleus..Percentile..98.0",
	}
	records := [][]string{
		{"img1.tiff", "Edited: B cells", "cell 1", "1", "2", "5", "", "", "", "7", "1"},
		{"img1.tiff", "Tumor", "cell 2", "3", "4", "", "6", "2", "3", "", "2"},
		{"img2.tiff", "Tumor", "cell 3", "5", "6", "4", "4", "1", "9", "8", "3"},
	}
	return header, records
}

func TestRunCellType(t *testing.T) {
	hdr, records := rawExport()
	res, err := Run(table.FromRecords(hdr, records), Options{
		Target: TargetCellType,
		Batch:  "batch1",
		Filter: FilterSpec{UnwantedCellTypes: []string{"B cells"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 1}, res.Labels)
	assert.Equal(t, map[int]string{0: "Other", 1: "Tumor"}, res.Decoder)
	assert.Nil(t, res.Binarized)

	wantFeatures := []string{
		"CD4: Cell: Mean", "CD4: Nucleus: Mean",
		"CD8: Cytoplasm: Mean", "DAPI: Nucleus: Percentile: 98.0",
	}
	assert.Equal(t, wantFeatures, res.Features.Names())

	cd4, ok := res.Features.Lookup("CD4: Cell: Mean")
	require.True(t, ok)
	assert.Equal(t, []float64{5, 6, 4}, cd4.Float)

	nuc, ok := res.Features.Lookup("CD4: Nucleus: Mean")
	require.True(t, ok)
	assert.Equal(t, []float64{5, 2, 1}, nuc.Float, "missing nucleus value takes the cell value")

	cyto, ok := res.Features.Lookup("CD8: Cytoplasm: Mean")
	require.True(t, ok)
	assert.Equal(t, []float64{7, 3, 8}, cyto.Float, "membrane values stand in for cytoplasm")

	assert.Equal(t, []string{"Image", "Centroid X µm", "Centroid Y µm"}, res.Images.Names())
	img, _ := res.Images.Lookup("Image")
	assert.Equal(t, "img2.tiff", img.Text[2])

	sum := res.Summary
	assert.True(t, sum.TrainingMode)
	assert.Equal(t, 3, sum.Rows)
	assert.Equal(t, 6, sum.HeadersRenamed)
	assert.Equal(t, []string{"B cells", "Tumor"}, sum.FoundCellTypes)
	assert.Equal(t, []string{"Other", "Tumor"}, sum.CellTypes)
	assert.Equal(t, 1, sum.RowsRelabeled)
	assert.Equal(t, 1, sum.NucleusCellsFilled)
	assert.Equal(t, 2, sum.CytoplasmCellsSubstituted)
	assert.Equal(t, 1, sum.MembraneColumnsDropped)
	assert.Len(t, sum.MergedColumns, 1)
	assert.Len(t, sum.FeatureStats, len(wantFeatures))
	assert.Empty(t, sum.NullColumns)

	md := sum.Markdown()
	assert.Contains(t, md, "batch1")
	assert.Contains(t, md, "training (fully annotated)")
	assert.Contains(t, md, "CD4: Cell: Mean")
}

func TestRunFunctionalMarker(t *testing.T) {
	hdr, records := rawExport()
	hdr = append(hdr, "Classification")
	suffixes := []string{"CD69+", "CD69-", "CD69+"}
	for i := range records {
		records[i] = append(records[i], suffixes[i])
	}

	res, err := Run(table.FromRecords(hdr, records), Options{
		Target: TargetFunctionalMarker,
		Batch:  "batch1",
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0, 1}, res.Binarized)
	assert.Equal(t, map[int]string{1: "CD69+", 0: "CD69-"}, res.BinarizedDecoder)
	// Cell types are still encoded for the summary.
	assert.Equal(t, []int{0, 1, 1}, res.Labels)
}

func TestRunFunctionalMarkerWithCellType(t *testing.T) {
	hdr, records := rawExport()
	hdr = append(hdr, "Classification")
	suffixes := []string{"CD69+", "CD69-", "CD69+"}
	for i := range records {
		records[i] = append(records[i], suffixes[i])
	}

	res, err := Run(table.FromRecords(hdr, records), Options{
		Target: TargetFunctionalMarkerCellType,
		Batch:  "batch1",
	})
	require.NoError(t, err)

	// One-hot cell-type columns are appended after the measurements.
	names := res.Features.Names()
	require.GreaterOrEqual(t, len(names), 2)
	assert.Equal(t, []string{"B cells", "Tumor"}, names[len(names)-2:])
	bc, _ := res.Features.Lookup("B cells")
	assert.Equal(t, []float64{1, 0, 0}, bc.Float)
}

func TestRunInference(t *testing.T) {
	hdr, records := rawExport()
	for i := range records {
		records[i][1] = "" // wipe Class
	}

	res, err := Run(table.FromRecords(hdr, records), Options{
		Target: TargetCellType,
		Batch:  "batch1",
		// Unvalidatable without annotations; must not fail in inference mode.
		Filter: FilterSpec{UnwantedCellTypes: []string{"B cells"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{InferenceCode, InferenceCode, InferenceCode}, res.Labels)
	assert.Nil(t, res.Decoder)
	assert.False(t, res.Summary.TrainingMode)
}

func TestRunPartialAnnotationFails(t *testing.T) {
	hdr, records := rawExport()
	records[1][1] = ""

	_, err := Run(table.FromRecords(hdr, records), Options{Target: TargetCellType})
	require.Error(t, err)
	var ae *AnnotationError
	require.ErrorAs(t, err, &ae)
}

func TestRunDuplicateConflictFails(t *testing.T) {
	hdr, records := rawExport()
	records[2][6] = "40" // disagrees with its duplicate

	_, err := Run(table.FromRecords(hdr, records), Options{Target: TargetCellType})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "CD4: Cell: Mean", ce.Column)
}

func TestRunMissingRequiredColumns(t *testing.T) {
	t.Run("no image", func(t *testing.T) {
		tbl := table.FromRecords([]string{"Class"}, [][]string{{"Tumor"}})
		_, err := Run(tbl, Options{Target: TargetCellType})
		var mce *MissingColumnError
		require.ErrorAs(t, err, &mce)
		assert.Equal(t, "Image", mce.Column)
	})
	t.Run("no class", func(t *testing.T) {
		tbl := table.FromRecords([]string{"Image"}, [][]string{{"img1.tiff"}})
		_, err := Run(tbl, Options{Target: TargetCellType})
		var mce *MissingColumnError
		require.ErrorAs(t, err, &mce)
		assert.Equal(t, "Class", mce.Column)
	})
}

func TestRunUnparsableHeaderFails(t *testing.T) {
	tbl := table.FromRecords(
		[]string{"Image", "Class", "Mystery Column"},
		[][]string{{"img1.tiff", "Tumor", "1"}},
	)
	_, err := Run(tbl, Options{Target: TargetCellType})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mystery Column")
}

func TestRunMembraneFilterSeesRawCompartments(t *testing.T) {
	// Every Membrane column is consumed by the cytoplasm substitution, yet
	// a Membrane filter entry refers to the export as loaded and must
	// still validate.
	tbl := table.FromRecords(
		[]string{
			"Image", "Class", "Centroid X µm", "Centroid Y µm",
			"CD8: Cytoplasm: Mean", "CD8: Membrane: Mean",
		},
		[][]string{
			{"img1.tiff", "Tumor", "1", "2", "3", "4"},
			{"img1.tiff", "B cells", "5", "6", "7", "8"},
		},
	)
	res, err := Run(tbl, Options{
		Target: TargetCellType,
		Batch:  "batch1",
		Filter: FilterSpec{UnwantedCompartments: []string{"Membrane"}},
	})
	require.NoError(t, err)
	// The substitution already removed the Membrane columns; the cytoplasm
	// columns carrying their values survive the compartment filter.
	cyto, ok := res.Features.Lookup("CD8: Cytoplasm: Mean")
	require.True(t, ok)
	assert.Equal(t, []float64{4, 8}, cyto.Float)
}

func TestRunKeepMetadataNormalized(t *testing.T) {
	hdr, records := rawExport()
	hdr = append(hdr, "Patient_ID")
	ids := []string{"p1", "p2", "p1"}
	for i := range records {
		records[i] = append(records[i], ids[i])
	}

	res, err := Run(table.FromRecords(hdr, records), Options{
		Target: TargetCellType,
		// Raw spelling; normalization maps it to "Patient ID".
		Filter: FilterSpec{KeepMetadata: []string{"Patient_ID"}},
	})
	require.NoError(t, err)
	pid, ok := res.Images.Lookup("Patient ID")
	require.True(t, ok, "requested metadata should reach the image table")
	assert.Equal(t, []string{"p1", "p2", "p1"}, pid.Text)
}

func TestRunFile(t *testing.T) {
	hdr, records := rawExport()
	var sb strings.Builder
	sb.WriteString(strings.Join(hdr, ","))
	sb.WriteByte('\n')
	for _, rec := range records {
		sb.WriteString(strings.Join(rec, ","))
		sb.WriteByte('\n')
	}
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))

	res, err := RunFile(path, Options{Target: TargetCellType, Batch: "batch1"})
	require.NoError(t, err)
	assert.Equal(t, path, res.Summary.InputPath)
	assert.Equal(t, 3, res.Summary.Rows)
}
