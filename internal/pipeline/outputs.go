package pipeline

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mibikit/cellprep/internal/utils"
)

// Manifest is the fixed output-path record published alongside the
// artifacts, consumed by the external report renderer and workflow.
type Manifest struct {
	RunID           string    `json:"run_id"`
	Batch           string    `json:"batch"`
	GeneratedAt     time.Time `json:"generated_at"`
	Features        string    `json:"features"`
	Labels          string    `json:"labels"`
	Images          string    `json:"images"`
	Decoder         string    `json:"decoder,omitempty"`
	BinarizedLabels string    `json:"binarized_labels,omitempty"`
	Summary         string    `json:"summary"`
}

// Write publishes every artifact of the run under outDir, named by batch.
// All buffers are serialized before the first file is written, so a
// serialization failure leaves no partial output behind. format applies to
// the feature table only (csv or xlsx); labels, images, decoders and the
// summary are always CSV/JSON/Markdown.
func (r *Result) Write(outDir, batch, format string) (*Manifest, error) {
	if err := utils.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	m := &Manifest{
		RunID:       r.RunID,
		Batch:       batch,
		GeneratedAt: r.Summary.GeneratedAt,
	}
	files := make(map[string][]byte)

	var ext string
	var buf bytes.Buffer
	switch format {
	case "", "csv":
		ext = "csv"
		if err := r.Features.WriteCSV(&buf); err != nil {
			return nil, fmt.Errorf("serialize features: %w", err)
		}
	case "xlsx":
		ext = "xlsx"
		if err := r.Features.WriteXLSX(&buf); err != nil {
			return nil, fmt.Errorf("serialize features: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format %q (use csv or xlsx)", format)
	}
	m.Features = filepath.Join(outDir, batch+"_preprocessed_input_data."+ext)
	files[m.Features] = append([]byte(nil), buf.Bytes()...)

	m.Labels = filepath.Join(outDir, batch+"_cell_type_labels.csv")
	files[m.Labels] = intColumnCSV("Class", r.Labels)

	buf.Reset()
	if err := r.Images.WriteCSV(&buf); err != nil {
		return nil, fmt.Errorf("serialize images: %w", err)
	}
	m.Images = filepath.Join(outDir, batch+"_images.csv")
	files[m.Images] = append([]byte(nil), buf.Bytes()...)

	// For functional-marker targets the published decoder is the binarized
	// one; the cell-type encoding still appears in the summary.
	decoder := r.Decoder
	if r.BinarizedDecoder != nil {
		decoder = r.BinarizedDecoder
	}
	if decoder != nil {
		b, err := utils.PrettyJSON(decoder)
		if err != nil {
			return nil, fmt.Errorf("serialize decoder: %w", err)
		}
		m.Decoder = filepath.Join(outDir, batch+"_decoder.json")
		files[m.Decoder] = b
	}

	if r.Binarized != nil {
		m.BinarizedLabels = filepath.Join(outDir, batch+"_binarized_labels.csv")
		files[m.BinarizedLabels] = intColumnCSV("Classification", r.Binarized)
	}

	m.Summary = filepath.Join(outDir, batch+"_summary.md")
	files[m.Summary] = []byte(r.Summary.Markdown())

	manifestPath := filepath.Join(outDir, batch+"_manifest.json")
	mb, err := utils.PrettyJSON(m)
	if err != nil {
		return nil, fmt.Errorf("serialize manifest: %w", err)
	}
	files[manifestPath] = mb

	for path, data := range files {
		if err := utils.SafeWriteFile(path, data); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// intColumnCSV renders a single-column CSV of integer labels.
func intColumnCSV(name string, vals []int) []byte {
	var b bytes.Buffer
	b.WriteString(name)
	b.WriteByte('\n')
	for _, v := range vals {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte('\n')
	}
	return b.Bytes()
}
