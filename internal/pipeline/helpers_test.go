package pipeline

import (
	"testing"

	"github.com/mibikit/cellprep/internal/header"
	"github.com/mibikit/cellprep/internal/table"
)

// newTestFrame builds a classified frame from raw records, the same way Run
// does after header normalization.
func newTestFrame(t *testing.T, hdr []string, records [][]string) *frame {
	t.Helper()
	f := &frame{tbl: table.FromRecords(hdr, records)}
	if err := f.classify(header.NewClassifier(nil)); err != nil {
		t.Fatalf("classify: %v", err)
	}
	return f
}

func colFloats(t *testing.T, f *frame, name string) ([]float64, []bool) {
	t.Helper()
	c, ok := f.tbl.Lookup(name)
	if !ok {
		t.Fatalf("column %q not found in %v", name, f.tbl.Names())
	}
	if !c.IsNumeric() {
		t.Fatalf("column %q is not numeric", name)
	}
	return c.Float, c.Missing
}
