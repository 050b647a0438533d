package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mibikit/cellprep/internal/header"
	"github.com/mibikit/cellprep/internal/table"
)

// Inventory is the classified-column report produced by Inspect. It is the
// dry-run companion to Run: it answers what a preprocessing run would see,
// without converting, merging or filtering anything.
type Inventory struct {
	Rows         int
	Metadata     []string
	Markers      []string
	Compartments []string
	Statistics   []string
	Shape        []string
	CellTypes    []LabelCount
	TrainingMode bool
}

// Inspect normalizes and classifies the table's headers and tallies the
// annotation labels. extraMetadata names columns to accept as metadata
// beyond the fixed set.
func Inspect(tbl *table.Table, extraMetadata []string) (*Inventory, error) {
	keep := make([]string, len(extraMetadata))
	for i, name := range extraMetadata {
		keep[i] = header.Normalize(name)
	}
	for _, c := range tbl.Columns() {
		c.Name = header.Normalize(c.Name)
	}

	cls := header.NewClassifier(keep)
	inv := &Inventory{Rows: tbl.NumRows()}
	markers := map[string]bool{}
	compartments := map[string]bool{}
	statistics := map[string]bool{}
	for _, c := range tbl.Columns() {
		k, err := cls.Classify(c.Name)
		if err != nil {
			return nil, err
		}
		if k.Kind == header.Metadata {
			if strings.Contains(k.Name, ": ") {
				inv.Shape = append(inv.Shape, k.Name)
			} else {
				inv.Metadata = append(inv.Metadata, k.Name)
			}
			continue
		}
		markers[k.Marker] = true
		compartments[k.Compartment] = true
		statistics[k.Statistic] = true
	}
	inv.Markers = sortedKeys(markers)
	inv.Compartments = sortedKeys(compartments)
	inv.Statistics = sortedKeys(statistics)

	if i := tbl.Index("Class"); i >= 0 {
		class := ensureText(tbl.Col(i))
		inv.CellTypes = countValues(class)
		inv.TrainingMode = len(inv.CellTypes) > 0
	}
	return inv, nil
}

// Markdown renders the inventory as a short report.
func (inv *Inventory) Markdown() string {
	var b strings.Builder
	b.WriteString("# Dataset Inventory\n\n")
	fmt.Fprintf(&b, "- Rows: %d\n", inv.Rows)
	if inv.TrainingMode {
		b.WriteString("- Annotations: present\n")
	} else {
		b.WriteString("- Annotations: none (inference mode)\n")
	}
	writeSection(&b, "Metadata", inv.Metadata)
	writeSection(&b, "Shape metadata", inv.Shape)
	writeSection(&b, "Markers", inv.Markers)
	writeSection(&b, "Compartments", inv.Compartments)
	writeSection(&b, "Statistics", inv.Statistics)
	if len(inv.CellTypes) > 0 {
		b.WriteString("\n## Cell Types\n\n")
		b.WriteString("| Label | Cells |\n|---|---|\n")
		for _, lc := range inv.CellTypes {
			fmt.Fprintf(&b, "| %s | %d |\n", lc.Label, lc.Count)
		}
	}
	return b.String()
}

func writeSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
