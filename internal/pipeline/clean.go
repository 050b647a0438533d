package pipeline

import (
	"sort"
	"strings"

	"github.com/mibikit/cellprep/internal/table"
)

// cleanAnnotations strips redundant tool-added prefixes ("Edited: ",
// "Immune cells: ") from the Class and, when present, Name columns. Exact
// prefix matching; where several prefixes apply the longest wins. The
// distinct cell types after cleanup (and before any relabeling) are
// recorded in the summary.
func cleanAnnotations(f *frame, prefixes []string, sum *Summary) {
	ordered := append([]string(nil), prefixes...)
	sort.Slice(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })

	for _, name := range []string{"Class", "Name"} {
		idx := f.metaIndex(name)
		if idx < 0 {
			continue
		}
		col := ensureText(f.tbl.Col(idx))
		f.replaceAt(idx, col, f.keys[idx])
		for i, v := range col.Text {
			col.Text[i] = stripPrefix(v, ordered)
		}
	}

	if class, ok := f.metaCol("Class"); ok {
		sum.FoundCellTypes = distinctNonEmpty(class)
	}
}

func stripPrefix(v string, orderedPrefixes []string) string {
	for _, p := range orderedPrefixes {
		if strings.HasPrefix(v, p) {
			// Tolerate prefixes configured without their trailing space.
			return strings.TrimLeft(strings.TrimPrefix(v, p), " ")
		}
	}
	return v
}

// distinctNonEmpty returns the sorted distinct non-empty values of a
// textual column.
func distinctNonEmpty(c *table.Column) []string {
	seen := make(map[string]bool)
	for _, v := range c.Text {
		if v != "" {
			seen[v] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
