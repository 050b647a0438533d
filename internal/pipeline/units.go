package pipeline

import (
	"strings"

	"github.com/mibikit/cellprep/internal/header"
	"github.com/mibikit/cellprep/internal/table"
)

// convertCentroids brings the centroid columns to micrometres. Per axis,
// four cases: both µm and px present (fill missing µm from px, drop px),
// px only (convert in place as a new µm column), µm only (untouched),
// neither (fatal, downstream tools need cell positions). A centroid column
// carrying textual values cannot be converted and fails the run.
func convertCentroids(f *frame, scale float64, sum *Summary) error {
	for _, dim := range []string{"X", "Y"} {
		umName := "Centroid " + dim + " µm"
		pxName := "Centroid " + dim + " px"
		umIdx := f.metaIndex(umName)
		pxIdx := f.metaIndex(pxName)

		switch {
		case umIdx >= 0 && pxIdx >= 0:
			um := ensureFloat(f.tbl.Col(umIdx))
			if !um.IsNumeric() {
				return &NonNumericColumnError{Column: umName}
			}
			f.replaceAt(umIdx, um, f.keys[umIdx])
			px := f.tbl.Col(pxIdx)
			if !px.IsNumeric() {
				return &NonNumericColumnError{Column: pxName}
			}
			for i := 0; i < f.tbl.NumRows(); i++ {
				if um.IsMissing(i) && !px.IsMissing(i) {
					um.Float[i] = px.Float[i] * scale
					um.Missing[i] = false
					sum.CentroidCellsFilled++
				}
			}
			f.removeAt(pxIdx)
		case pxIdx >= 0:
			px := f.tbl.Col(pxIdx)
			if !px.IsNumeric() {
				return &NonNumericColumnError{Column: pxName}
			}
			um := table.NewFloatColumn(umName, f.tbl.NumRows())
			for i := 0; i < f.tbl.NumRows(); i++ {
				if !px.IsMissing(i) {
					um.Float[i] = px.Float[i] * scale
					um.Missing[i] = false
				}
			}
			f.replaceAt(pxIdx, um, header.Key{Kind: header.Metadata, Name: umName})
			sum.PixelColumnsConverted++
		case umIdx >= 0:
			// Already in µm; still must be numeric for the image table.
			um := ensureFloat(f.tbl.Col(umIdx))
			if !um.IsNumeric() {
				return &NonNumericColumnError{Column: umName}
			}
			f.replaceAt(umIdx, um, f.keys[umIdx])
		default:
			return &MissingColumnError{Column: umName}
		}
	}
	return nil
}

// convertPixelUnits rescales any remaining pixel-based columns: a trailing
// "px" token is a linear measurement (×scale), "px^2" is areal (×scale²).
// The unit token in the header is rewritten accordingly. Columns without a
// pixel unit pass through untouched.
func convertPixelUnits(f *frame, scale float64, sum *Summary) {
	for i, c := range f.tbl.Columns() {
		if !c.IsNumeric() {
			continue
		}
		name := c.Name
		var factor float64
		var newName string
		switch {
		case strings.HasSuffix(name, " px^2"):
			factor = scale * scale
			newName = strings.TrimSuffix(name, " px^2") + " µm^2"
		case strings.HasSuffix(name, " px"):
			factor = scale
			newName = strings.TrimSuffix(name, " px") + " µm"
		default:
			continue
		}
		for j := range c.Float {
			if !c.Missing[j] {
				c.Float[j] *= factor
			}
		}
		c.Name = newName
		k := f.keys[i]
		if k.Kind == header.Metadata {
			k.Name = newName
		} else {
			k.Statistic = rewritePixelUnit(k.Statistic)
		}
		f.keys[i] = k
		sum.PixelColumnsConverted++
	}
}

func rewritePixelUnit(s string) string {
	if strings.HasSuffix(s, " px^2") {
		return strings.TrimSuffix(s, " px^2") + " µm^2"
	}
	if strings.HasSuffix(s, " px") {
		return strings.TrimSuffix(s, " px") + " µm"
	}
	return s
}
