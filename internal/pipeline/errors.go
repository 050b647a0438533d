package pipeline

import (
	"fmt"
	"strings"
)

// ConflictError reports duplicate columns that disagree on a value. Merging
// never averages disagreeing data away; the offending row and column group
// are surfaced instead.
type ConflictError struct {
	Row     int
	Column  string
	Sources []string
	A, B    float64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate columns for %q disagree at row %d (%g vs %g; sources: %s)",
		e.Column, e.Row, e.A, e.B, strings.Join(e.Sources, ", "))
}

// MissingColumnError reports a required metadata column absent from the
// input.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing from the input", e.Column)
}

// NonNumericColumnError reports a column that must hold numbers but
// contains textual data.
type NonNumericColumnError struct {
	Column string
}

func (e *NonNumericColumnError) Error() string {
	return fmt.Sprintf("column %q contains non-numeric values", e.Column)
}

// AnnotationError reports an annotation column that is neither fully
// populated (training) nor fully empty (inference).
type AnnotationError struct {
	Column string
	Empty  int
	Total  int
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("column %q is partially annotated: %d of %d rows empty (expected all or none)",
		e.Column, e.Empty, e.Total)
}

// FilterSpecError reports a filter entry that references a value absent from
// the data, which usually means a typo in a user-supplied list.
type FilterSpecError struct {
	Field string
	Value string
}

func (e *FilterSpecError) Error() string {
	return fmt.Sprintf("filter references %s %q which does not occur in the data", e.Field, e.Value)
}
