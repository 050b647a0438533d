package header

import (
	"fmt"
	"strings"
)

// Kind distinguishes identity/annotation columns from per-compartment
// measurements.
type Kind int

const (
	Metadata Kind = iota
	Measurement
)

// Key is the structured identity of a column. Two raw headers that classify
// to the same Key are duplicates of one logical column.
type Key struct {
	Kind Kind
	// Name is the canonical header for metadata columns.
	Name string
	// Marker, Compartment and Statistic are set for measurement columns.
	// Statistic keeps its threshold qualifier (e.g. "Percentile: 98.0").
	Marker      string
	Compartment string
	Statistic   string
}

// String renders the canonical header for the key.
func (k Key) String() string {
	if k.Kind == Metadata {
		return k.Name
	}
	return k.Marker + ": " + k.Compartment + ": " + k.Statistic
}

// IsMeasurement reports whether the key identifies a marker measurement.
func (k Key) IsMeasurement() bool { return k.Kind == Measurement }

// ParseError reports a header that could not be classified. Failing loudly
// beats silently merging unrelated features.
type ParseError struct {
	Header string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot classify header %q: %s", e.Header, e.Reason)
}

// Canonical metadata headers, keyed by lowercase form.
var metadataNames = map[string]string{
	"image":          "Image",
	"name":           "Name",
	"class":          "Class",
	"classification": "Classification",
	"centroid x µm":  "Centroid X µm",
	"centroid y µm":  "Centroid Y µm",
	"centroid x px":  "Centroid X px",
	"centroid y px":  "Centroid Y px",
}

// Unit tokens that mark a two-field header as a shape measurement
// (e.g. "Nucleus: Area µm^2"), which is treated as named metadata.
var shapeUnits = map[string]bool{
	"µm":   true,
	"µm^2": true,
	"px":   true,
	"px^2": true,
}

// Classifier parses canonical headers into Keys. User-requested metadata
// columns are recognized verbatim in addition to the fixed set.
type Classifier struct {
	extra map[string]bool
}

// NewClassifier returns a classifier that additionally accepts the given
// header names as metadata.
func NewClassifier(extraMetadata []string) *Classifier {
	extra := make(map[string]bool, len(extraMetadata))
	for _, name := range extraMetadata {
		extra[name] = true
	}
	return &Classifier{extra: extra}
}

// Classify parses a canonical header into its Key. Headers that are neither
// known metadata nor a well-formed "Marker: Compartment: Statistic[:
// threshold]" triplet produce a ParseError.
func (c *Classifier) Classify(h string) (Key, error) {
	if canonical, ok := metadataNames[strings.ToLower(h)]; ok {
		return Key{Kind: Metadata, Name: canonical}, nil
	}
	if c.extra[h] {
		return Key{Kind: Metadata, Name: h}, nil
	}

	parts := strings.Split(h, ": ")
	switch len(parts) {
	case 2:
		// Shape measurements like "Nucleus: Length µm" carry a trailing
		// unit token and are kept as named metadata.
		fields := strings.Fields(h)
		if len(fields) > 0 && shapeUnits[fields[len(fields)-1]] {
			return Key{Kind: Metadata, Name: h}, nil
		}
		return Key{}, &ParseError{Header: h, Reason: "two fields but no trailing unit"}
	case 3:
		return measurementKey(parts[0], parts[1], parts[2], h)
	case 4:
		return measurementKey(parts[0], parts[1], parts[2]+": "+parts[3], h)
	default:
		return Key{}, &ParseError{Header: h, Reason: fmt.Sprintf("expected 3 or 4 fields, got %d", len(parts))}
	}
}

func measurementKey(marker, compartment, statistic, h string) (Key, error) {
	if marker == "" || compartment == "" || statistic == "" {
		return Key{}, &ParseError{Header: h, Reason: "empty field"}
	}
	return Key{
		Kind:        Measurement,
		Marker:      marker,
		Compartment: compartment,
		Statistic:   statistic,
	}, nil
}
