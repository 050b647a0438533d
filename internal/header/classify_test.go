package header

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	c := NewClassifier([]string{"Patient ID"})

	tests := []struct {
		name string
		in   string
		want Key
	}{
		{
			name: "image metadata",
			in:   "Image",
			want: Key{Kind: Metadata, Name: "Image"},
		},
		{
			name: "metadata is case insensitive",
			in:   "CLASS",
			want: Key{Kind: Metadata, Name: "Class"},
		},
		{
			name: "pixel centroid",
			in:   "Centroid X px",
			want: Key{Kind: Metadata, Name: "Centroid X px"},
		},
		{
			name: "extra metadata accepted verbatim",
			in:   "Patient ID",
			want: Key{Kind: Metadata, Name: "Patient ID"},
		},
		{
			name: "three field measurement",
			in:   "CD4: Cell: Mean",
			want: Key{Kind: Measurement, Marker: "CD4", Compartment: "Cell", Statistic: "Mean"},
		},
		{
			name: "four field measurement keeps threshold",
			in:   "DAPI: Nucleus: Percentile: 98.0",
			want: Key{Kind: Measurement, Marker: "DAPI", Compartment: "Nucleus", Statistic: "Percentile: 98.0"},
		},
		{
			name: "shape measurement is named metadata",
			in:   "Nucleus: Area µm^2",
			want: Key{Kind: Metadata, Name: "Nucleus: Area µm^2"},
		},
		{
			name: "pixel shape measurement",
			in:   "Cell: Length px",
			want: Key{Kind: Metadata, Name: "Cell: Length px"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(tt.in)
			if err != nil {
				t.Fatalf("Classify(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassifyErrors(t *testing.T) {
	c := NewClassifier(nil)

	bad := []string{
		"Mystery Column",
		"Nucleus: Roundness",
		"A: B: C: D: E",
		": Cell: Mean",
	}
	for _, in := range bad {
		t.Run(in, func(t *testing.T) {
			_, err := c.Classify(in)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Classify(%q) err = %v, want ParseError", in, err)
			}
			if pe.Header != in {
				t.Errorf("ParseError.Header = %q, want %q", pe.Header, in)
			}
		})
	}
}

func TestKeyString(t *testing.T) {
	k := Key{Kind: Measurement, Marker: "CD4", Compartment: "Cell", Statistic: "Percentile: 98.0"}
	if got, want := k.String(), "CD4: Cell: Percentile: 98.0"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	m := Key{Kind: Metadata, Name: "Image"}
	if got := m.String(); got != "Image" {
		t.Errorf("String() = %q, want Image", got)
	}
}
