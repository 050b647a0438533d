package header

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "escaped measurement header",
			in:   "CD4..Cell..Mean",
			want: "CD4: Cell: Mean",
		},
		{
			name: "parenthesized marker with threshold",
			in:   "MHC.I..HLA.DR...Membrane..Percentile..98.0",
			want: "MHC I (HLA-DR): Membrane: Percentile: 98.0",
		},
		{
			name: "target prefix is dropped",
			in:   "Target.CD8..Nucleus..Median",
			want: "CD8: Nucleus: Median",
		},
		{
			name: "std dev statistic keeps its periods",
			in:   "CD45..Cytoplasm..Std.Dev.",
			want: "CD45: Cytoplasm: Std.Dev.",
		},
		{
			name: "mis-decoded micrometre unit",
			in:   "Centroid X Âµm",
			want: "Centroid X µm",
		},
		{
			name: "escaped squared micrometre unit",
			in:   "Nucleus..Area.µm.2",
			want: "Nucleus: Area µm^2",
		},
		{
			name: "ifn gamma keeps its hyphen",
			in:   "IFN.y..Cell..Mean",
			want: "IFN-y: Cell: Mean",
		},
		{
			name: "beta tubulin keeps its hyphen",
			in:   "Beta.Tubulin..Membrane..Max",
			want: "Beta-Tubulin: Membrane: Max",
		},
		{
			name: "underscores become spaces",
			in:   "Patient_ID",
			want: "Patient ID",
		},
		{
			name: "decimal points survive",
			in:   "DAPI..Nucleus..Percentile..99.5",
			want: "DAPI: Nucleus: Percentile: 99.5",
		},
		{
			name: "already canonical",
			in:   "Centroid X µm",
			want: "Centroid X µm",
		},
		{
			name: "plain metadata",
			in:   "Image",
			want: "Image",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"MHC.I..HLA.DR...Membrane..Percentile..98.0",
		"CD4..Cell..Mean",
		"CD45..Cytoplasm..Std.Dev.",
		"Nucleus..Area.µm.2",
		"Centroid X µm",
		"Image",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
