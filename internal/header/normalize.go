// Package header canonicalizes and classifies QuPath measurement column
// headers. Newer QuPath exports escape punctuation in column names by
// substituting runs of periods for parentheses and colons; this package
// reverses that encoding with a fixed substitution table and parses the
// result into structured column keys.
package header

import "strings"

// Known specific de-escapes, applied before the generic period rules. Order
// matters: the marker-specific fixes must run before runs of periods are
// interpreted as punctuation.
var specificSubstitutions = [...][2]string{
	{"MHC.I..", "MHC I ("},
	{"MHC.II..", "MHC II ("},
	{"MHC_I_.", "MHC_I_("},
	{"MHC_II_.", "MHC_II_("},
	{"Target.", "Target:"},
	{"Beta.Tubulin", "Beta-Tubulin"},
	{"IFN.y", "IFN-y"},
	{"HLA.DR", "HLA-DR"},
}

const stdDevGuard = "\x00STDDEV\x00"

// Normalize reverses the export tool's punctuation escaping and produces the
// canonical header form: "Target:" prefixes removed, underscores replaced
// with spaces, escaped periods restored to the punctuation they stood for.
// A period is kept only where it is a decimal point, i.e. flanked by a digit
// on either side. Normalize is idempotent.
func Normalize(h string) string {
	// Mis-decoded and escaped micrometre units first.
	h = strings.ReplaceAll(h, "Âµm", "µm")
	h = strings.ReplaceAll(h, "µm.2", "µm^2")

	for _, s := range specificSubstitutions {
		h = strings.ReplaceAll(h, s[0], s[1])
	}

	// A triple period closed a parenthesized marker name, a double period
	// was a field separator.
	h = strings.ReplaceAll(h, "...", "): ")
	h = strings.ReplaceAll(h, "..", ": ")

	// Remaining single periods become spaces unless they are decimal points
	// or part of the Std.Dev. statistic name.
	h = strings.ReplaceAll(h, "Std.Dev.", stdDevGuard)
	h = replaceBarePeriods(h)
	h = strings.ReplaceAll(h, stdDevGuard, "Std.Dev.")

	h = strings.ReplaceAll(h, "Target:", "")
	h = strings.ReplaceAll(h, "_", " ")
	return strings.TrimSpace(h)
}

// replaceBarePeriods turns every period that is not adjacent to a digit on
// either side into a space, leaving decimal points (e.g. "98.0") intact.
func replaceBarePeriods(h string) string {
	runes := []rune(h)
	for i, r := range runes {
		if r != '.' {
			continue
		}
		prevDigit := i > 0 && isDigit(runes[i-1])
		nextDigit := i+1 < len(runes) && isDigit(runes[i+1])
		if !prevDigit && !nextDigit {
			runes[i] = ' '
		}
	}
	return string(runes)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
