package board

import (
	"math"

	"github.com/dustin/go-humanize"
)

// Placeholder is shown for values that are missing, out of range or NaN.
const Placeholder = "—"

// FormatValue renders a cell value: integers with thousands separators,
// fractions with up to two decimals.
func FormatValue(v float64, ok bool) string {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	rounded := math.Round(v*100) / 100
	if rounded == 0 {
		rounded = 0 // drop negative zero
	}
	return humanize.CommafWithDigits(rounded, 2)
}

// FormatText renders a descriptive string, Placeholder when empty.
func FormatText(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
