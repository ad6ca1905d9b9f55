package board

import (
	"math"
	"strings"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// SanitizeFloats replaces NaN and infinities with 0.
func SanitizeFloats(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = v
	}
	return out
}

// Sparkline renders values as block runes scaled between their min and max.
// Only the trailing width points are drawn when width > 0. Empty input
// renders as an empty string and a flat series as the lowest block.
func Sparkline(values []float64, width int) string {
	clean := SanitizeFloats(values)
	if width > 0 && len(clean) > width {
		clean = clean[len(clean)-width:]
	}
	if len(clean) == 0 {
		return ""
	}
	lo, hi := clean[0], clean[0]
	for _, v := range clean[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	top := len(sparkBlocks) - 1
	var b strings.Builder
	b.Grow(len(clean) * 3)
	for _, v := range clean {
		idx := 0
		if span > 0 {
			idx = int(math.Round((v - lo) / span * float64(top)))
		}
		if idx < 0 {
			idx = 0
		} else if idx > top {
			idx = top
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}
