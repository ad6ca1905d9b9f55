package board

import (
	"fmt"
	"strings"
)

// TrendMode selects how series are windowed for sparklines.
type TrendMode int

const (
	// TrendAfter keeps the elements whose index is strictly greater than the
	// selected offset.
	TrendAfter TrendMode = iota
	// TrendFirst50 always keeps the first First50Points elements.
	TrendFirst50
)

// First50Points is the fixed window length of TrendFirst50.
const First50Points = 50

func (m TrendMode) String() string {
	switch m {
	case TrendFirst50:
		return "first50"
	default:
		return "after"
	}
}

// ParseTrendMode accepts the config spelling of a mode. Empty means TrendAfter.
func ParseTrendMode(s string) (TrendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "after":
		return TrendAfter, nil
	case "first50":
		return TrendFirst50, nil
	default:
		return TrendAfter, fmt.Errorf("board: unknown trend mode %q (want after or first50)", s)
	}
}

// TrendWindow is the trend window selector. The offset is only meaningful in
// TrendAfter mode; its valid range is [0, currentDay).
type TrendWindow struct {
	mode   TrendMode
	offset int
}

// NewTrendWindow builds a window with an unclamped offset; call Clamp once the
// current day is known.
func NewTrendWindow(mode TrendMode, offset int) TrendWindow {
	if offset < 0 {
		offset = 0
	}
	return TrendWindow{mode: mode, offset: offset}
}

// Mode returns the windowing mode.
func (w TrendWindow) Mode() TrendMode { return w.mode }

// Offset returns the start offset.
func (w TrendWindow) Offset() int { return w.offset }

// SetOffset selects a new offset, clamped to [0, currentDay).
func (w *TrendWindow) SetOffset(offset, currentDay int) {
	w.offset = offset
	w.Clamp(currentDay)
}

// Clamp pulls the offset back into [0, currentDay).
func (w *TrendWindow) Clamp(currentDay int) {
	if w.offset > currentDay-1 {
		w.offset = currentDay - 1
	}
	if w.offset < 0 {
		w.offset = 0
	}
}

// ToggleMode switches between TrendAfter and TrendFirst50. The offset is kept
// so switching back restores the previous window.
func (w *TrendWindow) ToggleMode() {
	if w.mode == TrendAfter {
		w.mode = TrendFirst50
		return
	}
	w.mode = TrendAfter
}

// Apply returns a copy of the windowed part of series. An offset at or past
// the end yields an empty, non-nil slice.
func (w TrendWindow) Apply(series []float64) []float64 {
	var part []float64
	switch w.mode {
	case TrendFirst50:
		n := len(series)
		if n > First50Points {
			n = First50Points
		}
		part = series[:n]
	default:
		start := w.offset + 1
		if start >= len(series) {
			return []float64{}
		}
		part = series[start:]
	}
	out := make([]float64, len(part))
	copy(out, part)
	return out
}

// DayOf maps an index into a windowed series back to its 1-based day.
func (w TrendWindow) DayOf(i int) int {
	if w.mode == TrendFirst50 {
		return i + 1
	}
	return w.offset + 2 + i
}

// Label is the trend column header.
func (w TrendWindow) Label() string {
	if w.mode == TrendFirst50 {
		return fmt.Sprintf("Trend (first %d days)", First50Points)
	}
	return fmt.Sprintf("Trend since Day %d", w.offset)
}
