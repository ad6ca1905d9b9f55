package board

import "math"

// PopupLine is one (day, value) entry of the detail popup.
type PopupLine struct {
	Day   int
	Value float64
	OK    bool
}

// Text renders the value cell.
func (l PopupLine) Text() string { return FormatValue(l.Value, l.OK) }

// Popup holds the series shown in the detail popup, or nothing.
type Popup struct {
	open   bool
	label  string
	series []float64
	window TrendWindow
}

// Open captures the windowed series of a metric row. Non-metric rows are
// ignored.
func (p *Popup) Open(r Row, w TrendWindow) bool {
	if r.Kind != RowMetric {
		return false
	}
	p.open = true
	p.label = r.Label
	p.series = append([]float64(nil), r.Trend...)
	p.window = w
	return true
}

// Close dismisses the popup.
func (p *Popup) Close() {
	*p = Popup{}
}

// IsOpen reports whether a series is displayed.
func (p Popup) IsOpen() bool { return p.open }

// Label is the row label the popup was opened from.
func (p Popup) Label() string { return p.label }

// Values returns the captured windowed series.
func (p Popup) Values() []float64 { return p.series }

// Lines pairs every value with the day it belongs to.
func (p Popup) Lines() []PopupLine {
	if !p.open {
		return nil
	}
	out := make([]PopupLine, len(p.series))
	for i, v := range p.series {
		out[i] = PopupLine{Day: p.window.DayOf(i), Value: v, OK: !math.IsNaN(v) && !math.IsInf(v, 0)}
	}
	return out
}
