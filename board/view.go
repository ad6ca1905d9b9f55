package board

import (
	"fmt"
	"math"

	"statusdash/status"
)

// View is the local state of the dashboard over one snapshot: selected day,
// trend window and popup. Derived values are recomputed on every Table call.
type View struct {
	snap   *status.Snapshot
	nav    Navigator
	window TrendWindow
	popup  Popup
}

// NewView creates an empty view with the configured trend window.
func NewView(mode TrendMode, defaultOffset int) *View {
	return &View{window: NewTrendWindow(mode, defaultOffset)}
}

// Load installs a snapshot and moves the navigator to its latest day. The
// trend window keeps its offset, clamped to the new day.
func (v *View) Load(s *status.Snapshot) {
	v.snap = s
	max := 0
	if s != nil {
		max = s.Day
	}
	v.nav = NewNavigator(max)
	v.window.Clamp(v.nav.Day())
}

// Loaded reports whether a snapshot is installed.
func (v *View) Loaded() bool { return v.snap != nil }

// Snapshot returns the installed snapshot.
func (v *View) Snapshot() *status.Snapshot { return v.snap }

// Day returns the selected day.
func (v *View) Day() int { return v.nav.Day() }

// Navigator exposes the navigator state for enabling controls.
func (v *View) Navigator() Navigator { return v.nav }

// Window returns the trend window.
func (v *View) Window() TrendWindow { return v.window }

// SelectPrevious moves one day back.
func (v *View) SelectPrevious() bool {
	if !v.nav.SelectPrevious() {
		return false
	}
	v.window.Clamp(v.nav.Day())
	return true
}

// SelectNext moves one day forward.
func (v *View) SelectNext() bool {
	return v.nav.SelectNext()
}

// SetOffset picks a trend window offset for the selected day.
func (v *View) SetOffset(offset int) {
	v.window.SetOffset(offset, v.nav.Day())
}

// ShiftOffset moves the trend window offset by delta.
func (v *View) ShiftOffset(delta int) {
	v.SetOffset(v.window.Offset() + delta)
}

// ToggleTrendMode switches between the offset window and the first-50 window.
func (v *View) ToggleTrendMode() {
	v.window.ToggleMode()
}

// Table builds the metrics table for the selected day.
func (v *View) Table() Table {
	return BuildTable(v.snap, v.nav.Day(), v.window)
}

// OpenPopup shows the windowed series of a metric row.
func (v *View) OpenPopup(r Row) bool {
	return v.popup.Open(r, v.window)
}

// ClosePopup dismisses the popup.
func (v *View) ClosePopup() { v.popup.Close() }

// Popup returns the popup state.
func (v *View) Popup() Popup { return v.popup }

// Title is the dashboard heading, e.g. "Day 3. Cash: 100".
func (v *View) Title() string {
	if v.snap == nil {
		return ""
	}
	cash := v.snap.Cash
	return fmt.Sprintf("Day %d. Cash: %s", v.nav.Day(), FormatValue(cash, !math.IsNaN(cash)))
}

// Details lists the descriptive strings of the snapshot as label/value pairs.
func (v *View) Details() [][2]string {
	if v.snap == nil {
		return nil
	}
	return [][2]string{
		{"Name", FormatText(v.snap.Name)},
		{"Unit cost", FormatText(v.snap.UnitCost)},
		{"Order cost", FormatText(v.snap.OrderCost)},
		{"Lead time", FormatText(v.snap.LeadTime)},
		{"Reorder point", FormatText(v.snap.ReorderPoint)},
	}
}
