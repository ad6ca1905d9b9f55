// Package board is the view model of the status dashboard: which day is
// selected, how trends are windowed, what the metrics table contains and
// which series the detail popup shows. It does no I/O and is driven from a
// single event loop.
package board

// Navigator tracks the selected 1-based day, clamped to [1, max].
type Navigator struct {
	day int
	max int
}

// NewNavigator opens on the latest fully-simulated day. A snapshot without
// any simulated day yields an empty navigator with both controls disabled.
func NewNavigator(max int) Navigator {
	if max < 1 {
		return Navigator{}
	}
	return Navigator{day: max, max: max}
}

// Day returns the selected day, 0 when the navigator is empty.
func (n Navigator) Day() int { return n.day }

// Max returns the latest selectable day.
func (n Navigator) Max() int { return n.max }

// CanPrevious reports whether SelectPrevious would move.
func (n Navigator) CanPrevious() bool { return n.day > 1 }

// CanNext reports whether SelectNext would move.
func (n Navigator) CanNext() bool { return n.day < n.max }

// SelectPrevious moves one day back; it is a no-op at day 1.
func (n *Navigator) SelectPrevious() bool {
	if !n.CanPrevious() {
		return false
	}
	n.day--
	return true
}

// SelectNext moves one day forward; it is a no-op at the latest day.
func (n *Navigator) SelectNext() bool {
	if !n.CanNext() {
		return false
	}
	n.day++
	return true
}
