package board

import (
	"fmt"

	"statusdash/status"
)

// RowKind distinguishes data rows from the decorative ones.
type RowKind int

const (
	RowMetric RowKind = iota
	RowDivider
	RowInfo
)

// Row keys for the derived metrics.
const (
	KeySystemTotal = "system_total"
	KeyDayRevenue  = "day_revenue"
)

// Row is one line of the metrics table.
type Row struct {
	Kind  RowKind
	Key   string
	Label string

	Current     float64
	HasCurrent  bool
	Previous    float64
	HasPrevious bool

	// Trend is the windowed series; Sparkline sanitises it when drawing.
	Trend []float64

	// Info is the verbatim text of a RowInfo row.
	Info string
}

// CurrentText renders the current-day cell.
func (r Row) CurrentText() string { return FormatValue(r.Current, r.HasCurrent) }

// PreviousText renders the previous-day cell.
func (r Row) PreviousText() string { return FormatValue(r.Previous, r.HasPrevious) }

// Table is the rendered metrics table for one day.
type Table struct {
	Day     int
	Headers []string
	Rows    []Row
}

// Metrics returns only the RowMetric rows.
func (t Table) Metrics() []Row {
	out := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Kind == RowMetric {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the metric row with the given key.
func (t Table) Find(key string) (Row, bool) {
	for _, r := range t.Rows {
		if r.Kind == RowMetric && r.Key == key {
			return r, true
		}
	}
	return Row{}, false
}

var leadingSeries = []struct {
	key   string
	label string
}{
	{status.SeriesJobT, "Day Leadtime"},
	{status.SeriesInv, "In INV"},
	{status.SeriesJobOut, "Jobs Completed"},
}

// BuildTable assembles the metrics table for day. Every trend goes through
// the window.
func BuildTable(s *status.Snapshot, day int, w TrendWindow) Table {
	t := Table{
		Day: day,
		Headers: []string{
			"Name",
			fmt.Sprintf("Day %d", day),
			fmt.Sprintf("Day %d", day-1),
			w.Label(),
		},
	}
	if s == nil {
		return t
	}

	total := Row{Kind: RowMetric, Key: KeySystemTotal, Label: "Total in system (Job IN and queues)"}
	total.Current, total.HasCurrent = s.SystemTotal(day)
	total.Previous, total.HasPrevious = s.SystemTotal(day - 1)
	total.Trend = w.Apply(s.SystemTotalTrend())
	t.Rows = append(t.Rows, total)

	revenue := Row{Kind: RowMetric, Key: KeyDayRevenue, Label: "Day Revenue"}
	revenue.Current, revenue.HasCurrent = s.DayRevenue(day)
	revenue.Previous, revenue.HasPrevious = s.DayRevenue(day - 1)
	revenue.Trend = w.Apply(s.RevenueTrend())
	t.Rows = append(t.Rows, revenue)

	for _, ls := range leadingSeries {
		t.Rows = append(t.Rows, seriesRow(s, ls.key, ls.label, day, w))
	}

	t.Rows = append(t.Rows,
		Row{Kind: RowDivider},
		Row{Kind: RowInfo, Key: status.FieldInvOrder, Label: "Next INV:", Info: s.InvOrder},
		Row{Kind: RowDivider},
	)

	for _, name := range s.Present() {
		t.Rows = append(t.Rows, seriesRow(s, name, name, day, w))
	}
	return t
}

func seriesRow(s *status.Snapshot, key, label string, day int, w TrendWindow) Row {
	r := Row{Kind: RowMetric, Key: key, Label: label}
	r.Current, r.HasCurrent = s.Value(key, day)
	r.Previous, r.HasPrevious = s.Value(key, day-1)
	r.Trend = w.Apply(s.Trend(key))
	return r
}
