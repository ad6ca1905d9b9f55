package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/guptarohit/asciigraph"
	"github.com/rivo/tview"

	"statusdash/board"
	"statusdash/fetch"
)

const dividerText = "────────"

// errorText is the body of the error page.
func errorText(msg string) string {
	return "An error has occurred: " + msg
}

// fillTable renders t into tbl. Row 0 holds the headers; table row i+1 maps
// to t.Rows[i]. Only metric rows are selectable.
func fillTable(tbl *tview.Table, t board.Table, sparkWidth int) {
	tbl.Clear()
	for col, h := range t.Headers {
		cell := tview.NewTableCell(accentText(tview.Escape(h))).
			SetSelectable(false).
			SetExpansion(expansionFor(col))
		if col == 1 || col == 2 {
			cell.SetAlign(tview.AlignRight)
		}
		tbl.SetCell(0, col, cell)
	}
	for i, r := range t.Rows {
		row := i + 1
		switch r.Kind {
		case board.RowDivider:
			for col := range t.Headers {
				tbl.SetCell(row, col, tview.NewTableCell(dividerText).
					SetSelectable(false).
					SetTextColor(uiBorderColor))
			}
		case board.RowInfo:
			tbl.SetCell(row, 0, tview.NewTableCell(tview.Escape(r.Label)).SetSelectable(false))
			tbl.SetCell(row, 1, tview.NewTableCell(tview.Escape(board.FormatText(r.Info))).SetSelectable(false))
			tbl.SetCell(row, 2, tview.NewTableCell("").SetSelectable(false))
			tbl.SetCell(row, 3, tview.NewTableCell("").SetSelectable(false))
		default:
			tbl.SetCell(row, 0, tview.NewTableCell(tview.Escape(r.Label)).SetExpansion(expansionFor(0)))
			tbl.SetCell(row, 1, tview.NewTableCell(r.CurrentText()).SetAlign(tview.AlignRight))
			tbl.SetCell(row, 2, tview.NewTableCell(r.PreviousText()).SetAlign(tview.AlignRight))
			tbl.SetCell(row, 3, tview.NewTableCell(board.Sparkline(r.Trend, sparkWidth)).
				SetTextColor(tcell.ColorHotPink).
				SetExpansion(expansionFor(3)))
		}
	}
}

func expansionFor(col int) int {
	switch col {
	case 0:
		return 3
	case 3:
		return 2
	default:
		return 1
	}
}

// titleText is the dashboard heading plus navigation hints.
func titleText(v *board.View) string {
	if v == nil || !v.Loaded() {
		return ""
	}
	nav := v.Navigator()
	prev, next := "[gray]◀[-]", "[gray]▶[-]"
	if nav.CanPrevious() {
		prev = accentText("◀")
	}
	if nav.CanNext() {
		next = accentText("▶")
	}
	return fmt.Sprintf("%s %s %s  (day %d of %d)", prev, tview.Escape(v.Title()), next, nav.Day(), nav.Max())
}

// detailsText lists the descriptive snapshot fields.
func detailsText(v *board.View) string {
	if v == nil || !v.Loaded() {
		return ""
	}
	var b strings.Builder
	for i, kv := range v.Details() {
		if i > 0 {
			b.WriteString("   ")
		}
		b.WriteString(accentText(kv[0] + ":"))
		b.WriteString(" ")
		b.WriteString(tview.Escape(kv[1]))
	}
	return b.String()
}

// statusText summarises the query state for the status line.
func statusText(st fetch.State, w board.TrendWindow, m *Metrics, now time.Time) string {
	var parts []string
	switch st.Phase {
	case fetch.PhaseReady:
		parts = append(parts, "fetched "+humanize.RelTime(st.FetchedAt, now, "ago", "from now"))
	default:
		parts = append(parts, st.Phase.String())
	}
	if st.RequestID != "" {
		id := st.RequestID
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, "req "+id)
	}
	parts = append(parts, "trend "+w.Mode().String())
	if total, failed := m.Fetches(); total > 0 {
		lat := m.FetchSnapshot()
		parts = append(parts, fmt.Sprintf("fetches %s (%s failed, p50 %s)",
			humanize.Comma(int64(total)), humanize.Comma(int64(failed)), lat.P50.Round(time.Millisecond)))
	}
	if frames := m.RenderSnapshot(); frames.N > 0 {
		parts = append(parts, "render p50 "+frames.P50.Round(time.Millisecond).String())
	}
	line := strings.Join(parts, " · ")
	if st.RefreshErr != nil {
		line += "  [red]last refresh failed: " + tview.Escape(st.RefreshErr.Error()) + "[-]"
	}
	return line
}

// popupText lists the popup's (day, value) pairs.
func popupText(p board.Popup) string {
	lines := p.Lines()
	if len(lines) == 0 {
		return "No data in the current trend window."
	}
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%sDay %d:%s %s\n", accentTag, l.Day, accentReset, l.Text())
	}
	return strings.TrimRight(b.String(), "\n")
}

// plotText draws the popup series as an ASCII line chart.
func plotText(p board.Popup, width, height int) string {
	values := board.SanitizeFloats(p.Values())
	if len(values) == 0 {
		return ""
	}
	if len(values) == 1 {
		values = append(values, values[0])
	}
	opts := []asciigraph.Option{asciigraph.Height(height), asciigraph.Caption(p.Label())}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	return asciigraph.Plot(values, opts...)
}

const helpText = `
KEYBOARD HELP

DAYS
  ← / h  Previous day        → / l  Next day

TREND
  [  Earlier offset     ]  Later offset     m  Toggle trend mode

TABLE
  ↑/↓  Select row     Enter  Open detail     Esc  Close

GENERAL
  r  Refresh     ? / F1  Help     q / Ctrl+C  Quit
`
