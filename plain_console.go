package main

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"statusdash/board"
	"statusdash/fetch"
	"statusdash/ui"
)

const plainDivider = "--------"

// Shared color printers for the plain renderer.
var (
	colorBold = color.New(color.Bold)
	colorRed  = color.New(color.FgRed)
	colorGray = color.New(color.FgHiBlack)
)

// plainConsole is the non-interactive surface. It prints the table whenever
// a new snapshot arrives; with render disabled (headless) it only logs.
type plainConsole struct {
	mu         sync.Mutex
	out        io.Writer
	view       *board.View
	sparkWidth int
	render     bool
	lastErr    string
	done       chan struct{}
	stopOnce   sync.Once
}

var _ ui.Surface = (*plainConsole)(nil)

// Purpose: Construct the plain or headless surface.
// Key aspects: Owns a private board.View; nothing is drawn until SetState.
// Upstream: runDashboard surface selection.
// Downstream: board.NewView.
func newPlainConsole(out io.Writer, mode board.TrendMode, offset, sparkWidth int, render bool) *plainConsole {
	return &plainConsole{
		out:        out,
		view:       board.NewView(mode, offset),
		sparkWidth: sparkWidth,
		render:     render,
		done:       make(chan struct{}),
	}
}

// WaitReady is a no-op; the plain console has no async initialization.
func (c *plainConsole) WaitReady() {}

// Stop closes Done once.
func (c *plainConsole) Stop() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

func (c *plainConsole) Done() <-chan struct{} { return c.done }

// SystemWriter is nil: log lines stay on the console sink.
func (c *plainConsole) SystemWriter() io.Writer { return nil }

// Purpose: React to a query state transition.
// Key aspects: Prints only on a changed Ready snapshot or a new error so a
// poll that returns the same document stays silent.
// Upstream: fetch.Query subscription in runDashboard.
// Downstream: renderPlain.
func (c *plainConsole) SetState(st fetch.State) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch st.Phase {
	case fetch.PhaseReady:
		c.lastErr = ""
		if !st.Changed && c.view.Loaded() {
			return
		}
		c.view.Load(st.Snapshot)
		if !c.render {
			log.Printf("Snapshot: %s (req %s)", c.view.Title(), shortID(st.RequestID))
			return
		}
		if err := renderPlain(c.out, c.view, c.sparkWidth); err != nil {
			log.Printf("Plain: render failed: %v", err)
		}
	case fetch.PhaseError:
		msg := st.Message()
		if msg == c.lastErr {
			return
		}
		c.lastErr = msg
		if c.render {
			fmt.Fprintln(c.out, colorRed.Sprint("An error has occurred: "+msg))
		}
	}
}

// Purpose: Write the title, details and metrics table for the selected day.
// Key aspects: Divider and info rows keep their position; missing values show
// the placeholder.
// Upstream: plainConsole.SetState and printCmd.
// Downstream: tablewriter.Table.Render.
func renderPlain(w io.Writer, v *board.View, sparkWidth int) error {
	if v == nil || !v.Loaded() {
		return fmt.Errorf("no snapshot loaded")
	}
	if _, err := fmt.Fprintln(w, colorBold.Sprint(v.Title())); err != nil {
		return err
	}
	details := make([]string, 0, 5)
	for _, kv := range v.Details() {
		details = append(details, kv[0]+": "+kv[1])
	}
	if _, err := fmt.Fprintln(w, strings.Join(details, "   ")); err != nil {
		return err
	}

	t := v.Table()
	tbl := tablewriter.NewWriter(w)
	tbl.SetAutoFormatHeaders(false)
	tbl.SetAutoWrapText(false)
	tbl.SetHeader(t.Headers)
	tbl.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	for _, r := range t.Rows {
		switch r.Kind {
		case board.RowDivider:
			tbl.Append([]string{plainDivider, plainDivider, plainDivider, plainDivider})
		case board.RowInfo:
			tbl.Append([]string{r.Label, board.FormatText(r.Info), "", ""})
		default:
			tbl.Append([]string{r.Label, plainValue(r.CurrentText()), plainValue(r.PreviousText()), board.Sparkline(r.Trend, sparkWidth)})
		}
	}
	tbl.Render()
	return nil
}

func plainValue(s string) string {
	if s == board.Placeholder {
		return colorGray.Sprint(s)
	}
	return s
}
