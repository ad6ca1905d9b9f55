package ui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"statusdash/board"
	"statusdash/fetch"
	"statusdash/status"
)

const (
	paneWriterMaxBytes = 64 * 1024
	logPaneLines       = 500
	logPaneBytes       = 256 * 1024
	logLineBytes       = 1024
)

const (
	accentTag   = "[#ff69b4]"
	accentReset = "[-]"
)

const (
	pageLoading = "loading"
	pageError   = "error"
	pageReady   = "ready"
	pagePopup   = "popup"
	pageHelp    = "help"
)

var (
	uiBorderColor = tcell.ColorGray
	uiTitleColor  = tcell.ColorHotPink
)

// Options configures the interactive dashboard.
type Options struct {
	TargetFPS      int
	SparklineWidth int
	EnableMouse    bool
	TrendMode      board.TrendMode
	DefaultOffset  int
	// Refresh is invoked from the event loop when the user presses r; it must
	// not block.
	Refresh func()
	Metrics *Metrics
}

// Dashboard is the tview surface: a loading, error and ready page plus the
// detail popup and help overlays.
type Dashboard struct {
	app       *tview.Application
	pages     *tview.Pages
	scheduler *frameScheduler
	opts      Options
	metrics   *Metrics
	logs      *LogBuffer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ready    chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// Everything below is owned by the event loop.
	view      *board.View
	state     fetch.State
	table     board.Table
	helpShown bool
	logLines  []LogLine

	header    *tview.TextView
	details   *tview.TextView
	grid      *tview.Table
	logView   *tview.TextView
	statusBar *tview.TextView
	loading   *tview.TextView
	errorView *tview.TextView
	popupBox  *tview.Flex
	popupList *tview.TextView
	popupPlot *tview.TextView
}

// NewDashboard builds the dashboard and starts the tview event loop.
func NewDashboard(opts Options) *Dashboard {
	app := tview.NewApplication().EnableMouse(opts.EnableMouse)
	d := buildDashboard(app, opts)
	var once sync.Once
	app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		once.Do(func() { close(d.ready) })
		return false
	})
	d.scheduler.Start()
	d.wg.Add(1)
	go d.clockLoop()
	go func() {
		defer close(d.done)
		if err := app.Run(); err != nil {
			log.Printf("UI: tview error: %v", err)
		}
	}()
	return d
}

// buildDashboard wires the widgets without running the application. A nil
// app gives a dashboard whose updates apply inline on flush.
func buildDashboard(app *tview.Application, opts Options) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	d := &Dashboard{
		app:     app,
		pages:   tview.NewPages(),
		opts:    opts,
		metrics: opts.Metrics,
		logs:    NewLogBuffer(logPaneLines, logPaneBytes, logLineBytes),
		ctx:     ctx,
		cancel:  cancel,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		view:    board.NewView(opts.TrendMode, opts.DefaultOffset),
	}
	if app == nil {
		close(d.ready)
	}

	d.loading = newBoxedTextView("statusdash")
	d.loading.SetText("\n  Loading…")
	d.errorView = newBoxedTextView("Error")
	d.errorView.SetDynamicColors(false).SetWrap(true).SetTextColor(tcell.ColorRed)

	d.header = newBoxedTextView("Status")
	d.details = newBoxedTextView("Details")
	d.grid = tview.NewTable().SetSelectable(true, false).SetFixed(1, 1)
	d.grid.SetBorder(true).SetTitle(accentText("Metrics")).SetTitleAlign(tview.AlignLeft)
	d.grid.SetBorderColor(uiBorderColor)
	d.grid.SetTitleColor(uiTitleColor)
	d.logView = newBoxedTextView("System Log")
	d.logView.SetScrollable(true)

	readyRoot := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.header, 3, 0, false).
		AddItem(d.details, 3, 0, false).
		AddItem(d.grid, 0, 1, true).
		AddItem(d.logView, 8, 0, false)

	d.popupList = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	d.popupList.SetScrollable(true)
	d.popupPlot = tview.NewTextView().SetDynamicColors(false).SetWrap(false)
	d.popupBox = tview.NewFlex().
		AddItem(d.popupList, 22, 0, false).
		AddItem(d.popupPlot, 0, 1, false)
	d.popupBox.SetBorder(true)
	d.popupBox.SetBorderColor(uiBorderColor)
	d.popupBox.SetTitleColor(uiTitleColor)

	d.pages.AddPage(pageLoading, d.loading, true, true)
	d.pages.AddPage(pageError, d.errorView, true, false)
	d.pages.AddPage(pageReady, readyRoot, true, false)
	d.pages.AddPage(pagePopup, centered(d.popupBox, 90, 20), true, false)
	d.pages.AddPage(pageHelp, buildHelpOverlay(), true, false)

	d.statusBar = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	d.statusBar.SetText(statusText(d.state, d.view.Window(), d.metrics, time.Now()))

	d.scheduler = newFrameScheduler(app, opts.TargetFPS, 100*time.Millisecond, d.metrics.ObserveRender)

	if app != nil {
		root := tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(d.pages, 0, 1, true).
			AddItem(d.statusBar, 1, 0, false).
			AddItem(buildFooter(), 1, 0, false)
		app.SetRoot(root, true)
		app.SetInputCapture(d.handleKey)
		app.SetFocus(d.grid)
	}
	return d
}

// WaitReady blocks until the first frame is drawn.
func (d *Dashboard) WaitReady() {
	if d == nil || d.ready == nil {
		return
	}
	<-d.ready
}

// Done is closed once the event loop has exited.
func (d *Dashboard) Done() <-chan struct{} {
	return d.done
}

// Stop halts the clock, drains pending updates and stops the application.
func (d *Dashboard) Stop() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.cancel()
		if d.scheduler != nil {
			d.scheduler.Stop()
		}
		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
			log.Printf("UI: dashboard stop timeout, some goroutines may leak")
		}
		if d.app != nil {
			d.app.Stop()
		} else {
			close(d.done)
		}
	})
}

// SetState hands a new query state to the dashboard. Safe from any goroutine.
func (d *Dashboard) SetState(st fetch.State) {
	if d == nil {
		return
	}
	d.scheduler.Schedule("state", func() { d.applyState(st) })
}

// AppendSystem adds a line to the system log pane.
func (d *Dashboard) AppendSystem(line string) {
	if d == nil || d.logs == nil {
		return
	}
	if d.logs.Append(LogLine{Timestamp: time.Now().UTC(), Message: line}) && d.scheduler != nil {
		d.scheduler.Schedule("logs", d.renderLogs)
	}
}

// SystemWriter returns a writer that feeds complete lines to the log pane.
func (d *Dashboard) SystemWriter() io.Writer {
	if d == nil {
		return nil
	}
	return &paneWriter{dash: d}
}

func (d *Dashboard) clockLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.scheduler.Schedule("status", d.renderStatus)
		}
	}
}

// snapshotDiffers reports whether next should replace the loaded snapshot.
// Coalesced state updates can drop the Changed flag, so content is compared
// by hash as well.
func snapshotDiffers(loaded, next *status.Snapshot) bool {
	if loaded == nil || next == nil {
		return loaded != next
	}
	return loaded.Hash != next.Hash
}

func (d *Dashboard) applyState(st fetch.State) {
	d.state = st
	switch st.Phase {
	case fetch.PhaseError:
		d.errorView.SetText(errorText(st.Message()))
		d.closeOverlays()
		d.pages.SwitchToPage(pageError)
	case fetch.PhaseReady:
		if st.Changed || !d.view.Loaded() || snapshotDiffers(d.view.Snapshot(), st.Snapshot) {
			d.view.Load(st.Snapshot)
			d.view.ClosePopup()
			d.pages.HidePage(pagePopup)
			d.renderReady()
			d.grid.Select(firstSelectableRow(d.table), 0)
			d.grid.ScrollToBeginning()
		}
		if front, _ := d.pages.GetFrontPage(); front != pageReady && front != pagePopup && front != pageHelp {
			d.pages.SwitchToPage(pageReady)
			d.restoreOverlays()
		}
	default:
		d.view.Load(nil)
		d.closeOverlays()
		d.pages.SwitchToPage(pageLoading)
	}
	d.renderStatus()
}

func (d *Dashboard) closeOverlays() {
	d.view.ClosePopup()
	d.pages.HidePage(pagePopup)
	if d.helpShown {
		d.toggleHelp(false)
	}
}

func (d *Dashboard) restoreOverlays() {
	if d.view.Popup().IsOpen() {
		d.pages.ShowPage(pagePopup)
		d.pages.SendToFront(pagePopup)
	}
}

func (d *Dashboard) renderReady() {
	d.table = d.view.Table()
	d.header.SetText(titleText(d.view))
	d.details.SetText(detailsText(d.view))
	row, _ := d.grid.GetSelection()
	fillTable(d.grid, d.table, d.opts.SparklineWidth)
	if row > 0 && row <= len(d.table.Rows) {
		d.grid.Select(row, 0)
	}
	d.renderStatus()
}

func (d *Dashboard) renderStatus() {
	d.statusBar.SetText(statusText(d.state, d.view.Window(), d.metrics, time.Now()))
}

func (d *Dashboard) renderLogs() {
	d.logLines, _ = d.logs.Snapshot(d.logLines)
	var b strings.Builder
	for _, l := range d.logLines {
		b.WriteString(l.Timestamp.Local().Format("15:04:05"))
		b.WriteString(" ")
		b.WriteString(tview.Escape(l.Message))
		b.WriteString("\n")
	}
	d.logView.SetText(b.String())
	d.logView.ScrollToEnd()
}

func (d *Dashboard) renderPopup() {
	p := d.view.Popup()
	d.popupBox.SetTitle(accentText(tview.Escape(p.Label())) + " · " + d.view.Window().Label())
	d.popupList.SetText(popupText(p))
	d.popupList.ScrollToBeginning()
	_, _, width, _ := d.popupPlot.GetInnerRect()
	width -= 10
	if width < 10 {
		width = 0
	}
	d.popupPlot.SetText(plotText(p, width, 10))
}

func firstSelectableRow(t board.Table) int {
	for i, r := range t.Rows {
		if r.Kind == board.RowMetric {
			return i + 1
		}
	}
	return 0
}

// selectedRow maps the grid selection back to its table row.
func (d *Dashboard) selectedRow() (board.Row, bool) {
	row, _ := d.grid.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(d.table.Rows) {
		return board.Row{}, false
	}
	return d.table.Rows[idx], true
}

func (d *Dashboard) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event == nil {
		return nil
	}
	if event.Key() == tcell.KeyCtrlC || event.Rune() == 'q' || event.Rune() == 'Q' {
		d.quit()
		return nil
	}
	if d.helpShown {
		if event.Key() == tcell.KeyEsc || event.Key() == tcell.KeyF1 || event.Rune() == '?' {
			d.toggleHelp(false)
		}
		return nil
	}
	if event.Key() == tcell.KeyF1 || event.Rune() == '?' {
		d.toggleHelp(true)
		return nil
	}
	if event.Rune() == 'r' || event.Rune() == 'R' {
		if d.opts.Refresh != nil {
			d.opts.Refresh()
		}
		return nil
	}
	if d.view.Popup().IsOpen() {
		if event.Key() == tcell.KeyEsc || event.Key() == tcell.KeyEnter {
			d.view.ClosePopup()
			d.pages.HidePage(pagePopup)
			return nil
		}
		scrollTextView(d.popupList, event)
		return nil
	}
	if front, _ := d.pages.GetFrontPage(); front != pageReady {
		return nil
	}

	switch event.Key() {
	case tcell.KeyLeft:
		d.selectPrevious()
		return nil
	case tcell.KeyRight:
		d.selectNext()
		return nil
	case tcell.KeyEnter:
		d.openPopup()
		return nil
	case tcell.KeyPgUp, tcell.KeyPgDn:
		if scrollTextView(d.logView, event) {
			return nil
		}
	}

	switch event.Rune() {
	case 'h':
		d.selectPrevious()
		return nil
	case 'l':
		d.selectNext()
		return nil
	case '[':
		d.view.ShiftOffset(-1)
		d.renderReady()
		return nil
	case ']':
		d.view.ShiftOffset(1)
		d.renderReady()
		return nil
	case 'm', 'M':
		d.view.ToggleTrendMode()
		d.renderReady()
		return nil
	}
	if d.app == nil {
		d.moveSelection(event)
		return nil
	}
	return event
}

// moveSelection applies row navigation when no application routes keys to
// the table.
func (d *Dashboard) moveSelection(event *tcell.EventKey) {
	row, _ := d.grid.GetSelection()
	step := 0
	switch event.Key() {
	case tcell.KeyUp:
		step = -1
	case tcell.KeyDown:
		step = 1
	default:
		return
	}
	for next := row + step; next > 0 && next <= len(d.table.Rows); next += step {
		if d.table.Rows[next-1].Kind == board.RowMetric {
			d.grid.Select(next, 0)
			return
		}
	}
}

func (d *Dashboard) selectPrevious() {
	if d.view.SelectPrevious() {
		d.renderReady()
	}
}

func (d *Dashboard) selectNext() {
	if d.view.SelectNext() {
		d.renderReady()
	}
}

func (d *Dashboard) openPopup() {
	r, ok := d.selectedRow()
	if !ok || !d.view.OpenPopup(r) {
		return
	}
	d.renderPopup()
	d.pages.ShowPage(pagePopup)
	d.pages.SendToFront(pagePopup)
}

func (d *Dashboard) toggleHelp(show bool) {
	d.helpShown = show
	if show {
		d.pages.ShowPage(pageHelp)
		d.pages.SendToFront(pageHelp)
		return
	}
	d.pages.HidePage(pageHelp)
}

func (d *Dashboard) quit() {
	go d.Stop()
}

type paneWriter struct {
	dash *Dashboard
	// buf holds any partial line; it is bounded to avoid unbounded growth when no newline arrives.
	buf          []byte
	mu           sync.Mutex
	droppedBytes uint64
	lastDropLog  time.Time
}

func (w *paneWriter) Write(p []byte) (int, error) {
	if w == nil || w.dash == nil {
		return len(p), nil
	}
	var logDrop bool
	var dropBytes, totalDropped uint64
	now := time.Now().UTC()
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	if excess := len(w.buf) - paneWriterMaxBytes; excess > 0 {
		w.buf = w.buf[excess:]
		w.droppedBytes += uint64(excess)
		dropBytes = uint64(excess)
		totalDropped = w.droppedBytes
		if w.lastDropLog.IsZero() || now.Sub(w.lastDropLog) >= 30*time.Second {
			w.lastDropLog = now
			logDrop = true
		}
	}
	var lines []string
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, string(bytes.TrimRight(w.buf[:idx], "\r")))
		w.buf = w.buf[idx+1:]
	}
	w.mu.Unlock()

	if logDrop {
		w.dash.AppendSystem(fmt.Sprintf("UI: log pane dropped %d bytes (total %d) due to missing newline", dropBytes, totalDropped))
	}
	for _, line := range lines {
		w.dash.AppendSystem(line)
	}
	return len(p), nil
}

func newBoxedTextView(title string) *tview.TextView {
	tv := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	tv.SetBorder(true)
	if title != "" {
		tv.SetTitle(accentText(title)).SetTitleAlign(tview.AlignLeft)
	}
	tv.SetBorderColor(uiBorderColor)
	tv.SetTitleColor(uiTitleColor)
	return tv
}

func buildFooter() *tview.TextView {
	return tview.NewTextView().SetDynamicColors(true).SetText(
		accentText("←/→") + " Day  " + accentText("[ ]") + " Offset  " + accentText("m") + " Mode  " +
			accentText("Enter") + " Detail  " + accentText("r") + " Refresh  " + accentText("?") + " Help  [Q]Quit",
	)
}

func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false),
			width, 1, true).
		AddItem(nil, 0, 1, false)
}

func buildHelpOverlay() tview.Primitive {
	help := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	help.SetText(strings.TrimSpace(helpText))
	help.SetBorder(true).SetTitle("Help")
	help.SetBorderColor(uiBorderColor)
	help.SetTitleColor(uiTitleColor)
	return centered(help, 64, 17)
}

func scrollTextView(target *tview.TextView, event *tcell.EventKey) bool {
	if target == nil || event == nil {
		return false
	}
	row, col := target.GetScrollOffset()
	page := 10
	_, _, _, height := target.GetInnerRect()
	if height > 0 {
		page = height - 1
		if page < 1 {
			page = 1
		}
	}
	switch event.Key() {
	case tcell.KeyUp:
		if row > 0 {
			row--
		}
	case tcell.KeyDown:
		row++
	case tcell.KeyPgUp:
		row -= page
		if row < 0 {
			row = 0
		}
	case tcell.KeyPgDn:
		row += page
	case tcell.KeyHome:
		row = 0
	case tcell.KeyEnd:
		row = 1 << 30
	default:
		return false
	}
	target.ScrollTo(row, col)
	return true
}

func accentText(text string) string {
	if text == "" {
		return ""
	}
	return accentTag + text + accentReset
}
