package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"statusdash/board"
	"statusdash/config"
	"statusdash/fetch"
	"statusdash/journal"
	"statusdash/status"
	"statusdash/ui"
)

// errQuit ends the run group when the user closes the dashboard.
var errQuit = errors.New("statusdash: quit")

// runCmd opens the dashboard. It is also what the bare root command does.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the status dashboard",
	Long: `Fetch the status document and show the daily metrics table. On a
terminal the interactive dashboard opens; otherwise the plain table is printed
every time a new snapshot arrives. Background refetches follow source.poll.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

// Purpose: Compose the query client, journal and surface, then run until quit.
// Key aspects: errgroup ties the poller and the surface to the signal context.
// Upstream: runCmd and rootCmd.
// Downstream: fetch.Query, ui.NewDashboard or newPlainConsole, journal.Open.
func runDashboard(cmd *cobra.Command, _ []string) error {
	client, err := newClient(cfg.Source)
	if err != nil {
		return exitError(ExitInvalidArgs, "statusdash: %v", err)
	}
	mode, err := board.ParseTrendMode(cfg.Trend.Mode)
	if err != nil {
		return exitError(ExitInvalidArgs, "statusdash: %v", err)
	}
	jr, err := openJournal(cfg.Journal)
	if err != nil {
		return exitError(ExitInvalidArgs, "statusdash: %v", err)
	}
	defer jr.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := ui.NewMetrics()
	query := fetch.NewQuery(client, fetch.WithObserver(fetchObserver(jr, metrics)))

	surfaceMode := selectSurfaceMode(cfg.UI.Mode, isStdoutTTY())
	log.Printf("Statusdash %s: reading %s (ui=%s, trend=%s)", Version, client.URL(), surfaceMode, mode)

	var surface ui.Surface
	switch surfaceMode {
	case "tview":
		surface = ui.NewDashboard(ui.Options{
			TargetFPS:      cfg.UI.TargetFPS,
			SparklineWidth: cfg.UI.SparklineWidth,
			EnableMouse:    cfg.UI.EnableMouse,
			TrendMode:      mode,
			DefaultOffset:  cfg.Trend.DefaultOffset,
			Refresh:        func() { go query.Load(ctx) },
			Metrics:        metrics,
		})
	default:
		surface = newPlainConsole(cmd.OutOrStdout(), mode, cfg.Trend.DefaultOffset, cfg.UI.SparklineWidth, surfaceMode == "plain")
	}
	surface.WaitReady()
	if w := surface.SystemWriter(); w != nil {
		fanout := currentLogOut()
		fanout.SetConsoleSink(w, false)
		defer restoreConsoleSink(fanout)
	}

	query.Subscribe(func(st fetch.State) {
		surface.SetState(st)
		if st.Phase == fetch.PhaseReady && st.Changed {
			logCapability(st.Snapshot)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		query.Load(gctx)
		if cfg.Source.Poll != "" {
			if err := query.StartPolling(gctx, cfg.Source.Poll); err != nil {
				return err
			}
			debugf("polling %s", cfg.Source.Poll)
		}
		<-gctx.Done()
		query.Stop()
		return nil
	})
	g.Go(func() error {
		select {
		case <-surface.Done():
			return errQuit
		case <-gctx.Done():
			return nil
		}
	})
	err = g.Wait()
	surface.Stop()
	if err != nil && !errors.Is(err, errQuit) {
		return exitError(ExitInvalidArgs, "statusdash: %v", err)
	}
	return nil
}

func newClient(src config.SourceConfig) (*fetch.Client, error) {
	return fetch.NewClient(fetch.Options{
		URL:       src.URL,
		Timeout:   src.Timeout(),
		UserAgent: src.UserAgent,
	})
}

// openJournal returns nil when the journal is disabled; a nil journal
// ignores every call.
func openJournal(jc config.JournalConfig) (*journal.Journal, error) {
	if !jc.Enabled {
		return nil, nil
	}
	return journal.Open(jc.Path)
}

// selectSurfaceMode falls back to the plain renderer when the dashboard has
// no terminal to draw on.
func selectSurfaceMode(mode string, tty bool) string {
	if mode == "tview" && !tty {
		return "plain"
	}
	return mode
}

// Purpose: Record each finished fetch in metrics, journal and the log file.
// Key aspects: Runs on the fetching goroutine before subscribers are told.
// Upstream: fetch.Query via WithObserver.
// Downstream: ui.Metrics, journal.Record, logFanout.WriteFileOnlyLine.
func fetchObserver(jr *journal.Journal, metrics *ui.Metrics) func(fetch.Outcome) {
	return func(o fetch.Outcome) {
		metrics.ObserveFetch(o.Elapsed, o.Err != nil)

		entry := journal.Entry{
			RequestID: o.RequestID,
			FetchedAt: o.FetchedAt,
			Elapsed:   o.Elapsed,
			Bytes:     o.Bytes,
			Cash:      math.NaN(),
		}
		if entry.FetchedAt.IsZero() {
			entry.FetchedAt = time.Now().UTC()
		}
		if o.Err != nil {
			entry.Error = o.Err.Error()
			if o.Background {
				log.Printf("Refresh failed (req %s): %v", shortID(o.RequestID), o.Err)
			} else {
				log.Printf("Fetch failed (req %s): %v", shortID(o.RequestID), o.Err)
			}
		} else if o.Snapshot != nil {
			entry.Day = o.Snapshot.Day
			entry.Cash = o.Snapshot.Cash
			entry.Hash = o.Snapshot.Hash
		}
		if err := jr.Record(entry); err != nil {
			log.Printf("Journal: record failed: %v", err)
		}
		currentLogOut().WriteFileOnlyLine(fetchDetailLine(entry, o.Background), entry.FetchedAt)
		debugf("fetch req=%s elapsed=%s bytes=%d background=%t", o.RequestID, o.Elapsed.Round(time.Millisecond), o.Bytes, o.Background)
	}
}

func fetchDetailLine(e journal.Entry, background bool) string {
	kind := "load"
	if background {
		kind = "refresh"
	}
	if !e.OK() {
		return fmt.Sprintf("fetch %s req=%s elapsed=%s error=%q", kind, e.RequestID, e.Elapsed.Round(time.Millisecond), e.Error)
	}
	return fmt.Sprintf("fetch %s req=%s elapsed=%s day=%d bytes=%d hash=%016x", kind, e.RequestID, e.Elapsed.Round(time.Millisecond), e.Day, e.Bytes, e.Hash)
}

// logCapability reports series the snapshot lacks or carries beyond the
// known schema.
func logCapability(s *status.Snapshot) {
	capability := status.Check(s)
	if capability.OK() {
		return
	}
	for _, name := range capability.Missing {
		log.Printf("Schema: series %s missing from snapshot", name)
	}
	for _, u := range capability.Unexpected {
		if u.Suggestion != "" {
			log.Printf("Schema: unexpected series %q ignored (did you mean %s?)", u.Field, u.Suggestion)
			continue
		}
		log.Printf("Schema: unexpected series %q ignored", u.Field)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func currentLogOut() *logFanout {
	logOutMu.Lock()
	defer logOutMu.Unlock()
	return logOut
}

func restoreConsoleSink(fanout *logFanout) {
	var console io.Writer = os.Stderr
	if quiet {
		console = nil
	}
	fanout.SetConsoleSink(console, true)
}

// Purpose: Detect whether stdout is a TTY.
// Key aspects: Uses term.IsTerminal on stdout fd.
// Upstream: runDashboard surface selection.
// Downstream: term.IsTerminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
