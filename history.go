package main

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"statusdash/board"
	"statusdash/journal"
)

var historyLimit int

// historyCmd lists recent fetches from the journal.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent fetches from the journal",
	Long:  "Show the most recent fetches recorded in the SQLite journal (journal.enabled must be set).",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of fetches to list")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if !cfg.Journal.Enabled {
		return exitError(ExitInvalidArgs, "statusdash: journal is disabled (set journal.enabled in the config)")
	}
	jr, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return exitError(ExitInvalidArgs, "statusdash: %v", err)
	}
	defer jr.Close()

	entries, err := jr.Recent(historyLimit)
	if err != nil {
		return exitError(ExitInvalidArgs, "statusdash: %v", err)
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No fetches recorded.")
		return nil
	}
	renderHistory(out, entries, time.Now())
	return nil
}

func renderHistory(w io.Writer, entries []journal.Entry, now time.Time) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetAutoFormatHeaders(false)
	tbl.SetAutoWrapText(false)
	tbl.SetHeader([]string{"When", "Request", "Elapsed", "Day", "Cash", "Size", "Result"})
	tbl.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
	})
	for _, e := range entries {
		day, cash, size := board.Placeholder, board.Placeholder, board.Placeholder
		result := colorRed.Sprint(e.Error)
		if e.OK() {
			day = fmt.Sprintf("%d", e.Day)
			cash = board.FormatValue(e.Cash, !math.IsNaN(e.Cash))
			size = humanize.Bytes(uint64(e.Bytes))
			result = "ok"
		}
		tbl.Append([]string{
			humanize.RelTime(e.FetchedAt, now, "ago", "from now"),
			shortID(e.RequestID),
			e.Elapsed.Round(time.Millisecond).String(),
			day,
			cash,
			size,
			result,
		})
	}
	tbl.Render()
}
