package main

import (
	"github.com/spf13/cobra"

	"statusdash/board"
	"statusdash/fetch"
)

var (
	printDay    int
	printOffset int
)

// printCmd fetches once and prints the table.
var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Fetch once and print the metrics table",
	Long: `Fetch the status document once and print the metrics table for the
latest day, or for --day. Exits with code 3 when the fetch fails.`,
	Args: cobra.NoArgs,
	RunE: runPrint,
}

func init() {
	printCmd.Flags().IntVar(&printDay, "day", 0, "day to show (1-based, default latest)")
	printCmd.Flags().IntVar(&printOffset, "offset", -1, "trend window offset (default trend.default_offset)")
}

func runPrint(cmd *cobra.Command, _ []string) error {
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

	query := fetch.NewQuery(client, fetch.WithObserver(fetchObserver(jr, nil)))
	query.Load(cmd.Context())
	st := query.State()
	if st.Phase != fetch.PhaseReady {
		return exitError(ExitFetchFailure, "An error has occurred: %s", st.Message())
	}
	logCapability(st.Snapshot)

	v := board.NewView(mode, cfg.Trend.DefaultOffset)
	v.Load(st.Snapshot)
	if printDay != 0 {
		last := v.Navigator().Max()
		if printDay < 1 || printDay > last {
			return exitError(ExitInvalidArgs, "statusdash: --day %d out of range (1..%d)", printDay, last)
		}
		for v.Day() > printDay && v.SelectPrevious() {
		}
	}
	if printOffset >= 0 {
		v.SetOffset(printOffset)
	}
	if err := renderPlain(cmd.OutOrStdout(), v, cfg.UI.SparklineWidth); err != nil {
		return exitError(ExitInvalidArgs, "statusdash: %v", err)
	}
	return nil
}
