package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"statusdash/config"
)

// Global flag values.
var (
	configPath  string
	urlOverride string
	verbose     bool
	quiet       bool
	noColor     bool
)

// Resolved per invocation by the root pre-run hook.
var (
	cfg      *config.Config
	logOut   *logFanout
	logOutMu sync.Mutex
)

// rootCmd is the base command for statusdash. Without a subcommand it runs
// the dashboard.
var rootCmd = &cobra.Command{
	Use:   "statusdash",
	Short: "Watch a factory simulation's daily status",
	Long: `Statusdash fetches the simulation status document, derives the daily
metrics and shows them as a navigable table with trend sparklines. On a
terminal it opens an interactive dashboard; otherwise it prints the table
every time a new snapshot arrives.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setupCommand,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		closeLogging()
	},
	RunE: runDashboard,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file or directory (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&urlOverride, "url", "", "status endpoint URL (overrides config and $"+config.EnvURL+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential console output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// Purpose: Resolve config and install the log fan-out before any command runs.
// Key aspects: Config errors map to ExitInvalidArgs; file logging failures
// only warn.
// Upstream: cobra PersistentPreRunE for every subcommand.
// Downstream: config.Resolve, setupLogging, log.SetOutput.
func setupCommand(cmd *cobra.Command, _ []string) error {
	if cmd == versionCmd {
		return nil
	}
	if quiet && verbose {
		return exitError(ExitInvalidArgs, "statusdash: --quiet and --verbose are mutually exclusive")
	}
	resolved, err := config.Resolve(configPath)
	if err != nil {
		return exitError(ExitInvalidArgs, "statusdash: %v", err)
	}
	if u := strings.TrimSpace(urlOverride); u != "" {
		resolved.Source.URL = u
	}
	cfg = resolved

	if noColor || !cfg.UI.Color {
		color.NoColor = true
	}
	verboseLogging.Store(verbose)

	var console io.Writer = os.Stderr
	if quiet {
		console = nil
	}
	fanout, err := setupLogging(cfg.Logging, console)
	logOutMu.Lock()
	logOut = fanout
	logOutMu.Unlock()
	log.SetFlags(0)
	log.SetOutput(fanout)
	if err != nil {
		log.Printf("Logging: file sink disabled: %v", err)
	}
	if verbose {
		cfg.Print(log.Writer())
	}
	if path := fanout.FilePath(); path != "" {
		debugf("Logging: writing to %s", path)
	}
	return nil
}

// closeLogging flushes and detaches the fan-out; safe to call more than once.
func closeLogging() {
	logOutMu.Lock()
	fanout := logOut
	logOut = nil
	logOutMu.Unlock()
	if fanout == nil {
		return
	}
	log.SetOutput(os.Stderr)
	if err := fanout.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Logging: close failed: %v\n", err)
	}
}
