package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/edaloom/internal/config"
	"github.com/KaramelBytes/edaloom/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global

	logger      = slog.Default()
	closeLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "edaloom",
	Short: "edaloom: explore tabular datasets from the terminal or the browser",
	Long: `edaloom loads a CSV, TSV or Excel file (or a bundled sample) and runs
exploratory operations on it: previews, summaries, statistics, correlations,
distributions, cleaning and filter queries. Use "serve" for the web UI.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	closeLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.edaloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{Port: 8050, MaxUploadMB: 32, SessionIdleMinutes: 1440, PreviewRows: 5, HistogramBins: 30, LogLevel: "info", LogFormat: "text"}
	}
	cfg = c

	closeLogger()
	l, closeFn, err := logging.New(os.Stderr, logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		SeqURL: cfg.SeqURL,
		Debug:  debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; using default logger\n", err)
		return
	}
	logger, closeLogger = l, closeFn
	slog.SetDefault(logger)
}
