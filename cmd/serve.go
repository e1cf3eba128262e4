package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/edaloom/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port: %d", port)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(server.Config{
			Port:           port,
			SessionSecret:  cfg.SessionSecret,
			MaxUploadMB:    cfg.MaxUploadMB,
			AllowedOrigins: cfg.AllowedOrigins,
			SessionIdle:    time.Duration(cfg.SessionIdleMinutes) * time.Minute,
			PreviewRows:    cfg.PreviewRows,
			HistogramBins:  cfg.HistogramBins,
			Logger:         logger,
		})
		fmt.Fprintf(cmd.OutOrStdout(), "✓ edaloom UI on http://localhost:%d (Ctrl+C to stop)\n", port)
		return srv.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8050, "port to listen on (overrides config)")
}
