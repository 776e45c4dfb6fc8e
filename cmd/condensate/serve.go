package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/api"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/config"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/dashboard"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/metrics"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	Long: `Serves the HTML dashboard, the JSON API, the CSV export, /metrics and the
/ws/stream summary feed. The config file is watched and source changes are
applied without a restart.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := dashboard.New(cfg, metrics.New())

	if cfgFile != "" {
		go func() {
			err := config.Watch(ctx, cfgFile, svc.Reconfigure)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	// Summary feed for connected dashboards.
	hub := ws.New(svc, cfg.Server.StreamInterval)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws/stream", hub)
	mux.Handle("/", api.Wrap(api.New(svc), cfg.Server.GzipEnabled()))

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	slog.Info("condensate shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return httpSrv.Shutdown(shutdownCtx)
}
