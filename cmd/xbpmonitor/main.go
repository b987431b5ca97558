// Command xbpmonitor runs the XBP Monitoring process: it loads a probe and
// story configuration, schedules every monitor, serves the control-plane
// HTTP API, and dispatches alerts whenever a monitor run is not OK.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/xbp-monitoring/internal/alert"
	"github.com/dwsmith1983/xbp-monitoring/internal/config"
	"github.com/dwsmith1983/xbp-monitoring/internal/reload"
	"github.com/dwsmith1983/xbp-monitoring/internal/runner"
	"github.com/dwsmith1983/xbp-monitoring/internal/scheduler"
	"github.com/dwsmith1983/xbp-monitoring/internal/server"
	"github.com/dwsmith1983/xbp-monitoring/internal/store"
	"github.com/dwsmith1983/xbp-monitoring/internal/telemetry"
)

var version = "dev"

func main() {
	var configFile string
	var addr string

	root := &cobra.Command{
		Use:     "xbpmonitor",
		Short:   "Synthetic HTTP monitoring: probes, multi-step stories, and alerting",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFile, addr)
		},
	}

	root.Flags().StringVar(&configFile, "file", "xbp.yaml", "path to the probe/story configuration file")
	root.Flags().StringVar(&addr, "addr", ":3000", "control-plane HTTP server address")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configFile, addr string) error {
	logger := slog.Default()
	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, logger)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}

	cfg, err := config.Load(configFile, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st := store.New()
	rnr := runner.New()
	dispatcher := alert.NewDispatcher(logger)
	sched := scheduler.New(st, rnr, dispatcher, providers.Emitter, logger)
	sched.Start(ctx, cfg)

	coord := reload.New(ctx, sched, st, configFile, cfg, logger)

	srv := server.New(addr, st, sched, coord, logger)

	var promServer *telemetry.PrometheusServer
	if providers.PrometheusEnabled {
		promServer = telemetry.NewPrometheusServer()
		go promServer.Start(logger)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		color.Yellow("\nReceived %s, shutting down...", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
		if err := sched.Stop(); err != nil {
			logger.Error("scheduler shutdown", "error", err)
		}
		if promServer != nil {
			if err := promServer.Stop(shutdownCtx); err != nil {
				logger.Error("prometheus server shutdown", "error", err)
			}
		}
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown", "error", err)
		}

		color.Green("xbpmonitor stopped gracefully")
		return nil
	}
}
