package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/me/asilo/internal/config"
	"github.com/me/asilo/internal/logging"
	"github.com/me/asilo/internal/patients"
	"github.com/me/asilo/internal/server"
	"github.com/me/asilo/pkg/directory"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		addr       string
		logLevel   string
		logFormat  string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:          "asilo-server",
		Short:        "Serve the Asilo dashboard and API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Server.Addr = addr
			}
			if flags.Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if flags.Changed("log-format") {
				cfg.Logging.Format = logFormat
			}
			if debug {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			return run(cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format))
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&configFile, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&addr, "addr", defaults.Server.Addr, "Listen address (or ASILO_ADDR env)")
	cmd.Flags().StringVar(&logLevel, "log-level", defaults.Logging.Level, "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", defaults.Logging.Format, "Log format (text, json)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Shorthand for --log-level=debug")

	return cmd
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	viewOpts := []patients.Option{
		patients.WithLogger(logger),
		patients.WithMetrics(patients.NewMetrics(metricsReg)),
	}

	fetcher := directory.NewClient(cfg.DirectoryClient(), logger)
	registry := patients.NewRegistry(ctx, fetcher, cfg.Registry(), viewOpts...)
	defer registry.Close()

	srv := server.New(cfg, fetcher, logger,
		server.WithRegistry(registry),
		server.WithMetricsRegistry(metricsReg),
		server.WithViewOptions(viewOpts...),
	)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", "addr", cfg.Server.Addr, "directory", fetcher.Endpoint())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return registry.Run(gctx, cfg.Views.SweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		// Unmount views first so in-flight retrievals stop before connections drain.
		registry.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
