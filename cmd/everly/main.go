// Command everly runs the diary backend: it assembles the feature modules
// on top of the lifecycle manager and serves their aggregated routes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/everly-app/everly"
	"github.com/everly-app/everly/modules/auth"
	"github.com/everly-app/everly/modules/diary"
	"github.com/everly-app/everly/modules/media"
	"github.com/everly-app/everly/modules/user"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "everly:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("EVERLY_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := everly.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, err := everly.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := everly.OpenResources(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := everly.NewMetrics(registry)

	mgr := everly.NewManager(logger, res,
		everly.WithHealthTimeout(cfg.Health.Timeout),
		everly.WithMetrics(metrics),
	)

	authMod := auth.NewModule()
	for _, mod := range []everly.Module{
		authMod,
		user.NewModule(authMod),
		diary.NewModule(authMod),
		media.NewModule(authMod),
	} {
		if err := mgr.Register(mod); err != nil {
			return fmt.Errorf("register module: %w", err)
		}
	}

	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("start modules: %w", err)
	}

	monitor := everly.NewHealthMonitor(mgr, logger, cfg.Health.PollSchedule)
	if err := monitor.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: mgr.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	monitor.Stop()

	if err := mgr.Stop(shutdownCtx); err != nil {
		var shutdownErr *everly.ShutdownError
		if errors.As(err, &shutdownErr) {
			for _, f := range shutdownErr.Failures {
				logger.Error("module cleanup failed", "module", f.Module, "error", f.Err)
			}
		}
		return err
	}

	logger.Info("everly stopped cleanly")
	return nil
}
