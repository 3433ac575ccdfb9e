package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beacons-hub/bootstrap"
	"beacons-hub/config"
	"beacons-hub/logger"
	"beacons-hub/sequence"
	"beacons-hub/tasks/workers"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Standalone worker process. It shares the Redis queue, task store and cache
// with one or more hub processes running with EMBEDDED_WORKERS=false.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if err := bootstrap.RequireSharedBackend(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	lg := logger.New(cfg.LogLevel, nil).With(map[string]any{"component": "worker"})

	lg.Info("Starting beacons worker", map[string]any{
		"version":      cfg.Version,
		"worker_count": cfg.WorkerCount,
		"queue":        cfg.QueueName,
	})

	if err := run(cfg, lg); err != nil {
		lg.Error("Beacons worker stopped with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg *config.Config, lg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := bootstrap.OpenBackends(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := backends.Close(); err != nil {
			lg.Warn("Failed to close backends", map[string]any{"error": err.Error()})
		}
	}()

	m, promRegistry := bootstrap.NewMetrics()
	clients, err := bootstrap.NewClients(cfg, m, lg)
	if err != nil {
		return err
	}

	registry := bootstrap.NewHandlerRegistry(cfg, clients, sequence.NewStore(backends.Cache), m, lg)
	pool := workers.NewWorkerPool(
		cfg.WorkerCount,
		backends.Queue,
		bootstrap.NewWorkflow(registry, backends.TaskStore, lg),
		lg,
		workers.WithMaxInFlight(cfg.MaxInFlight),
	)
	pool.SetShutdownTimeout(cfg.ShutdownTimeout)
	pool.Start(ctx)

	// metrics only; the worker serves no API
	metricsServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Error("Metrics server failed", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	lg.Info("Shutting down worker")

	pool.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return metricsServer.Shutdown(shutdownCtx)
}
