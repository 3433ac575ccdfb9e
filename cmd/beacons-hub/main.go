package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"beacons-hub/api/server"
	"beacons-hub/bootstrap"
	"beacons-hub/config"
	"beacons-hub/logger"
	"beacons-hub/sequence"
	"beacons-hub/tasks/orchestrator"
	"beacons-hub/tasks/runners"
	"beacons-hub/tasks/workers"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	lg := logger.New(cfg.LogLevel, nil)

	lg.Info("Starting beacons hub", map[string]any{
		"version":          cfg.Version,
		"port":             cfg.ServerPort,
		"log_level":        cfg.LogLevel,
		"backend":          cfg.Backend,
		"embedded_workers": cfg.EmbeddedWorkers,
	})

	if err := run(cfg, lg); err != nil {
		lg.Error("Beacons hub stopped with error", map[string]any{"error": err.Error()})
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

	seqStore := sequence.NewStore(backends.Cache)
	registry := bootstrap.NewHandlerRegistry(cfg, clients, seqStore, m, lg)
	orch := orchestrator.NewOrchestrator(
		backends.TaskStore,
		runners.NewAsynchronousRunner(backends.Queue, registry),
		lg,
	)

	if cfg.EmbeddedWorkers {
		pool := workers.NewWorkerPool(
			cfg.WorkerCount,
			backends.Queue,
			bootstrap.NewWorkflow(registry, backends.TaskStore, lg),
			lg,
			workers.WithMaxInFlight(cfg.MaxInFlight),
		)
		pool.SetShutdownTimeout(cfg.ShutdownTimeout)
		pool.Start(ctx)
		// runs before backends close
		defer pool.Stop()
	}

	srv := server.New(&server.Dependencies{
		Orchestrator: orch,
		Registry:     registry,
		Store:        seqStore,
		Jobs:         clients.Jobs,
		Summaries:    clients.Summaries,
		Queue:        backends.Queue,
		Metrics:      m,
		Gatherer:     promRegistry,
		Config:       cfg,
		Logger:       lg,
	})
	return srv.Start(ctx)
}
