// Package bootstrap wires the components shared by the hub and worker
// processes.
package bootstrap

import (
	"errors"
	"fmt"

	"beacons-hub/cache"
	"beacons-hub/config"
	"beacons-hub/fanout"
	"beacons-hub/jobdispatcher"
	"beacons-hub/logger"
	"beacons-hub/metrics"
	"beacons-hub/providers"
	"beacons-hub/sequence"
	"beacons-hub/summary"
	"beacons-hub/tasks"
	"beacons-hub/tasks/handlers"
	"beacons-hub/tasks/orchestrator/execution"
	"beacons-hub/tasks/queue"
	handlerRegistry "beacons-hub/tasks/registry"
	"beacons-hub/tasks/runners"
	"beacons-hub/tasks/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const memoryQueueCapacity = 1024

// Backends are the storage and queueing components selected by config.
type Backends struct {
	Cache     cache.Cache
	TaskStore store.TaskStore
	Queue     queue.TaskQueue

	closers []func() error
}

// OpenBackends connects the configured backend. Redis backends share one
// connection pool for the cache and task store; the queue gets its own since
// workers block on it.
func OpenBackends(cfg *config.Config) (*Backends, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		q, err := queue.NewRedisTaskQueue(cfg.RedisURL, cfg.QueueName)
		if err != nil {
			_ = rc.Close()
			return nil, err
		}
		return &Backends{
			Cache:     rc,
			TaskStore: store.NewRedisTaskStore(rc.Client(), cfg.CacheTTL),
			Queue:     q,
			closers:   []func() error{q.Close, rc.Close},
		}, nil

	default:
		q := queue.NewMemoryTaskQueue(memoryQueueCapacity)
		return &Backends{
			Cache:     cache.NewMemoryCache(cfg.CacheTTL),
			TaskStore: store.NewMemoryTaskStore(),
			Queue:     q,
			closers:   []func() error{q.Close},
		}, nil
	}
}

// Close releases every backend connection.
func (b *Backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewMetrics returns the hub collectors together with the registry that
// serves them, including the Go runtime and process collectors.
func NewMetrics() (*metrics.Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg), reg
}

// Clients are the outbound HTTP components.
type Clients struct {
	Jobs      *jobdispatcher.Client
	Summaries *summary.Aggregator
	UniProt   *summary.UniProtClient
}

// NewClients builds the dispatcher, provider and UniProt clients.
func NewClients(cfg *config.Config, m *metrics.Metrics, lg *logger.Logger) (*Clients, error) {
	registry, err := providers.Load(cfg.RegistryFile)
	if err != nil {
		return nil, err
	}
	lg.Info("Loaded provider registry", map[string]any{
		"providers": registry.ProviderIDs(),
	})

	fc := fanout.New(lg,
		fanout.WithTimeout(cfg.RequestTimeout),
		fanout.WithConcurrency(cfg.FanoutConcurrency),
		fanout.WithMetrics(m),
	)

	return &Clients{
		Jobs: jobdispatcher.NewClient(lg,
			jobdispatcher.WithBaseURL(cfg.DispatcherURL),
			jobdispatcher.WithEmail(cfg.DispatcherEmail),
			jobdispatcher.WithTimeout(cfg.RequestTimeout),
			jobdispatcher.WithRateLimit(cfg.DispatcherRateLimit),
		),
		Summaries: summary.NewAggregator(registry, fc, lg),
		UniProt:   summary.NewUniProtClient(cfg.UniProtAPIURL, fc, lg),
	}, nil
}

// NewHandlerRegistry registers the task handlers.
func NewHandlerRegistry(
	cfg *config.Config,
	clients *Clients,
	seqStore *sequence.Store,
	m *metrics.Metrics,
	lg *logger.Logger,
) *handlerRegistry.HandlerRegistry {
	registry := handlerRegistry.NewRegistry()
	registry.Register(tasks.TypeSequenceSearch, handlers.NewSequenceSearchHandler(
		clients.Jobs,
		sequence.NewEnricher(clients.Summaries, clients.UniProt, cfg.MaxBatchSize, lg),
		seqStore,
		handlers.SearchSettings{
			MaxWait:           cfg.MaxWaitTime,
			SleepTime:         cfg.SleepTime,
			IdentityThreshold: cfg.IdentityThreshold,
		},
		m,
		lg,
	))

	lg.Info("Registered task handlers", map[string]any{
		"count": len(registry.GetRegisteredTypes()),
		"types": registry.GetRegisteredTypes(),
	})

	return registry
}

// NewWorkflow builds the execution workflow workers run tasks through.
func NewWorkflow(
	registry *handlerRegistry.HandlerRegistry,
	taskStore store.TaskStore,
	lg *logger.Logger,
) execution.ExecutionWorkflow {
	return execution.NewDefaultExecutionWorkflow(
		runners.NewSynchronousRunner(registry),
		execution.NewDefaultStateManager(taskStore, lg),
		execution.NewDefaultResultHandler(),
		lg,
	)
}

// RequireSharedBackend rejects configurations a standalone worker cannot
// serve, since memory backends are private to one process.
func RequireSharedBackend(cfg *config.Config) error {
	if cfg.Backend != config.BackendRedis {
		return fmt.Errorf("standalone workers need BACKEND=%s, got %q", config.BackendRedis, cfg.Backend)
	}
	return nil
}
