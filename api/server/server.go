package server

import (
	"context"
	"net/http"
	"time"

	"beacons-hub/api"
	"beacons-hub/api/middleware"
	"beacons-hub/config"
	"beacons-hub/logger"
	"beacons-hub/metrics"
	"beacons-hub/sequence"
	"beacons-hub/tasks/orchestrator"
	"beacons-hub/tasks/queue"
	handlerRegistry "beacons-hub/tasks/registry"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps http.Server with graceful shutdown capabilities
type Server struct {
	httpServer *http.Server
	config     *config.Config
	logger     *logger.Logger
}

// Dependencies contains everything the routes need.
type Dependencies struct {
	Orchestrator orchestrator.Orchestrator
	Registry     *handlerRegistry.HandlerRegistry
	Store        *sequence.Store
	Jobs         api.JobSubmitter
	Summaries    api.SummaryProvider
	Queue        queue.TaskQueue
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Config       *config.Config
	Logger       *logger.Logger
}

// New creates a new server with all HTTP configuration
func New(deps *Dependencies) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              deps.Config.Address(),
			Handler:           NewRouter(deps),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		config: deps.Config,
		logger: deps.Logger,
	}
}

// NewRouter creates the chi router with all routes and middleware.
func NewRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.LoggingMiddleware(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.ResponseHeaders(deps.Config.Version))
	r.Use(chimw.Compress(5, "application/json"))

	r.Post("/sequence/search", api.NewSequenceSearchHandler(
		deps.Store, deps.Jobs, deps.Orchestrator, deps.Metrics, deps.Logger))
	r.Get("/sequence/result", api.NewSequenceResultHandler(
		deps.Store, deps.Orchestrator, deps.Metrics, deps.Logger))
	r.Get("/uniprot/summary/{qualifier}", api.NewUniProtSummaryHandler(deps.Summaries, deps.Logger))

	r.Get("/health", api.NewHealthHandler(
		deps.Config, deps.Registry, deps.Store, deps.Queue, deps.Metrics, deps.Logger))

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Server starting", map[string]any{
			"address": s.config.Address(),
		})

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed to start", map[string]any{
				"error": err.Error(),
			})
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	s.logger.Info("Shutting down server")
	return s.shutdown()
}

// shutdown gracefully shuts down the server
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})

		return err
	}

	s.logger.Info("Server shutdown complete")
	return nil
}
