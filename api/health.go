package api

import (
	"context"
	"net/http"
	"time"

	"beacons-hub/config"
	"beacons-hub/logger"
	"beacons-hub/metrics"
	"beacons-hub/tasks/registry"
)

var startTime = time.Now()

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DepthReporter reports the task queue backlog.
type DepthReporter interface {
	Depth(ctx context.Context) (int64, error)
}

type HealthResponse struct {
	Status          string            `json:"status"`
	Timestamp       string            `json:"timestamp"`
	Uptime          string            `json:"uptime"`
	RegisteredTasks []string          `json:"registered_tasks"`
	Version         string            `json:"version,omitempty"`
	Backend         string            `json:"backend"`
	QueueDepth      *int64            `json:"queue_depth,omitempty"`
	Checks          map[string]string `json:"checks"`
}

// NewHealthHandler reports service health. An unreachable cache makes the
// service unhealthy; a queue that cannot report depth only degrades it.
func NewHealthHandler(
	cfg *config.Config,
	reg *registry.HandlerRegistry,
	cache Pinger,
	queue DepthReporter,
	m *metrics.Metrics,
	lg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status:          "healthy",
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
			Uptime:          time.Since(startTime).String(),
			RegisteredTasks: reg.GetRegisteredTypes(),
			Version:         cfg.Version,
			Backend:         cfg.Backend,
			Checks:          map[string]string{},
		}
		code := http.StatusOK

		if err := cache.Ping(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Checks["cache"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			resp.Checks["cache"] = "ok"
		}

		depth, err := queue.Depth(ctx)
		if err != nil {
			if code == http.StatusOK {
				resp.Status = "degraded"
			}
			resp.Checks["queue"] = err.Error()
		} else {
			resp.Checks["queue"] = "ok"
			resp.QueueDepth = &depth
			m.SetQueueDepth(depth)
		}

		respondJSON(w, code, resp, lg)
	}
}
