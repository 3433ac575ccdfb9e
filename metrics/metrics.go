// Package metrics holds the Prometheus collectors of the hub.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search submission outcomes.
const (
	SearchNew       = "new"
	SearchDuplicate = "duplicate"
	SearchRejected  = "rejected"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	searches         *prometheus.CounterVec
	resultPolls      *prometheus.CounterVec
	orchestratorExit *prometheus.CounterVec
	fanoutDuration   *prometheus.HistogramVec
	queueDepth       prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacons_sequence_searches_total",
			Help: "Sequence search submissions by outcome.",
		}, []string{"outcome"}),
		resultPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacons_sequence_result_polls_total",
			Help: "Sequence result polls by reported state.",
		}, []string{"state"}),
		orchestratorExit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacons_orchestrator_exits_total",
			Help: "Sequence search orchestrator terminations by outcome.",
		}, []string{"outcome"}),
		fanoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beacons_fanout_request_duration_ms",
			Help:    "Latency of individual fan-out requests in ms.",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		}, []string{"outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "beacons_task_queue_depth",
			Help: "Tasks waiting in the queue when last sampled.",
		}),
	}

	reg.MustRegister(m.searches, m.resultPolls, m.orchestratorExit, m.fanoutDuration, m.queueDepth)
	return m
}

func (m *Metrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveResultPoll(state string) {
	if m == nil {
		return
	}
	m.resultPolls.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveOrchestratorExit(outcome string) {
	if m == nil {
		return
	}
	m.orchestratorExit.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFanoutRequest(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.fanoutDuration.WithLabelValues(outcome).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) SetQueueDepth(depth int64) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
