// Package telemetry exposes the runtime's prometheus collectors
//
// All methods are nil-safe so the runtime can be assembled without
// metrics in tests and embedded uses.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Task result labels
const (
	TaskOK    = "ok"
	TaskError = "error"
	TaskPanic = "panic"
)

// Metrics holds the collectors tracking pipeline and task activity
type Metrics struct {
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
	tasks    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the runtime collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marmot_requests_total",
			Help: "Requests handled, by route and pipeline outcome",
		}, []string{"method", "route", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marmot_retries_total",
			Help: "Pipeline re-runs requested by feature error handlers",
		}, []string{"route"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marmot_async_tasks_total",
			Help: "Async task completions, by result",
		}, []string{"route", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marmot_pipeline_seconds",
			Help:    "Pipeline wall time, including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.requests, m.retries, m.tasks, m.duration)
	return m
}

// ObserveRequest records one settled request
func (m *Metrics) ObserveRequest(
	method, route, outcome string, elapsed time.Duration,
) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, outcome).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// CountRetry records one pipeline re-run
func (m *Metrics) CountRetry(route string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(route).Inc()
}

// CountTask records one async task completion
func (m *Metrics) CountTask(route, result string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(route, result).Inc()
}
