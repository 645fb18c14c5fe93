package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/go-link-registry/pkg/core/domain"
)

const namespace = "linkreg"

// Metrics holds the collectors of the service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	operations   *prometheus.CounterVec
	durations    *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New registers the service collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "operations_total",
			Help:      "Registry operations by outcome.",
		}, []string{"op", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "operation_duration_seconds",
			Help:      "Registry operation latency including the store round-trip.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.operations,
		m.durations,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOperation records one registry call that started at started and finished with err.
func (m *Metrics) ObserveOperation(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, Outcome(err)).Inc()
	m.durations.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) IncRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the prometheus text exposition.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome maps a registry error onto a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCodeConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidTarget), errors.Is(err, domain.ErrInvalidCode), errors.Is(err, domain.ErrInvalidCounters):
		return "invalid"
	case errors.Is(err, domain.ErrExhaustedCodeSpace):
		return "exhausted"
	default:
		return "error"
	}
}
