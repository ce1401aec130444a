package backend

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks outbound request behaviour against the grocery backend.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestFailures *prometheus.CounterVec
}

// NewMetrics creates the metric set on its own registry so an embedding
// program can expose or scrape it without touching the default registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qloo_backend_request_duration_seconds",
				Help:    "Duration of requests to the grocery backend",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
		requestFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qloo_backend_request_failures_total",
				Help: "Failed requests to the grocery backend",
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(m.requestDuration, m.requestFailures)
	return m
}

// Registry returns the registry holding the client metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeRequest(endpoint, method string, seconds float64) {
	m.requestDuration.WithLabelValues(endpoint, method).Observe(seconds)
}

func (m *Metrics) countFailure(endpoint string) {
	m.requestFailures.WithLabelValues(endpoint).Inc()
}
