// Package metrics holds the gateway's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	StreamDeltasTotal *prometheus.CounterVec

	SynthesisTotal *prometheus.CounterVec

	ErrorsTotal *prometheus.CounterVec
}

// New creates and registers all gateway metrics.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "foun"
	}

	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"endpoint", "provider", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"endpoint", "provider"},
	)

	streamDeltasTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_deltas_total",
			Help:      "Total text deltas relayed from provider streams",
		},
		[]string{"provider"},
	)

	synthesisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_synthesis_total",
			Help:      "Total text-to-speech synthesis calls",
		},
		[]string{"status"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors returned to callers",
		},
		[]string{"endpoint", "error_type"},
	)

	registry.MustRegister(
		requestsTotal,
		requestDuration,
		streamDeltasTotal,
		synthesisTotal,
		errorsTotal,
	)

	return &Metrics{
		registry:          registry,
		RequestsTotal:     requestsTotal,
		RequestDuration:   requestDuration,
		StreamDeltasTotal: streamDeltasTotal,
		SynthesisTotal:    synthesisTotal,
		ErrorsTotal:       errorsTotal,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one completed request.
func (m *Metrics) RecordRequest(endpoint, provider, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(endpoint, provider, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint, provider).Observe(duration.Seconds())
}

// RecordDelta counts one relayed stream delta.
func (m *Metrics) RecordDelta(provider string) {
	m.StreamDeltasTotal.WithLabelValues(provider).Inc()
}

// RecordSynthesis counts one synthesis attempt.
func (m *Metrics) RecordSynthesis(status string) {
	m.SynthesisTotal.WithLabelValues(status).Inc()
}

// RecordError counts one error response.
func (m *Metrics) RecordError(endpoint, errorType string) {
	m.ErrorsTotal.WithLabelValues(endpoint, errorType).Inc()
}
