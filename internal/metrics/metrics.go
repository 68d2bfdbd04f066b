// Package metrics exposes Prometheus instrumentation for the generation
// pipelines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors the orchestrators and worker report into.
type Metrics struct {
	registry *prometheus.Registry

	GenerationsTotal  *prometheus.CounterVec
	TransferFailures  prometheus.Counter
	ProviderLatency   *prometheus.HistogramVec
	VideoPollsTotal   *prometheus.CounterVec
	MediaBytesWritten prometheus.Counter
}

// New constructs a Metrics bundle backed by its own registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.GenerationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dreamframe_generations_total",
		Help: "Generation requests by kind and outcome.",
	}, []string{"kind", "outcome"})

	m.TransferFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dreamframe_media_transfer_failures_total",
		Help: "Per-item media download/upload failures.",
	})

	m.ProviderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dreamframe_provider_request_seconds",
		Help:    "Latency of external generation API calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"provider", "op"})

	m.VideoPollsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dreamframe_video_polls_total",
		Help: "Provider status queries by result.",
	}, []string{"result"})

	m.MediaBytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dreamframe_media_bytes_written_total",
		Help: "Bytes written into owned storage.",
	})

	m.registry.MustRegister(
		m.GenerationsTotal,
		m.TransferFailures,
		m.ProviderLatency,
		m.VideoPollsTotal,
		m.MediaBytesWritten,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
