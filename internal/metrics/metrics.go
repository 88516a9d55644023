package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stream outcome labels for StreamsTotal.
const (
	StatusClosed    = "closed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Metrics holds all Prometheus metrics for the recipe server
type Metrics struct {
	registry *prometheus.Registry

	StreamsActive  prometheus.Gauge
	StreamsTotal   *prometheus.CounterVec
	ChunksTotal    prometheus.Counter
	StreamDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		StreamsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recipe_streams_active",
				Help: "Number of recipe streams currently being served",
			},
		),
		StreamsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_streams_total",
				Help: "Total number of recipe streams by outcome",
			},
			[]string{"status"},
		),
		ChunksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "recipe_stream_chunks_total",
				Help: "Total number of text fragments sent to clients",
			},
		),
		StreamDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recipe_stream_duration_seconds",
				Help:    "Duration of recipe streams in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
		),
	}

	registry.MustRegister(
		m.StreamsActive,
		m.StreamsTotal,
		m.ChunksTotal,
		m.StreamDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// StreamStarted records a new stream and returns the func that ends it.
func (m *Metrics) StreamStarted() func(status string) {
	start := time.Now()
	m.StreamsActive.Inc()
	return func(status string) {
		m.StreamsActive.Dec()
		m.StreamsTotal.WithLabelValues(status).Inc()
		m.StreamDuration.Observe(time.Since(start).Seconds())
	}
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
