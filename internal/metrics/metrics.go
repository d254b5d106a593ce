package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "batscope"

// Collectors holds the Prometheus collectors for renders and classifications
type Collectors struct {
	renders         *prometheus.CounterVec // Renders by final status
	renderDuration  prometheus.Histogram   // Wall time of completed renders
	classifications *prometheus.CounterVec // Classification attempts by outcome
}

// New creates the collectors and registers them on reg. A nil reg uses a
// fresh registry, which keeps repeated construction in tests safe.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Collectors{
		renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renders_total",
				Help:      "Spectrogram renders by status (ok, error, superseded)",
			},
			[]string{"status"},
		),
		renderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "Time spent rendering a spectrogram",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
		),
		classifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifications_total",
				Help:      "Auto-id classification attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveRender records one finished render. Only successful renders feed
// the duration histogram.
func (c *Collectors) ObserveRender(status string, d time.Duration) {
	c.renders.WithLabelValues(status).Inc()
	if status == "ok" {
		c.renderDuration.Observe(d.Seconds())
	}
}

// RecordClassification counts one classification attempt
func (c *Collectors) RecordClassification(outcome string) {
	c.classifications.WithLabelValues(outcome).Inc()
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
