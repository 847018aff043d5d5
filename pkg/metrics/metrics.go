// Package metrics exposes chart rendering counters and latencies in the
// Prometheus exposition format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry, so several
// instances (tests, plugin and server mode) never collide.
type Metrics struct {
	registry *prometheus.Registry

	rendered *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphgen_charts_rendered_total",
			Help: "Charts rendered successfully, by chart type.",
		}, []string{"type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphgen_chart_failures_total",
			Help: "Charts dropped from a response, by chart type and reason.",
		}, []string{"type", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphgen_render_duration_seconds",
			Help:    "Time spent rendering one chart.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphgen_requests_total",
			Help: "HTTP requests handled, by endpoint and status code.",
		}, []string{"endpoint", "code"}),
	}
	m.registry.MustRegister(m.rendered, m.failures, m.duration, m.requests)
	return m
}

// ChartRendered records a successful render
func (m *Metrics) ChartRendered(chartType string, elapsed time.Duration) {
	m.rendered.WithLabelValues(chartType).Inc()
	m.duration.WithLabelValues(chartType).Observe(elapsed.Seconds())
}

// ChartFailed records a dropped chart
func (m *Metrics) ChartFailed(chartType, reason string) {
	m.failures.WithLabelValues(chartType, reason).Inc()
}

// RequestHandled records the status code returned by an endpoint
func (m *Metrics) RequestHandled(endpoint string, code int) {
	m.requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// Registry returns the underlying registry, for tests and custom exporters
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
