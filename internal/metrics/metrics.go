// Package metrics holds the Prometheus metrics of the radix service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
)

// Metrics holds all Prometheus metrics for the service. Each instance owns a
// private registry, so several can coexist in one process.
type Metrics struct {
	Requests        *prometheus.CounterVec   // labels: op, outcome
	RequestDuration *prometheus.HistogramVec // labels: op
	SystemsLoaded   prometheus.Gauge
	TokensLoaded    prometheus.Gauge

	registry *prometheus.Registry
}

// New registers and returns all metrics.
func New() *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radix_requests_total",
			Help: "Total conversion requests by operation and outcome",
		}, []string{"op", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "radix_request_duration_seconds",
			Help:    "Conversion request latency",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"op"}),
		SystemsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "radix_systems_loaded",
			Help: "Number of numeral systems in the catalog",
		}),
		TokensLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "radix_tokens_loaded",
			Help: "Number of token codecs in the catalog",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.SystemsLoaded,
		m.TokensLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one finished request.
func (m *Metrics) Observe(op, outcome string, d time.Duration) {
	m.Requests.WithLabelValues(op, outcome).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
