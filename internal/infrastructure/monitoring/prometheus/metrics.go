// Package prometheus exposes the service's operational metrics on a private
// registry, served by the API's /metrics endpoint.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatbuddy"

// Metrics holds every instrument the service records.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPActiveRequests  prometheus.Gauge

	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	TemplateMatches    prometheus.Histogram

	ImportRowsTotal   *prometheus.CounterVec
	ImportsTotal      *prometheus.CounterVec
	TemplateUsedTotal prometheus.Counter

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// NewMetrics registers all instruments on a fresh registry.  Process and Go
// runtime collectors ride along.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
		prometheus.NewGoCollector(),
	)

	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		HTTPActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "In-flight HTTP requests.",
		}),

		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Reply generations by outcome (generated or fallback).",
		}, []string{"outcome"}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end reply generation latency.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		TemplateMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "template_match_candidates",
			Help:      "Templates returned per match request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),

		ImportRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Bulk import rows by result (processed or failed).",
		}, []string{"result"}),
		ImportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Bulk import sessions by final status.",
		}, []string{"status"}),
		TemplateUsedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_used_total",
			Help:      "Template usage events recorded.",
		}),

		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by cache name.",
		}, []string{"cache"}),
		CacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses by cache name.",
		}, []string{"cache"}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPActiveRequests,
		m.GenerationsTotal,
		m.GenerationDuration,
		m.TemplateMatches,
		m.ImportRowsTotal,
		m.ImportsTotal,
		m.TemplateUsedTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveGeneration records one generation outcome.
func (m *Metrics) ObserveGeneration(usedFallback bool, elapsed time.Duration) {
	outcome := "generated"
	if usedFallback {
		outcome = "fallback"
	}
	m.GenerationsTotal.WithLabelValues(outcome).Inc()
	m.GenerationDuration.Observe(elapsed.Seconds())
}

// ObserveImport records one finished import session.
func (m *Metrics) ObserveImport(status string, processed, failed int) {
	m.ImportsTotal.WithLabelValues(status).Inc()
	m.ImportRowsTotal.WithLabelValues("processed").Add(float64(processed))
	m.ImportRowsTotal.WithLabelValues("failed").Add(float64(failed))
}
