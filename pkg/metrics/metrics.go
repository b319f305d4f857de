// Package metrics defines the Prometheus metric collectors used by the
// suggest service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SuggestQueriesTotal  *prometheus.CounterVec
	SuggestLatency       *prometheus.HistogramVec
	SuggestResultsCount  prometheus.Histogram
	InterventionsPicked  *prometheus.CounterVec
	CorpusDocuments      prometheus.Gauge
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	HostBreakerState     prometheus.Gauge
}

// New creates and registers all Prometheus collectors on the default
// registry.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SuggestQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suggest_queries_total",
				Help: "Total suggest queries by result type (match, zero_match, error).",
			},
			[]string{"result_type"},
		),
		SuggestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "suggest_latency_seconds",
				Help:    "Suggest query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"cache_status"},
		),
		SuggestResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "suggest_results_count",
				Help:    "Number of matched documents returned per suggest query.",
				Buckets: []float64{0, 1, 2, 3, 5, 10},
			},
		),
		InterventionsPicked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interventions_picked_total",
				Help: "Interventions chosen for the top-ranked document, by event and intervention id.",
			},
			[]string{"event", "intervention"},
		),
		CorpusDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_documents",
				Help: "Number of documents registered in the scorer corpus.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of result-cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of result-cache misses.",
			},
		),
		HostBreakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "host_breaker_state",
				Help: "Circuit breaker state for the host control client (0=closed, 1=open, 2=half-open).",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SuggestQueriesTotal,
		m.SuggestLatency,
		m.SuggestResultsCount,
		m.InterventionsPicked,
		m.CorpusDocuments,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.HostBreakerState,
	)
	return m
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
