// Package metrics provides Prometheus metrics for openwork.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "openwork"

type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimitHitsTotal   prometheus.Counter

	// Queries
	QueriesTotal         *prometheus.CounterVec
	QueryDuration        *prometheus.HistogramVec
	QueryResultsTotal    prometheus.Counter
	TemporalLookupsTotal prometheus.Counter

	// Journals
	JournalWritesTotal *prometheus.CounterVec

	// Cache
	CacheRequestsTotal *prometheus.CounterVec
}

// New registers all metrics on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.HTTPRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	m.RateLimitHitsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)

	m.QueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_package_queries_total",
			Help:      "Total number of work package queries by timestamp mode",
		},
		[]string{"mode", "status"},
	)

	m.QueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "work_package_query_duration_seconds",
			Help:      "Duration of work package queries in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)

	m.QueryResultsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_package_query_results_total",
			Help:      "Total number of work packages returned by queries",
		},
	)

	m.TemporalLookupsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "temporal_lookups_total",
			Help:      "Total number of point-in-time reconstructions of work packages",
		},
	)

	m.JournalWritesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_writes_total",
			Help:      "Total number of journals written",
		},
		[]string{"operation"},
	)

	m.CacheRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Total number of cache lookups",
		},
		[]string{"cache", "result"},
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordQuery records a work package query. Historic and mixed queries
// count one temporal lookup per past timestamp.
func (m *Metrics) RecordQuery(mode string, historicTimestamps int, results int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.QueriesTotal.WithLabelValues(mode, status).Inc()
	m.QueryDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err == nil {
		m.QueryResultsTotal.Add(float64(results))
	}
	if historicTimestamps > 0 {
		m.TemporalLookupsTotal.Add(float64(historicTimestamps))
	}
}

func (m *Metrics) RecordTemporalLookup() {
	m.TemporalLookupsTotal.Inc()
}

// RecordJournalWrite counts a journal appended by operation ("create", "update").
func (m *Metrics) RecordJournalWrite(operation string) {
	m.JournalWritesTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequestsTotal.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitsTotal.Inc()
}
