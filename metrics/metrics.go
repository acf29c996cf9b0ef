// Package metrics provides Prometheus metrics for the LGD dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Dataset metrics
	DatasetLoads        *prometheus.CounterVec
	DatasetLoadDuration *prometheus.HistogramVec
	DatasetRows         *prometheus.GaugeVec
	CacheLookups        *prometheus.CounterVec

	// Query metrics
	Searches        *prometheus.CounterVec
	Conversions     *prometheus.CounterVec
	SectionFailures *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// Config holds metrics configuration.
type Config struct {
	Enabled   bool
	Namespace string
}

// New registers the dashboard metrics with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the global registry.
func New(reg *prometheus.Registry, namespace string) *Metrics {
	if namespace == "" {
		namespace = "lgd_dashboard"
	}
	f := promauto.With(reg)

	return &Metrics{
		DatasetLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_loads_total",
				Help:      "Dataset load attempts by tier and outcome",
			},
			[]string{"tier", "status"},
		),
		DatasetLoadDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dataset_load_duration_seconds",
				Help:      "Time to fetch and parse a tier CSV",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
			},
			[]string{"tier"},
		),
		DatasetRows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_rows",
				Help:      "Rows in the cached dataset of each tier",
			},
			[]string{"tier"},
		),
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_cache_lookups_total",
				Help:      "Dataset cache lookups by tier and result",
			},
			[]string{"tier", "result"},
		),
		Searches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Tier searches by outcome (unfiltered, matched, not_found)",
			},
			[]string{"tier", "outcome"},
		),
		Conversions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "area_conversions_total",
				Help:      "Area conversions by result",
			},
			[]string{"result"},
		),
		SectionFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dashboard_section_failures_total",
				Help:      "Dashboard sections that could not be computed",
			},
			[]string{"section"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		gatherer: reg,
	}
}

// ObserveLoad records one dataset load.
func (m *Metrics) ObserveLoad(tier string, err error, d time.Duration, rows int) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DatasetLoads.WithLabelValues(tier, status).Inc()
	m.DatasetLoadDuration.WithLabelValues(tier).Observe(d.Seconds())
	if err == nil {
		m.DatasetRows.WithLabelValues(tier).Set(float64(rows))
	}
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(tier, result).Inc()
}

// Search records a tier search outcome.
func (m *Metrics) Search(tier, outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(tier, outcome).Inc()
}

// Conversion records an area conversion.
func (m *Metrics) Conversion(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "invalid"
	}
	m.Conversions.WithLabelValues(result).Inc()
}

// SectionFailed records a dashboard section that rendered as an error.
func (m *Metrics) SectionFailed(section string) {
	if m == nil {
		return
	}
	m.SectionFailures.WithLabelValues(section).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
