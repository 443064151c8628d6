// Package metrics exposes Prometheus collectors for dataset loads, request
// handling and caching. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wastedash/internal/core"
)

const namespace = "wastedash"

// Metrics groups every collector registered by the service.
type Metrics struct {
	registry *prometheus.Registry

	loads           *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	rejectedRows    *prometheus.GaugeVec
	observations    prometheus.Gauge
	snapshotVersion prometheus.Gauge
	lastLoad        prometheus.Gauge

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	suspicious      prometheus.Counter

	cacheLookups *prometheus.CounterVec
	messages     *prometheus.CounterVec
}

// New creates the collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time spent loading and aggregating the dataset.",
			Buckets:   prometheus.DefBuckets,
		}),
		rejectedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rejected_rows",
			Help:      "Rows dropped by the normalizer in the current snapshot, by reason.",
		}, []string{"reason"}),
		observations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_observations",
			Help:      "Observations in the current snapshot.",
		}),
		snapshotVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_snapshot_version",
			Help:      "Version of the current snapshot.",
		}),
		lastLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful load.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_suspicious_requests_total",
			Help:      "Requests matching known probe patterns.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_cache_lookups_total",
			Help:      "View cache lookups by result.",
		}, []string{"result"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "amqp_messages_total",
			Help:      "Reload messages by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.loads, m.loadDuration, m.rejectedRows, m.observations, m.snapshotVersion, m.lastLoad,
		m.requests, m.requestDuration, m.rateLimited, m.suspicious, m.cacheLookups, m.messages,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLoad records a load attempt.
func (m *Metrics) ObserveLoad(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.loads.WithLabelValues(result).Inc()
	m.loadDuration.Observe(d.Seconds())
}

// ObserveSnapshot records a freshly installed snapshot.
func (m *Metrics) ObserveSnapshot(version uint64, observations int, rej core.Rejections, at time.Time) {
	if m == nil {
		return
	}
	m.snapshotVersion.Set(float64(version))
	m.observations.Set(float64(observations))
	m.lastLoad.Set(float64(at.Unix()))
	m.rejectedRows.WithLabelValues("missing_field").Set(float64(rej.MissingField))
	m.rejectedRows.WithLabelValues("invalid_year").Set(float64(rej.InvalidYear))
	m.rejectedRows.WithLabelValues("invalid_month").Set(float64(rej.InvalidMonth))
	m.rejectedRows.WithLabelValues("invalid_weight").Set(float64(rej.InvalidWeight))
}

// ObserveRequest records a served HTTP request.
func (m *Metrics) ObserveRequest(method, path string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// Suspicious counts a request flagged by the probe detector.
func (m *Metrics) Suspicious() {
	if m == nil {
		return
	}
	m.suspicious.Inc()
}

// CacheLookup counts a view cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// Message counts a consumed reload message by result.
func (m *Metrics) Message(result string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(result).Inc()
}
