// Package metrics provides Prometheus metrics for the proxy.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"restproxy/internal/model"
)

// Default histogram buckets for request latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Relay mode label values.
const (
	ModeStream = "stream"
	ModeBuffer = "buffer"
)

// Metrics holds all Prometheus metric collectors for the proxy.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  *prometheus.HistogramVec
	UpstreamResponses *prometheus.CounterVec
	UpstreamFailures  *prometheus.CounterVec

	RelayedBytes *prometheus.CounterVec
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restproxy_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "restproxy_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "restproxy_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "restproxy_upstream_request_duration_seconds",
			Help:    "Time until upstream response headers arrive, in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method"}),

		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restproxy_upstream_responses_total",
			Help: "Total upstream responses by method and status code.",
		}, []string{"method", "status_code"}),

		UpstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restproxy_upstream_failures_total",
			Help: "Upstream calls that failed at the transport layer.",
		}, []string{"method"}),

		RelayedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restproxy_relayed_bytes_total",
			Help: "Response body bytes written back to callers, by relay mode.",
		}, []string{"mode"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.UpstreamFailures,
		m.RelayedBytes,
	)

	return m
}

// ObserveRequest records one inbound request under bounded labels.
func (m *Metrics) ObserveRequest(method string, status int, path string, d time.Duration) {
	labels := []string{NormalizeMethod(method), strconv.Itoa(status), NormalizePath(path)}
	m.RequestsTotal.WithLabelValues(labels...).Inc()
	m.RequestDuration.WithLabelValues(labels...).Observe(d.Seconds())
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Methods the proxy cannot dispatch are mapped to "other".
func NormalizeMethod(method string) string {
	if _, ok := model.ParseMethod(method); ok {
		return method
	}
	return "other"
}

// knownPrefixes lists the allowed path label values (bounded cardinality).
// Longer prefixes come first so /proxy/status is not folded into /proxy.
var knownPrefixes = []string{"/proxy/status", "/proxy", "/healthz", "/metrics"}

// NormalizePath returns a bounded path label for Prometheus metrics.
func NormalizePath(path string) string {
	for _, prefix := range knownPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return prefix
		}
	}
	return "other"
}
