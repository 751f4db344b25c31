// Package client provides the outbound HTTP client used to reach upstreams.
package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"restproxy/internal/metrics"
)

// UpstreamClient sends proxied requests to arbitrary upstream URLs.
//
// The underlying connection pool is shared by all calls. The client has no
// cookie jar, so nothing but pooled connections survives between calls.
type UpstreamClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstreamClient creates an UpstreamClient on a copy of the default transport.
// No client timeout is set; deadlines come from the request context only.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewUpstreamClient(logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &UpstreamClient{
		httpClient: &http.Client{Transport: transport},
		logger:     logger.With("component", "upstream_client"),
		metrics:    m,
	}
}

// Do executes an HTTP request against the upstream and returns the raw response
// as soon as its headers have arrived. The caller is responsible for closing
// the response body.
func (c *UpstreamClient) Do(req *http.Request) (*http.Response, error) {
	c.logger.Debug("upstream request",
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(method).Observe(duration)
			c.metrics.UpstreamFailures.WithLabelValues(method).Inc()
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.UpstreamDuration.WithLabelValues(method).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(method, status).Inc()
	}

	return resp, nil
}
