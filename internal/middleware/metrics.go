package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"restproxy/internal/metrics"
)

// MetricsMiddleware returns an Echo middleware that records Prometheus metrics
// for each inbound request. Requests to any of skipPaths (typically the scrape
// endpoint itself) are not recorded.
func MetricsMiddleware(m *metrics.Metrics, skipPaths ...string) echo.MiddlewareFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip[c.Request().URL.Path] {
				return next(c)
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			m.ObserveRequest(c.Request().Method, responseStatus(c, err), c.Request().URL.Path, time.Since(start))
			return err
		}
	}
}

// responseStatus resolves the status the client will see. A returned
// *echo.HTTPError has not been written yet; Echo's error handler does that
// after the middleware chain unwinds.
func responseStatus(c echo.Context, err error) int {
	var he *echo.HTTPError
	if err != nil && errors.As(err, &he) {
		return he.Code
	}
	return c.Response().Status
}
