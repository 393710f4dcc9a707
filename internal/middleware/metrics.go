package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/deppfellow/openwork/internal/errs"
	"github.com/deppfellow/openwork/internal/metrics"
	"github.com/deppfellow/openwork/internal/sqlerr"
	"github.com/labstack/echo/v4"
)

// MetricsMiddleware feeds the HTTP series of the Prometheus registry.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

// Record observes request counts and durations per route template, so
// /work_packages/1 and /work_packages/2 share a series.
func (mm *MetricsMiddleware) Record() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if mm.metrics == nil {
				return next(c)
			}

			start := time.Now()
			mm.metrics.HTTPRequestsInFlight.Inc()
			defer mm.metrics.HTTPRequestsInFlight.Dec()

			err := next(c)

			// Unmatched routes share one label value to bound cardinality.
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			mm.metrics.RecordHTTPRequest(c.Request().Method, route, responseStatus(c, err), time.Since(start))
			return err
		}
	}
}

// responseStatus predicts the status the error handler will write for err.
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}

	var httpErr *errs.HTTPError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.As(err, &echoErr):
		return echoErr.Code
	default:
		if mapped, ok := sqlerr.HandleError(err).(*errs.HTTPError); ok {
			return mapped.Status
		}
		return http.StatusInternalServerError
	}
}
