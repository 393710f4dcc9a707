package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/openwork/internal/config"
	"github.com/deppfellow/openwork/internal/errs"
	"github.com/deppfellow/openwork/internal/metrics"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/deppfellow/openwork/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func testServer(rateLimit float64) *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Primary:       config.Primary{Env: "test"},
			Server:        config.ServerConfig{RateLimit: rateLimit, CORSAllowedOrigins: []string{"*"}},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger:  &logger,
		Metrics: metrics.New(),
	}
}

func do(e *echo.Echo, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, GetRequestID(c))
	})

	rec := do(e, http.MethodGet, "/", nil)
	generated := rec.Header().Get(RequestIDHeader)
	if generated == "" || rec.Body.String() != generated {
		t.Fatalf("expected a generated request id, got header %q body %q", generated, rec.Body)
	}

	rec = do(e, http.MethodGet, "/", http.Header{RequestIDHeader: {"abc-123"}})
	if rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatal("incoming request id must be reused")
	}
}

func TestGlobalErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"http error", errs.NewConflictError("stale", errs.Code("WORK_PACKAGE_STALE")), http.StatusConflict, "WORK_PACKAGE_STALE"},
		{"not found row", sqlerr.NotFound("work_packages"), http.StatusNotFound, ""},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = NewGlobalMiddlewares(testServer(0)).GlobalErrorHandler
			e.GET("/", func(echo.Context) error { return tt.err })

			rec := do(e, http.MethodGet, "/", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}

			var body errs.HTTPError
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.wantStatus {
				t.Fatalf("body status = %d", body.Status)
			}
			if tt.wantCode != "" && body.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestMetricsRecordUsesRouteTemplate(t *testing.T) {
	s := testServer(0)
	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(s).GlobalErrorHandler
	e.Use(NewMetricsMiddleware(s.Metrics).Record())
	e.GET("/work_packages/:id", func(c echo.Context) error {
		if c.Param("id") == "404" {
			return errs.NewNotFoundError("Work package not found", true, nil)
		}
		return c.NoContent(http.StatusOK)
	})

	do(e, http.MethodGet, "/work_packages/1", nil)
	do(e, http.MethodGet, "/work_packages/2", nil)
	do(e, http.MethodGet, "/work_packages/404", nil)

	ok := testutil.ToFloat64(s.Metrics.HTTPRequestsTotal.WithLabelValues("GET", "/work_packages/:id", "200"))
	missing := testutil.ToFloat64(s.Metrics.HTTPRequestsTotal.WithLabelValues("GET", "/work_packages/:id", "404"))
	if ok != 2 || missing != 1 {
		t.Fatalf("requests_total: 200=%v 404=%v", ok, missing)
	}
	if testutil.ToFloat64(s.Metrics.HTTPRequestsInFlight) != 0 {
		t.Fatal("in-flight gauge must return to zero")
	}
}

func TestRateLimit(t *testing.T) {
	s := testServer(1)
	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(s).GlobalErrorHandler
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(e, http.MethodGet, "/", nil).Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
	if got := testutil.ToFloat64(s.Metrics.RateLimitHitsTotal); got != 1 {
		t.Fatalf("rate limit hits = %v, want 1", got)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	s := testServer(0)
	e := echo.New()
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 10; i++ {
		if code := do(e, http.MethodGet, "/", nil).Code; code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
}

func TestEnhanceContextSetsLogger(t *testing.T) {
	s := testServer(0)
	e := echo.New()
	e.Use(RequestID(), NewContextEnhancer(s).EnhanceContext())
	e.GET("/", func(c echo.Context) error {
		if GetLogger(c) != LoggerFromContext(c.Request().Context()) {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.NoContent(http.StatusOK)
	})

	if code := do(e, http.MethodGet, "/", nil).Code; code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
}
