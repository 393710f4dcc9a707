package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/openwork/internal/middleware"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthHandler serves /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(s)}
}

type checkResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type healthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]checkResult `json:"checks"`
}

// CheckHealth probes the configured dependencies. The database is required:
// a failing database answers 503. Redis only backs the status cache and
// notifications, so a failing Redis is reported but stays 200.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()
	obs := h.server.Config.Observability

	response := healthResponse{
		Status:      "healthy",
		Timestamp:   start.UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      map[string]checkResult{},
	}

	timeout := 5 * time.Second
	if obs.HealthChecks.Timeout > 0 {
		timeout = obs.HealthChecks.Timeout
	}

	probe := func(name string, ping func(context.Context) error) bool {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		probeStart := time.Now()
		err := ping(ctx)
		result := checkResult{Status: "healthy", ResponseTime: time.Since(probeStart).String()}
		if err != nil {
			result.Status = "unhealthy"
			result.Error = err.Error()
			logger.Error().Err(err).Str("check", name).Dur("response_time", time.Since(probeStart)).Msg("health check failed")
			h.recordFailure(name, err, time.Since(probeStart))
		}
		response.Checks[name] = result
		return err == nil
	}

	if obs.HasCheck("database") && h.server.DB != nil {
		if !probe("database", h.server.DB.Pool.Ping) {
			response.Status = "unhealthy"
		}
	}
	if obs.HasCheck("redis") && h.server.Redis != nil {
		probe("redis", func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}

	if response.Status != "healthy" {
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().Dur("total_duration", time.Since(start)).Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordFailure(check string, err error, d time.Duration) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}
	app.RecordCustomEvent("HealthCheckError", map[string]any{
		"check_type":       check,
		"error_type":       check + "_unhealthy",
		"response_time_ms": d.Milliseconds(),
		"error_message":    err.Error(),
	})
}
