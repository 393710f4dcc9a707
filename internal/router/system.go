package router

import (
	"github.com/deppfellow/openwork/internal/handler"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes mounts the unauthenticated endpoints: health,
// Prometheus metrics and the API docs.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	if m := s.Config.Observability.Metrics; m.Enabled && s.Metrics != nil {
		r.GET(m.Path, echo.WrapHandler(s.Metrics.Handler()))
	}

	r.Static("/static", handler.StaticDir)
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
