// Package router builds the echo instance: global middleware, system
// routes and the authenticated /api/v1 routes.
package router

import (
	"github.com/deppfellow/openwork/internal/handler"
	"github.com/deppfellow/openwork/internal/middleware"
	"github.com/deppfellow/openwork/internal/server"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Metrics.Record(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, s, h)

	v1 := router.Group("/api/v1",
		middlewares.Auth.RequireAuth,
		// Runs again so the request logger carries the authenticated user.
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.RateLimit.Limit(),
	)
	registerV1Routes(v1, h)

	return router
}
