package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"telehub-proxy-go/internal/config"
	"telehub-proxy-go/internal/metrics"
)

// proxiedMethods are the methods accepted on /api/*.
var proxiedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
}

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, proxy *ProxyHandler, health *HealthHandler, m *metrics.Metrics) {
	e.GET("/", health.Index)
	e.GET("/health", health.Health)

	e.Match(proxiedMethods, "/api/*", proxy.Handle)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(m.Handler()))
	}
}
