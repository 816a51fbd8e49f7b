package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"telehub-proxy-go/internal/config"
	"telehub-proxy-go/internal/model"
	"telehub-proxy-go/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

const (
	serviceName        = "Telehub API Proxy"
	serviceDescription = "Reverse proxy for the Telehub backend"
)

// HealthHandler serves the health and service descriptor endpoints.
type HealthHandler struct {
	reporter *service.HealthReporter
	cfg      *config.Config
	version  Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(r *service.HealthReporter, cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{reporter: r, cfg: cfg, version: v}
}

// Health reports proxy and upstream status. It always answers 200.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, h.reporter.Check(c.Request().Context()))
}

// Index returns the service descriptor.
func (h *HealthHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, model.ServiceInfo{
		Service:     serviceName,
		Version:     string(h.version),
		Description: serviceDescription,
		Endpoints: map[string]string{
			"health": "/health",
			"api":    "/api/*",
		},
		Backend: h.cfg.Upstream.BaseURL,
	})
}
