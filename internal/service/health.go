package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"telehub-proxy-go/internal/client"
	"telehub-proxy-go/internal/config"
	"telehub-proxy-go/internal/metrics"
	"telehub-proxy-go/internal/model"
)

// HealthReporter probes the upstream's own health endpoint.
type HealthReporter struct {
	client  *client.UpstreamClient
	logger  *slog.Logger
	metrics *metrics.Metrics
	url     string
	timeout time.Duration
	message string
}

// NewHealthReporter creates a HealthReporter for cfg.Health against cfg.Upstream.
// The metrics parameter is optional.
func NewHealthReporter(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *HealthReporter {
	return &HealthReporter{
		client:  c,
		logger:  logger.With("component", "health_reporter"),
		metrics: m,
		url:     cfg.Upstream.BaseURL + cfg.Health.Path,
		timeout: time.Duration(cfg.Health.TimeoutSeconds) * time.Second,
		message: cfg.Health.Message,
	}
}

// Check never fails: any probe error downgrades the backend to unreachable.
func (r *HealthReporter) Check(ctx context.Context) model.HealthReport {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	backend := model.BackendHealthy
	status, err := r.client.Probe(ctx, r.url)
	switch {
	case err != nil:
		backend = model.BackendUnreachable
		r.logger.Warn("upstream health probe failed", "err", err)
	case status != http.StatusOK:
		backend = model.BackendUnhealthy
		r.logger.Warn("upstream reported unhealthy", "status", status)
	}

	if r.metrics != nil {
		r.metrics.HealthChecks.WithLabelValues(string(backend)).Inc()
	}

	return model.HealthReport{
		Status:  "healthy",
		Proxy:   "running",
		Backend: backend,
		Message: r.message,
	}
}
