package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"telehub-proxy-go/internal/client"
	"telehub-proxy-go/internal/config"
	"telehub-proxy-go/internal/metrics"
	"telehub-proxy-go/internal/service"
)

func newTestRouter(t *testing.T, cfg *config.Config, m *metrics.Metrics) *echo.Echo {
	t.Helper()
	logger := discardLogger()
	c := client.NewUpstreamClient(cfg, logger, m, nil)
	svc, err := service.NewProxyService(c, cfg, logger, m)
	if err != nil {
		t.Fatalf("NewProxyService: %v", err)
	}

	proxy := NewProxyHandler(svc, logger)
	health := NewHealthHandler(service.NewHealthReporter(c, cfg, logger, m), cfg, "test")

	e := echo.New()
	RegisterRoutes(e, cfg, proxy, health, m)
	return e
}

func TestRegisterRoutes_Wiring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream-Method", r.Method)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	cfg.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}
	e := newTestRouter(t, cfg, metrics.New())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"GET /", http.MethodGet, "/", http.StatusOK},
		{"GET /health", http.MethodGet, "/health", http.StatusOK},
		{"GET /api/patients", http.MethodGet, "/api/patients?page=2", http.StatusOK},
		{"POST /api/patients", http.MethodPost, "/api/patients", http.StatusOK},
		{"PUT /api/patients/7", http.MethodPut, "/api/patients/7", http.StatusOK},
		{"DELETE /api/patients/7", http.MethodDelete, "/api/patients/7", http.StatusOK},
		{"PATCH /api/patients/7", http.MethodPatch, "/api/patients/7", http.StatusOK},
		{"HEAD /api/patients is not proxied", http.MethodHead, "/api/patients", http.StatusMethodNotAllowed},
		{"POST /health is not allowed", http.MethodPost, "/health", http.StatusMethodNotAllowed},
		{"GET /metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"GET /unknown returns 404", http.MethodGet, "/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Code == http.StatusOK && strings.HasPrefix(tt.path, "/api/") {
				if got := rec.Header().Get("X-Upstream-Method"); got != tt.method {
					t.Errorf("upstream saw method %q, want %q", got, tt.method)
				}
			}
		})
	}
}

func TestRegisterRoutes_MetricsDisabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	e := newTestRouter(t, cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
