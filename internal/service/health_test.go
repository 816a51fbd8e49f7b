package service_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"telehub-proxy-go/internal/client"
	"telehub-proxy-go/internal/config"
	"telehub-proxy-go/internal/metrics"
	"telehub-proxy-go/internal/model"
	"telehub-proxy-go/internal/service"
)

var _ = Describe("HealthReporter", func() {
	var (
		server       *httptest.Server
		release      chan struct{}
		responseCode int
		hang         bool
		probedPath   string
		cfg          *config.Config
		m            *metrics.Metrics
		subject      *service.HealthReporter
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := func(w http.ResponseWriter, r *http.Request) {
		probedPath = r.URL.Path
		if hang {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		w.WriteHeader(responseCode)
		_, _ = io.WriteString(w, `{"status":"whatever"}`)
	}

	newSubject := func() *service.HealthReporter {
		c := client.NewUpstreamClient(cfg, logger, m, nil)
		return service.NewHealthReporter(c, cfg, logger, m)
	}

	BeforeEach(func() {
		release = make(chan struct{})
		responseCode = http.StatusOK
		hang = false
		probedPath = ""

		server = httptest.NewServer(http.HandlerFunc(handler))

		cfg = &config.Config{
			Upstream: config.UpstreamConfig{BaseURL: server.URL, IdleConnections: 2},
			Health: config.HealthConfig{
				Path:           "/api/health",
				TimeoutSeconds: 5,
				Message:        "Telehub API proxy",
			},
		}
		m = metrics.New()
		subject = newSubject()
	})

	AfterEach(func() {
		close(release)
		server.Close()
	})

	DescribeTable(
		"Check",
		func(code int, expected model.BackendStatus) {
			responseCode = code
			Expect(subject.Check(context.Background())).To(Equal(model.HealthReport{
				Status:  "healthy",
				Proxy:   "running",
				Backend: expected,
				Message: "Telehub API proxy",
			}))
		},
		Entry("upstream answers 200", http.StatusOK, model.BackendHealthy),
		Entry("upstream answers 404", http.StatusNotFound, model.BackendUnhealthy),
		Entry("upstream answers 503", http.StatusServiceUnavailable, model.BackendUnhealthy),
		Entry("upstream answers 204", http.StatusNoContent, model.BackendUnhealthy),
	)

	Describe("Check", func() {
		It("probes the upstream's own health path", func() {
			subject.Check(context.Background())
			Expect(probedPath).To(Equal("/api/health"))
		})

		It("reports unreachable when the probe times out", func() {
			hang = true
			cfg.Health.TimeoutSeconds = 1
			subject = newSubject()

			report := subject.Check(context.Background())

			Expect(report.Backend).To(Equal(model.BackendUnreachable))
			Expect(report.Status).To(Equal("healthy"))
		})

		It("reports unreachable when nothing is listening", func() {
			server.Close()

			Expect(subject.Check(context.Background()).Backend).To(Equal(model.BackendUnreachable))
		})

		It("reports unreachable when the caller's context is already done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Expect(subject.Check(ctx).Backend).To(Equal(model.BackendUnreachable))
		})

		It("counts probes by backend status", func() {
			responseCode = http.StatusInternalServerError
			subject.Check(context.Background())
			subject.Check(context.Background())

			families, err := m.Registry.Gather()
			Expect(err).NotTo(HaveOccurred())

			var value float64
			for _, f := range families {
				if f.GetName() != "telehub_proxy_health_checks_total" {
					continue
				}
				for _, metric := range f.GetMetric() {
					for _, lp := range metric.GetLabel() {
						if lp.GetName() == "backend" && lp.GetValue() == "unhealthy" {
							value = metric.GetCounter().GetValue()
						}
					}
				}
			}
			Expect(value).To(Equal(2.0))
		})
	})
})
