// Package service implements the core proxy forwarding logic.
package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"telehub-proxy-go/internal/client"
	"telehub-proxy-go/internal/config"
	"telehub-proxy-go/internal/metrics"
	"telehub-proxy-go/internal/model"
)

// apiPrefix is prepended to every forwarded path.
const apiPrefix = "/api/"

// ProxyService handles the forwarding logic for proxy requests.
type ProxyService struct {
	client  *client.UpstreamClient
	logger  *slog.Logger
	metrics *metrics.Metrics
	base    string // upstream base URL without trailing slash
}

// NewProxyService creates a ProxyService targeting cfg.Upstream.BaseURL.
// The metrics parameter is optional.
func NewProxyService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*ProxyService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream base_url %q must be absolute", cfg.Upstream.BaseURL)
	}

	return &ProxyService{
		client:  c,
		logger:  logger.With("component", "proxy_service"),
		metrics: m,
		base:    strings.TrimRight(u.String(), "/"),
	}, nil
}

// Forward sends a ProxyRequest to <upstream>/api/<path> and returns the
// upstream response unchanged. Every error it returns is a *model.ForwardError.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResult, error) {
	target := s.buildUpstreamURL(pr.Path, pr.Query)
	header := buildRequestHeaders(pr.Header)

	var body io.Reader
	if pr.Body != nil {
		r, err := pr.Body.Reader()
		if err != nil {
			return nil, s.fail(model.ProxyError, fmt.Errorf("prepare request body: %w", err))
		}
		body = r
	}

	ctx := pr.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"path", pr.Path,
		"structured_body", isStructured(pr.Body),
	)

	res, err := s.client.Send(ctx, pr.Method, target, header, body)
	if err != nil {
		return nil, s.fail(classify(err), fmt.Errorf("forward to upstream: %w", err))
	}
	return res, nil
}

// Fail records and wraps a failure that happened before Forward could run,
// such as an unreadable inbound body.
func (s *ProxyService) Fail(kind model.ErrorKind, err error) *model.ForwardError {
	return s.fail(kind, err)
}

func (s *ProxyService) fail(kind model.ErrorKind, err error) *model.ForwardError {
	if s.metrics != nil {
		s.metrics.ProxyErrors.WithLabelValues(kind.String()).Inc()
	}
	return model.NewForwardError(kind, err)
}

// Upstream returns the configured upstream base URL.
func (s *ProxyService) Upstream() string {
	return s.base
}

func (s *ProxyService) buildUpstreamURL(path, rawQuery string) string {
	target := s.base + apiPrefix + strings.TrimPrefix(path, "/")
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

// buildRequestHeaders copies the inbound headers, dropping Host so the
// upstream sees its own host name.
func buildRequestHeaders(src http.Header) http.Header {
	dst := src.Clone()
	if dst == nil {
		dst = make(http.Header)
	}
	dst.Del("Host")
	return dst
}

// classify maps a forwarding error to its kind. Transport-level failures to
// reach the upstream are BackendUnavailable; everything else is ProxyError.
func classify(err error) model.ErrorKind {
	if errors.Is(err, client.ErrReadBody) || errors.Is(err, context.Canceled) {
		return model.ProxyError
	}

	var (
		dnsErr    *net.DNSError
		opErr     *net.OpError
		recordErr tls.RecordHeaderError
		certErr   *tls.CertificateVerificationError
	)
	switch {
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return model.BackendUnavailable
	case errors.As(err, &recordErr), errors.As(err, &certErr):
		return model.BackendUnavailable
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return model.BackendUnavailable
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return model.BackendUnavailable
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return model.BackendUnavailable
	}
	return model.ProxyError
}

func isStructured(b model.Body) bool {
	_, ok := b.(model.StructuredBody)
	return ok
}
