package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"telehub-proxy-go/internal/model"
	"telehub-proxy-go/internal/service"
)

// Fixed payload for BackendUnavailable; the cause is only logged.
const (
	unavailableError   = "Backend service unavailable"
	unavailableMessage = "The backend is not running or unreachable"
	proxyErrorLabel    = "Proxy error"
)

// ProxyHandler forwards /api/* requests to the upstream backend.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle proxies the request to the upstream and relays the buffered response.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	path := strings.TrimPrefix(req.URL.EscapedPath(), "/api/")
	if path == "" {
		return echo.ErrNotFound
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he // body limit exceeded
		}
		return h.writeError(c, h.service.Fail(model.ProxyError, fmt.Errorf("read request body: %w", err)))
	}

	contentType := req.Header.Get(echo.HeaderContentType)
	body, err := model.NewBody(contentType, data)
	if err != nil {
		return h.writeError(c, h.service.Fail(model.ProxyError, err))
	}

	res, err := h.service.Forward(&model.ProxyRequest{
		Ctx:         req.Context(),
		Method:      req.Method,
		Path:        path,
		Query:       req.URL.RawQuery,
		Header:      req.Header,
		ContentType: contentType,
		Body:        body,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	// Upstream values replace anything middleware has already set for the same key.
	header := c.Response().Header()
	for key, vals := range res.Header {
		header[key] = append([]string(nil), vals...)
	}

	c.Response().WriteHeader(res.StatusCode)
	if _, err := c.Response().Write(res.Body); err != nil {
		h.logger.Error("writing response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}

func (h *ProxyHandler) writeError(c echo.Context, err error) error {
	var fe *model.ForwardError
	if !errors.As(err, &fe) {
		fe = model.NewForwardError(model.ProxyError, err)
	}

	h.logger.Error("proxy error",
		"kind", fe.Kind.String(),
		"err", fe.Err,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
	)

	if fe.Kind == model.BackendUnavailable {
		return c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Error:   unavailableError,
			Message: unavailableMessage,
		})
	}

	return c.JSON(http.StatusInternalServerError, model.ErrorResponse{
		Error:   proxyErrorLabel,
		Message: fe.Err.Error(),
	})
}
