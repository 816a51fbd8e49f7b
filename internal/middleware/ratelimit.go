package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"telehub-proxy-go/internal/model"
)

// RateLimiter returns a per-client-IP limiter allowing rps requests per second.
// Rejected requests get a 429 with the proxy's error payload.
func RateLimiter(rps float64) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStore(rate.Limit(rps)),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, model.ErrorResponse{
				Error:   "Too many requests",
				Message: "Rate limit exceeded, retry later",
			})
		},
	})
}
