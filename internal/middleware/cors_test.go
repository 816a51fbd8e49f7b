package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newCORSEcho(origins []string) (*echo.Echo, *int) {
	calls := 0
	e := echo.New()
	e.Use(CORS(origins))
	e.Match([]string{http.MethodGet, http.MethodPost}, "/api/*", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "ok")
	})
	return e, &calls
}

func TestCORS_Preflight(t *testing.T) {
	e, calls := newCORSEcho([]string{"*"})

	req := httptest.NewRequest(http.MethodOptions, "/api/patients", http.NoBody)
	req.Header.Set(echo.HeaderOrigin, "https://portal.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if v := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); v != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", v, "*")
	}
	if *calls != 0 {
		t.Errorf("handler called %d times for preflight, want 0", *calls)
	}
}

func TestCORS_AllowedOrigins(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"listed origin", "https://portal.example.com", "https://portal.example.com"},
		{"unlisted origin", "https://evil.example.com", ""},
	}

	e, _ := newCORSEcho([]string{"https://portal.example.com"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/patients", http.NoBody)
			req.Header.Set(echo.HeaderOrigin, tt.origin)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if v := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); v != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", v, tt.want)
			}
		})
	}
}
