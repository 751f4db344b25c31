package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := echo.New()
	e.Use(RequestLogger(logger))
	e.POST("/proxy/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/proxy/", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	out := buf.String()
	for _, want := range []string{"level=INFO", "method=POST", "path=/proxy/", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"client error", http.StatusBadRequest, "level=WARN"},
		{"bad gateway", http.StatusBadGateway, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			e := echo.New()
			e.Use(RequestLogger(logger))
			e.POST("/proxy/", func(c echo.Context) error {
				return c.JSON(tt.status, map[string]string{"error": "Proxy Error"})
			})

			req := httptest.NewRequest(http.MethodPost, "/proxy/", http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("log output %q missing %q", buf.String(), tt.want)
			}
		})
	}
}
