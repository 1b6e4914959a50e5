package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestWithContext_AddsRequestAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithUserID(ctx, "uid-1")
	ctx = WithSOSID(ctx, "sos-1")

	log.WithContext(ctx).WithComponent("test").Info("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}

	want := map[string]string{
		"request_id":  "req-1",
		"user_id":     "uid-1",
		"sos_id":      "sos-1",
		"component":   "test",
		"instance_id": GetInstanceID(),
	}
	for key, value := range want {
		if line[key] != value {
			t.Errorf("expected %s=%q, got %v", key, value, line[key])
		}
	}
	if _, ok := line["operation"]; ok {
		t.Errorf("operation should be omitted when not set")
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("APP_ENV", "")

	cfg := FromConfig("warn", "")
	if cfg.Level != slog.LevelWarn {
		t.Errorf("expected warn level, got %v", cfg.Level)
	}
	if cfg.Format != "text" {
		t.Errorf("expected text format, got %q", cfg.Format)
	}

	t.Setenv("APP_ENV", "production")
	if cfg := FromConfig("info", "text"); cfg.Format != "json" {
		t.Errorf("expected json format in production, got %q", cfg.Format)
	}
}

func TestRequestLoggingMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLoggingMiddleware(Discard()))

	var seen string
	router.GET("/ping", func(c *gin.Context) {
		seen, _ = c.Request.Context().Value(ContextKeyRequestID).(string)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seen != "fixed-id" {
		t.Errorf("expected request id fixed-id in context, got %q", seen)
	}
	if got := w.Header().Get(RequestIDHeader); got != "fixed-id" {
		t.Errorf("expected response header fixed-id, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}
}
