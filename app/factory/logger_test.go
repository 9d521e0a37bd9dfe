package factory

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestNewModuleLogger(t *testing.T) {
	logger := NewModuleLogger("refunds-controller")
	if logger == nil {
		t.Fatal("expected logger")
	}
	if logger.Data["module"] != "refunds-controller" {
		t.Fatalf("unexpected module field: %v", logger.Data["module"])
	}
}

func TestLoggerWithContextAddsRequestID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	logger := LoggerWithContext(NewModuleLogger("refunds-controller"), ctx)
	if logger.Data["request_id"] != "req-123" {
		t.Fatalf("expected request id on logger, got %v", logger.Data["request_id"])
	}
}

func TestLoggerWithContextWithoutRequestID(t *testing.T) {
	e := echo.New()
	ctx := e.NewContext(httptest.NewRequest("GET", "/health", nil), httptest.NewRecorder())

	logger := LoggerWithContext(NewModuleLogger("notifications-controller"), ctx)
	if _, ok := logger.Data["request_id"]; ok {
		t.Fatal("expected no request id field")
	}
}
