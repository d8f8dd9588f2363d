package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) != L() {
		t.Fatal("expected global logger")
	}
	l := zap.NewExample()
	if FromContext(WithContext(context.Background(), l)) != l {
		t.Fatal("expected request logger")
	}
}

func TestMiddlewareAttachesRequestLogger(t *testing.T) {
	e := echo.New()
	var fromEcho, fromCtx *zap.Logger
	e.GET("/ping", func(c echo.Context) error {
		fromEcho = FromEcho(c)
		fromCtx = FromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}, Middleware())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if fromEcho == nil || fromEcho != fromCtx {
		t.Fatal("echo and request contexts must share the request logger")
	}
}
