package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey struct{}

const echoKey = "logger"

// FromContext returns the request-scoped logger, or the global one.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(contextKey{}).(*zap.Logger); ok {
		return l
	}
	return log
}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromEcho returns the logger set by Middleware, or the global one.
func FromEcho(c echo.Context) *zap.Logger {
	if l, ok := c.Get(echoKey).(*zap.Logger); ok {
		return l
	}
	return log
}

// Attach replaces the request-scoped logger in both the Echo context and
// the request context.
func Attach(c echo.Context, l *zap.Logger) {
	c.Set(echoKey, l)
	c.SetRequest(c.Request().WithContext(WithContext(c.Request().Context(), l)))
}
