package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/logger"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respond(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, envelope{Message: msg})
}

// statusOf maps an error kind to its HTTP status; unknown errors are 500.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrInvalidState),
		errors.Is(err, apperr.ErrRoomUnavailable):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInsufficientStock),
		errors.Is(err, apperr.ErrProductUnavailable),
		errors.Is(err, apperr.ErrInvalidQuantity),
		errors.Is(err, apperr.ErrInvalidAmount),
		errors.Is(err, apperr.ErrInvalidDateRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// fail renders err. Internal errors are logged with the request logger and
// hidden from the client.
func fail(c echo.Context, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.FromEcho(c).Error("request failed", zap.Error(err))
		return c.JSON(status, envelope{Message: "internal server error"})
	}
	return c.JSON(status, envelope{Message: err.Error(), Errors: apperr.FieldsOf(err)})
}

// ErrorHandler renders errors escaping handlers and Echo's own errors
// (unknown route, wrong method) in the same envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		_ = c.JSON(he.Code, envelope{Message: msg})
		return
	}
	_ = fail(c, err)
}
