// Package apperr defines the error kinds shared by the repository, service
// and handler layers. Every business failure is reported as an *Error whose
// Kind is one of the sentinel values below, so callers can branch with
// errors.Is regardless of how deeply the error was wrapped. Handlers map the
// kind to an HTTP status code.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidState       = errors.New("invalid state")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrRoomUnavailable    = errors.New("room unavailable")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error carries a kind, a human readable message and, for validation
// failures, a field -> message map.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// New builds an *Error of the given kind with a formatted message.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity, e.g. NotFound("product", 12).
func NotFound(entity string, id any) *Error {
	return New(ErrNotFound, "%s %v not found", entity, id)
}

// Invalid returns a validation error for a single field.
func Invalid(field, msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg, Fields: map[string]string{field: msg}}
}

// Fields collects field validation messages. The zero value is ready to use.
type Fields map[string]string

// Add records msg for field when cond is true and keeps the first message
// reported for a field.
func (f *Fields) Add(cond bool, field, msg string) {
	if !cond {
		return
	}
	if *f == nil {
		*f = Fields{}
	}
	if _, ok := (*f)[field]; !ok {
		(*f)[field] = msg
	}
}

// Err returns nil when no field failed, otherwise a validation *Error.
func (f Fields) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Kind: ErrValidation, Message: "validation failed", Fields: map[string]string(f)}
}

// FieldsOf extracts the field map from err, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
