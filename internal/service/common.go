// Package service implements the hotel use cases on top of the Store port.
// Every exported method takes the caller's auth.Principal, checks the
// permission it needs and scopes every query by the principal's hotel.
package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/model"
)

var tracer = otel.Tracer("github.com/iliyamo/hotel-management/internal/service")

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// Document number prefixes.
const (
	orderPrefix       = "CMD"
	reservationPrefix = "RES"
	invoicePrefix     = "FAC"
)

// Decimal places of the stock and money columns. MySQL rounds anything
// finer without an error, so such input is refused before any decision is
// taken on it.
const (
	quantityPlaces = 3
	moneyPlaces    = 2
)

// fitsScale reports whether d carries no digits beyond places decimals.
// Trailing zeros do not count: 1.500 fits two places.
func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// checkPayment accepts a strictly positive amount in whole cents.
func checkPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.New(apperr.ErrInvalidAmount, "payment amount must be greater than zero")
	}
	if !fitsScale(amount, moneyPlaces) {
		return apperr.New(apperr.ErrInvalidAmount, "amount %s has more than %d decimals", amount, moneyPlaces)
	}
	return nil
}

// checkMode accepts an empty mode or one of the known payment modes.
func checkMode(m model.PaymentMode) error {
	if m != "" && !m.Valid() {
		return apperr.Invalid("payment_mode", "unknown payment mode "+string(m))
	}
	return nil
}

// documentNumber returns prefix followed by eight upper-case hex characters.
func documentNumber(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strings.ToUpper(id[:8])
}

// dateOnly truncates t to midnight UTC.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// endSpan records err on span before ending it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func hotelAttr(hotelID uint64) attribute.KeyValue {
	return attribute.Int64("hotel.id", int64(hotelID))
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
