package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/metrics"
	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/queue"
)

// LedgerOutbox receives entries whose direct write failed.
type LedgerOutbox interface {
	PublishLedgerEntry(ctx context.Context, ev queue.LedgerEntryEvent) error
}

// LedgerRecorder writes VALIDATED revenue entries on behalf of the order and
// reservation services. It runs after the caller's transaction committed and
// never returns an error to it: a failed write is handed to the outbox for
// retry, and logged and counted when even that fails.
type LedgerRecorder struct {
	store  Store
	outbox LedgerOutbox
}

// NewLedgerRecorder builds a recorder; outbox may be nil.
func NewLedgerRecorder(store Store, outbox LedgerOutbox) *LedgerRecorder {
	return &LedgerRecorder{store: store, outbox: outbox}
}

const ledgerWriteTimeout = 5 * time.Second

// RecordOrderPayment records money collected for a restaurant order.
func (l *LedgerRecorder) RecordOrderPayment(ctx context.Context, hotelID, orderID uint64, orderNumber string, amount decimal.Decimal, paymentMode model.PaymentMode) {
	l.record(ctx, queue.LedgerEntryEvent{
		HotelID:     hotelID,
		Source:      queue.SourceOrder,
		OrderID:     orderID,
		Number:      orderNumber,
		Amount:      amount.String(),
		PaymentMode: string(paymentMode),
		OccurredAt:  now(),
	})
}

// RecordReservationPayment records money collected for a stay.
func (l *LedgerRecorder) RecordReservationPayment(ctx context.Context, hotelID, reservationID uint64, reservationNumber, customerName string, amount decimal.Decimal, paymentMode model.PaymentMode) {
	l.record(ctx, queue.LedgerEntryEvent{
		HotelID:       hotelID,
		Source:        queue.SourceReservation,
		ReservationID: reservationID,
		Number:        reservationNumber,
		CustomerName:  customerName,
		Amount:        amount.String(),
		PaymentMode:   string(paymentMode),
		OccurredAt:    now(),
	})
}

func (l *LedgerRecorder) record(ctx context.Context, ev queue.LedgerEntryEvent) {
	// the caller already committed; a cancelled request must not lose the entry
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()

	log := logger.FromContext(ctx).With(
		zap.Uint64("hotel_id", ev.HotelID),
		zap.String("source", ev.Source),
		zap.String("number", ev.Number),
		zap.String("amount", ev.Amount),
	)

	err := l.Replay(ctx, ev)
	if err == nil {
		metrics.LedgerEntries.WithLabelValues(ev.Source, "recorded").Inc()
		return
	}
	log.Error("ledger entry not recorded", zap.Error(err))

	if l.outbox == nil {
		metrics.LedgerEntries.WithLabelValues(ev.Source, "dropped").Inc()
		return
	}
	if perr := l.outbox.PublishLedgerEntry(ctx, ev); perr != nil {
		metrics.LedgerEntries.WithLabelValues(ev.Source, "dropped").Inc()
		log.Error("ledger entry lost: retry queue unavailable", zap.Error(perr))
		return
	}
	metrics.LedgerEntries.WithLabelValues(ev.Source, "queued").Inc()
	log.Warn("ledger entry queued for retry")
}

// Replay writes the entry described by ev in its own transaction. The retry
// consumer calls it directly and acts on the returned error.
func (l *LedgerRecorder) Replay(ctx context.Context, ev queue.LedgerEntryEvent) (err error) {
	ctx, span := tracer.Start(ctx, "ledger.record")
	span.SetAttributes(
		hotelAttr(ev.HotelID),
		attribute.String("ledger.source", ev.Source),
		attribute.String("ledger.number", ev.Number),
		attribute.Int("ledger.attempt", ev.Attempt),
	)
	defer func() { endSpan(span, err) }()

	t, err := entryFromEvent(ev)
	if err != nil {
		return err
	}
	return l.store.Tx(ctx, func(r Repos) error {
		ref, err := nextReference(ctx, r, ev.HotelID, t.Date.Year())
		if err != nil {
			return err
		}
		t.Reference = ref
		return r.Transactions().Create(ctx, t)
	})
}

func entryFromEvent(ev queue.LedgerEntryEvent) (*model.Transaction, error) {
	amount, err := decimal.NewFromString(ev.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, apperr.New(apperr.ErrInvalidAmount, "ledger amount %q must be positive", ev.Amount)
	}
	if !fitsScale(amount, moneyPlaces) {
		return nil, apperr.New(apperr.ErrInvalidAmount, "ledger amount %q has more than %d decimals", ev.Amount, moneyPlaces)
	}
	at := ev.OccurredAt
	if at.IsZero() {
		at = now()
	}
	validatedAt := at
	t := &model.Transaction{
		HotelID:     ev.HotelID,
		Type:        model.TransactionRevenue,
		Amount:      amount,
		Date:        at,
		PaymentMode: model.PaymentMode(ev.PaymentMode),
		Status:      model.TransactionValidated,
		ValidatedBy: model.SystemValidator,
		ValidatedAt: &validatedAt,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	switch ev.Source {
	case queue.SourceOrder:
		id := ev.OrderID
		t.OrderID = &id
		t.Category = model.CategoryRestaurant
		t.Description = "Restaurant order payment " + ev.Number
	case queue.SourceReservation:
		id := ev.ReservationID
		t.ReservationID = &id
		t.Category = model.CategoryAccommodation
		t.Description = "Reservation payment " + ev.Number
		if ev.CustomerName != "" {
			t.Description += " - " + ev.CustomerName
		}
	default:
		return nil, apperr.Invalid("source", fmt.Sprintf("unknown ledger source %q", ev.Source))
	}
	t.DocumentNumber = ev.Number
	return t, nil
}

// nextReference draws the next per-hotel ledger reference from the atomic
// sequence table: TRX-<year>-<00001>.
func nextReference(ctx context.Context, r Repos, hotelID uint64, year int) (string, error) {
	n, err := r.Sequences().Next(ctx, hotelID, "transaction", year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TRX-%d-%05d", year, n), nil
}
