// Package queue carries automatic ledger entries over RabbitMQ when the
// direct write fails, so that a missed entry is retried instead of lost.
package queue

import "time"

// Ledger entry sources.
const (
	SourceOrder       = "order"
	SourceReservation = "reservation"
)

// LedgerEntryEvent is everything needed to rebuild a revenue entry without
// reading the order or reservation again. Amount is a decimal string.
type LedgerEntryEvent struct {
	HotelID       uint64    `json:"hotel_id"`
	Source        string    `json:"source"`
	OrderID       uint64    `json:"order_id,omitempty"`
	ReservationID uint64    `json:"reservation_id,omitempty"`
	Number        string    `json:"number"`
	CustomerName  string    `json:"customer_name,omitempty"`
	Amount        string    `json:"amount"`
	PaymentMode   string    `json:"payment_mode,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	Attempt       int       `json:"attempt"`
}
