package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus values keep the labels used on the front desk.
type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "EN_ATTENTE"
	ReservationConfirmed  ReservationStatus = "CONFIRMEE"
	ReservationInProgress ReservationStatus = "EN_COURS"
	ReservationCompleted  ReservationStatus = "TERMINEE"
	ReservationCancelled  ReservationStatus = "ANNULEE"
	ReservationNoShow     ReservationStatus = "NO_SHOW"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationInProgress,
		ReservationCompleted, ReservationCancelled, ReservationNoShow:
		return true
	}
	return false
}

// Blocking reports whether a reservation in this status occupies its room
// for the overlap check.
func (s ReservationStatus) Blocking() bool {
	return s != ReservationCancelled && s != ReservationCompleted && s != ReservationNoShow
}

// Closed reports whether the reservation can no longer be modified.
func (s ReservationStatus) Closed() bool {
	return s == ReservationCompleted || s == ReservationCancelled || s == ReservationNoShow
}

// PaymentStatus of a reservation.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "NON_PAYE"
	PaymentPartial PaymentStatus = "ACOMPTE"
	PaymentPaid    PaymentStatus = "PAYE"
)

// PaymentStatusFor derives the payment status from paid and total.
func PaymentStatusFor(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case !paid.IsPositive():
		return PaymentUnpaid
	case paid.GreaterThanOrEqual(total):
		return PaymentPaid
	}
	return PaymentPartial
}

// Reservation books one room for [Arrival, Departure). Dates are stored as
// calendar days at UTC midnight.
type Reservation struct {
	ID              uint64            `json:"id"`
	HotelID         uint64            `json:"hotel_id"`
	Number          string            `json:"number"`
	RoomID          uint64            `json:"room_id"`
	ClientID        uint64            `json:"client_id"`
	Arrival         time.Time         `json:"arrival"`
	Departure       time.Time         `json:"departure"`
	Nights          int               `json:"nights"`
	Adults          int               `json:"adults"`
	Children        int               `json:"children"`
	PricePerNight   decimal.Decimal   `json:"price_per_night"`
	Total           decimal.Decimal   `json:"total"`
	Paid            decimal.Decimal   `json:"paid"`
	Status          ReservationStatus `json:"status"`
	PaymentStatus   PaymentStatus     `json:"payment_status"`
	PaymentMode     PaymentMode       `json:"payment_mode,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	SpecialRequests string            `json:"special_requests,omitempty"`
	ExternalRef     string            `json:"external_ref,omitempty"`
	CreatedBy       *uint64           `json:"created_by,omitempty"`
	CheckedInAt     *time.Time        `json:"checked_in_at,omitempty"`
	CheckedInBy     *uint64           `json:"checked_in_by,omitempty"`
	CheckedOutAt    *time.Time        `json:"checked_out_at,omitempty"`
	CheckedOutBy    *uint64           `json:"checked_out_by,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Remaining is the unpaid part of the total.
func (r Reservation) Remaining() decimal.Decimal {
	rem := r.Total.Sub(r.Paid)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// Overlaps applies the inclusive test used by the booking conflict check.
func (r Reservation) Overlaps(arrival, departure time.Time) bool {
	return !r.Arrival.After(departure) && !r.Departure.Before(arrival)
}
