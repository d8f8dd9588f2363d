package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionRevenue TransactionType = "REVENUE"
	TransactionExpense TransactionType = "EXPENSE"
)

func (t TransactionType) Valid() bool { return t == TransactionRevenue || t == TransactionExpense }

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionValidated TransactionStatus = "VALIDATED"
	TransactionCancelled TransactionStatus = "CANCELLED"
)

func (s TransactionStatus) Valid() bool {
	return s == TransactionPending || s == TransactionValidated || s == TransactionCancelled
}

// PaymentMode is how money was handed over. An empty mode means not stated.
type PaymentMode string

const (
	PaymentCash        PaymentMode = "ESPECES"
	PaymentCard        PaymentMode = "CARTE_BANCAIRE"
	PaymentTransfer    PaymentMode = "VIREMENT"
	PaymentCheque      PaymentMode = "CHEQUE"
	PaymentMobileMoney PaymentMode = "MOBILE_MONEY"
	PaymentOrangeMoney PaymentMode = "ORANGE_MONEY"
	PaymentMTNMoney    PaymentMode = "MTN_MONEY"
	PaymentWave        PaymentMode = "WAVE"
	PaymentMoovMoney   PaymentMode = "MOOV_MONEY"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentCheque, PaymentMobileMoney,
		PaymentOrangeMoney, PaymentMTNMoney, PaymentWave, PaymentMoovMoney:
		return true
	}
	return false
}

// Ledger categories written by the billing recorder.
const (
	CategoryRestaurant    = "Restaurant"
	CategoryAccommodation = "Accommodation"
)

// SystemValidator is the validator name stamped on entries recorded
// automatically from orders and reservations.
const SystemValidator = "System"

// Transaction is a ledger entry. Reference is unique per hotel and has the
// form TRX-<year>-<5 digit sequence>.
type Transaction struct {
	ID             uint64            `json:"id"`
	HotelID        uint64            `json:"hotel_id"`
	Reference      string            `json:"reference"`
	Type           TransactionType   `json:"type"`
	Category       string            `json:"category"`
	Amount         decimal.Decimal   `json:"amount"`
	Date           time.Time         `json:"date"`
	Description    string            `json:"description,omitempty"`
	PaymentMode    PaymentMode       `json:"payment_mode,omitempty"`
	Status         TransactionStatus `json:"status"`
	OrderID        *uint64           `json:"order_id,omitempty"`
	ReservationID  *uint64           `json:"reservation_id,omitempty"`
	SupplierID     *uint64           `json:"supplier_id,omitempty"`
	DocumentNumber string            `json:"document_number,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	ValidatedBy    string            `json:"validated_by,omitempty"`
	ValidatedAt    *time.Time        `json:"validated_at,omitempty"`
	CreatedBy      *uint64           `json:"created_by,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// CategoryTotal is one row of a per-category aggregate.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}
