package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceIssued    InvoiceStatus = "ISSUED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceIssued, InvoicePaid, InvoiceCancelled:
		return true
	}
	return false
}

// Invoice bills a client for a stay, an order or free-form lines.
// Net is the sum of line amounts, VAT = Net * VATRate / 100 and
// Gross = Net + VAT, all rounded half-up to cents.
type Invoice struct {
	ID            uint64          `json:"id"`
	HotelID       uint64          `json:"hotel_id"`
	Number        string          `json:"number"`
	ClientID      *uint64         `json:"client_id,omitempty"`
	ReservationID *uint64         `json:"reservation_id,omitempty"`
	OrderID       *uint64         `json:"order_id,omitempty"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Status        InvoiceStatus   `json:"status"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	Net           decimal.Decimal `json:"net"`
	VAT           decimal.Decimal `json:"vat"`
	Gross         decimal.Decimal `json:"gross"`
	Paid          decimal.Decimal `json:"paid"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Lines         []InvoiceLine   `json:"lines"`
}

// Remaining is Gross - Paid, never negative.
func (i Invoice) Remaining() decimal.Decimal {
	r := i.Gross.Sub(i.Paid)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

type InvoiceLine struct {
	ID          uint64          `json:"id"`
	InvoiceID   uint64          `json:"invoice_id"`
	Designation string          `json:"designation"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// ComputeTotals fills line amounts and the invoice net/VAT/gross figures.
func (i *Invoice) ComputeTotals() {
	net := decimal.Zero
	for k := range i.Lines {
		l := &i.Lines[k]
		l.Amount = l.Quantity.Mul(l.UnitPrice).Round(2)
		net = net.Add(l.Amount)
	}
	i.Net = net.Round(2)
	i.VAT = i.Net.Mul(i.VATRate).Div(decimal.NewFromInt(100)).Round(2)
	i.Gross = i.Net.Add(i.VAT)
}
