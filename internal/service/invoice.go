package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/model"
)

// InvoiceService bills clients for stays, orders and free-form lines.
type InvoiceService struct {
	store Store
}

func NewInvoiceService(store Store) *InvoiceService {
	return &InvoiceService{store: store}
}

type InvoiceLineInput struct {
	Designation string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

type CreateInvoiceInput struct {
	ClientID      *uint64
	ReservationID *uint64
	OrderID       *uint64
	IssueDate     *time.Time
	DueDate       *time.Time
	VATRate       decimal.Decimal
	Notes         string
	Lines         []InvoiceLineInput
}

func (in CreateInvoiceInput) validate() error {
	var f apperr.Fields
	f.Add(len(in.Lines) == 0, "lines", "an invoice needs at least one line")
	f.Add(in.VATRate.IsNegative() || in.VATRate.GreaterThan(decimal.NewFromInt(100)), "vat_rate", "vat rate must be between 0 and 100")
	f.Add(!fitsScale(in.VATRate, moneyPlaces), "vat_rate", "vat rate allows 2 decimals")
	for _, l := range in.Lines {
		f.Add(strings.TrimSpace(l.Designation) == "", "lines.designation", "every line needs a designation")
		f.Add(!l.Quantity.IsPositive(), "lines.quantity", "line quantity must be positive")
		f.Add(l.UnitPrice.IsNegative(), "lines.unit_price", "unit price cannot be negative")
		f.Add(!fitsScale(l.Quantity, quantityPlaces), "lines.quantity", "line quantity allows 3 decimals")
		f.Add(!fitsScale(l.UnitPrice, quantityPlaces), "lines.unit_price", "unit price allows 3 decimals")
	}
	if in.IssueDate != nil && in.DueDate != nil && in.DueDate.Before(*in.IssueDate) {
		f.Add(true, "due_date", "due date cannot precede issue date")
	}
	return f.Err()
}

// Create stores a DRAFT invoice. Linked client, reservation and order must
// belong to the caller's hotel.
func (s *InvoiceService) Create(ctx context.Context, p auth.Principal, in CreateInvoiceInput) (*model.Invoice, error) {
	if err := p.Require(auth.UpdateAccounting); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ts := now()
	inv := &model.Invoice{
		HotelID:       p.HotelID,
		Number:        documentNumber(invoicePrefix),
		ClientID:      in.ClientID,
		ReservationID: in.ReservationID,
		OrderID:       in.OrderID,
		IssueDate:     dateOnly(ts),
		Status:        model.InvoiceDraft,
		VATRate:       in.VATRate,
		Paid:          decimal.Zero,
		Notes:         in.Notes,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if in.IssueDate != nil {
		inv.IssueDate = dateOnly(*in.IssueDate)
	}
	if in.DueDate != nil {
		d := dateOnly(*in.DueDate)
		inv.DueDate = &d
	}
	for _, l := range in.Lines {
		inv.Lines = append(inv.Lines, model.InvoiceLine{
			Designation: strings.TrimSpace(l.Designation),
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	inv.ComputeTotals()

	err := s.store.Tx(ctx, func(r Repos) error {
		if in.ClientID != nil {
			if _, err := r.Clients().GetByID(ctx, p.HotelID, *in.ClientID); err != nil {
				return err
			}
		}
		if in.ReservationID != nil {
			if _, err := r.Reservations().GetByID(ctx, p.HotelID, *in.ReservationID); err != nil {
				return err
			}
		}
		if in.OrderID != nil {
			if _, err := r.Orders().GetByID(ctx, p.HotelID, *in.OrderID); err != nil {
				return err
			}
		}
		return r.Invoices().Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("invoice created",
		zap.Uint64("hotel_id", p.HotelID),
		zap.String("number", inv.Number),
		zap.String("gross", inv.Gross.StringFixed(2)))
	return inv, nil
}

// Issue moves a DRAFT invoice to ISSUED.
func (s *InvoiceService) Issue(ctx context.Context, p auth.Principal, id uint64) (*model.Invoice, error) {
	return s.mutate(ctx, p, id, func(inv *model.Invoice) error {
		if inv.Status != model.InvoiceDraft {
			return apperr.New(apperr.ErrInvalidState, "invoice %s is %s, only DRAFT invoices can be issued", inv.Number, inv.Status)
		}
		inv.Status = model.InvoiceIssued
		return nil
	})
}

// AddPayment records money received against an issued invoice. The amount
// may not exceed what remains; the invoice turns PAID once settled.
func (s *InvoiceService) AddPayment(ctx context.Context, p auth.Principal, id uint64, amount decimal.Decimal) (*model.Invoice, error) {
	if err := checkPayment(amount); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, id, func(inv *model.Invoice) error {
		switch inv.Status {
		case model.InvoiceDraft, model.InvoicePaid, model.InvoiceCancelled:
			return apperr.New(apperr.ErrInvalidState, "invoice %s is %s and cannot take payments", inv.Number, inv.Status)
		}
		if amount.GreaterThan(inv.Remaining()) {
			return apperr.New(apperr.ErrInvalidAmount, "payment %s exceeds remaining %s", amount.StringFixed(2), inv.Remaining().StringFixed(2))
		}
		inv.Paid = inv.Paid.Add(amount)
		if !inv.Paid.LessThan(inv.Gross) {
			inv.Status = model.InvoicePaid
		}
		return nil
	})
}

// Cancel voids an unpaid invoice.
func (s *InvoiceService) Cancel(ctx context.Context, p auth.Principal, id uint64, reason string) (*model.Invoice, error) {
	return s.mutate(ctx, p, id, func(inv *model.Invoice) error {
		switch inv.Status {
		case model.InvoicePaid, model.InvoiceCancelled:
			return apperr.New(apperr.ErrInvalidState, "invoice %s is %s and cannot be cancelled", inv.Number, inv.Status)
		}
		inv.Status = model.InvoiceCancelled
		if reason = strings.TrimSpace(reason); reason != "" {
			inv.Notes = appendNote(inv.Notes, "Cancellation reason: "+reason)
		}
		return nil
	})
}

func (s *InvoiceService) Get(ctx context.Context, p auth.Principal, id uint64) (*model.Invoice, error) {
	if err := p.Require(auth.ViewAccounting); err != nil {
		return nil, err
	}
	return s.store.Invoices().GetByID(ctx, p.HotelID, id)
}

func (s *InvoiceService) List(ctx context.Context, p auth.Principal, status model.InvoiceStatus) ([]model.Invoice, error) {
	if err := p.Require(auth.ViewAccounting); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperr.Invalid("status", "unknown invoice status")
	}
	return s.store.Invoices().List(ctx, p.HotelID, status)
}

func (s *InvoiceService) mutate(ctx context.Context, p auth.Principal, id uint64, fn func(*model.Invoice) error) (*model.Invoice, error) {
	if err := p.Require(auth.UpdateAccounting); err != nil {
		return nil, err
	}
	var out *model.Invoice
	err := s.store.Tx(ctx, func(r Repos) error {
		inv, err := r.Invoices().GetForUpdate(ctx, p.HotelID, id)
		if err != nil {
			return err
		}
		if err := fn(inv); err != nil {
			return err
		}
		inv.UpdatedAt = now()
		out = inv
		return r.Invoices().UpdateState(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
