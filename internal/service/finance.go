package service

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/model"
)

// TransactionService is the manual side of the ledger: entries typed in by
// accountants, their validation workflow and the dashboard figures.
type TransactionService struct {
	store Store
}

func NewTransactionService(store Store) *TransactionService {
	return &TransactionService{store: store}
}

// TransactionInput is the editable part of a ledger entry.
type TransactionInput struct {
	Type           model.TransactionType
	Category       string
	Amount         decimal.Decimal
	Date           *time.Time
	Description    string
	PaymentMode    model.PaymentMode
	OrderID        *uint64
	ReservationID  *uint64
	SupplierID     *uint64
	DocumentNumber string
	Notes          string
}

func (in *TransactionInput) validate() error {
	in.Category = strings.TrimSpace(in.Category)
	var f apperr.Fields
	f.Add(!in.Type.Valid(), "type", "type must be REVENUE or EXPENSE")
	f.Add(in.Category == "", "category", "category is required")
	f.Add(!in.Amount.IsPositive(), "amount", "amount must be positive")
	f.Add(in.PaymentMode != "" && !in.PaymentMode.Valid(), "payment_mode", "unknown payment mode")
	if err := f.Err(); err != nil {
		return err
	}
	if !fitsScale(in.Amount, moneyPlaces) {
		return apperr.New(apperr.ErrInvalidAmount, "amount %s has more than %d decimals", in.Amount, moneyPlaces)
	}
	return nil
}

func (in TransactionInput) apply(t *model.Transaction) {
	t.Type = in.Type
	t.Category = in.Category
	t.Amount = in.Amount
	if in.Date != nil {
		t.Date = in.Date.UTC()
	}
	t.Description = in.Description
	t.PaymentMode = in.PaymentMode
	t.OrderID = in.OrderID
	t.ReservationID = in.ReservationID
	t.SupplierID = in.SupplierID
	t.DocumentNumber = in.DocumentNumber
	t.Notes = in.Notes
}

// Create records a PENDING entry with the next ledger reference.
func (s *TransactionService) Create(ctx context.Context, p auth.Principal, in TransactionInput) (*model.Transaction, error) {
	if err := p.Require(auth.UpdateAccounting); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ts := now()
	t := &model.Transaction{
		HotelID:   p.HotelID,
		Date:      ts,
		Status:    model.TransactionPending,
		CreatedBy: p.ActorID(),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	in.apply(t)
	err := s.store.Tx(ctx, func(r Repos) error {
		ref, err := nextReference(ctx, r, p.HotelID, t.Date.Year())
		if err != nil {
			return err
		}
		t.Reference = ref
		return r.Transactions().Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TransactionService) Get(ctx context.Context, p auth.Principal, id uint64) (*model.Transaction, error) {
	if err := p.Require(auth.ViewAccounting); err != nil {
		return nil, err
	}
	return s.store.Transactions().GetByID(ctx, p.HotelID, id)
}

func (s *TransactionService) List(ctx context.Context, p auth.Principal, f TransactionFilter) ([]model.Transaction, error) {
	if err := p.Require(auth.ViewAccounting); err != nil {
		return nil, err
	}
	return s.store.Transactions().List(ctx, p.HotelID, f)
}

// Update edits a PENDING entry.
func (s *TransactionService) Update(ctx context.Context, p auth.Principal, id uint64, in TransactionInput) (*model.Transaction, error) {
	if err := p.Require(auth.UpdateAccounting); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.HotelID, id, func(_ Repos, t *model.Transaction) error {
		if t.Status != model.TransactionPending {
			return apperr.New(apperr.ErrInvalidState, "only PENDING transactions can be modified")
		}
		in.apply(t)
		return nil
	})
}

// Delete removes a PENDING entry.
func (s *TransactionService) Delete(ctx context.Context, p auth.Principal, id uint64) error {
	if err := p.Require(auth.UpdateAccounting); err != nil {
		return err
	}
	return s.store.Tx(ctx, func(r Repos) error {
		t, err := r.Transactions().GetByID(ctx, p.HotelID, id)
		if err != nil {
			return err
		}
		if t.Status != model.TransactionPending {
			return apperr.New(apperr.ErrInvalidState, "only PENDING transactions can be deleted")
		}
		return r.Transactions().Delete(ctx, p.HotelID, id)
	})
}

// Validate moves a PENDING entry to VALIDATED and stamps the validator.
func (s *TransactionService) Validate(ctx context.Context, p auth.Principal, id uint64) (*model.Transaction, error) {
	if err := p.Require(auth.UpdateAccounting); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.HotelID, id, func(r Repos, t *model.Transaction) error {
		if t.Status != model.TransactionPending {
			return apperr.New(apperr.ErrInvalidState, "only PENDING transactions can be validated")
		}
		name, err := actorName(ctx, r, p)
		if err != nil {
			return err
		}
		at := now()
		t.Status = model.TransactionValidated
		t.ValidatedBy = name
		t.ValidatedAt = &at
		return nil
	})
}

// Cancel voids an entry and appends the reason to its notes.
func (s *TransactionService) Cancel(ctx context.Context, p auth.Principal, id uint64, reason string) (*model.Transaction, error) {
	if err := p.Require(auth.UpdateAccounting); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.HotelID, id, func(_ Repos, t *model.Transaction) error {
		if t.Status == model.TransactionCancelled {
			return apperr.New(apperr.ErrInvalidState, "transaction %s is already cancelled", t.Reference)
		}
		t.Status = model.TransactionCancelled
		if reason = strings.TrimSpace(reason); reason != "" {
			t.Notes = appendNote(t.Notes, "Cancellation reason: "+reason)
		}
		return nil
	})
}

func (s *TransactionService) mutate(ctx context.Context, hotelID, id uint64, fn func(Repos, *model.Transaction) error) (*model.Transaction, error) {
	var out *model.Transaction
	err := s.store.Tx(ctx, func(r Repos) error {
		t, err := r.Transactions().GetByID(ctx, hotelID, id)
		if err != nil {
			return err
		}
		if err := fn(r, t); err != nil {
			return err
		}
		t.UpdatedAt = now()
		out = t
		return r.Transactions().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// actorName is the display name stamped on validated entries.
func actorName(ctx context.Context, r Repos, p auth.Principal) (string, error) {
	if p.IsOwner() {
		h, err := r.Hotels().GetByID(ctx, p.HotelID)
		if err != nil {
			return "", err
		}
		return h.Name, nil
	}
	u, err := r.Users().GetByID(ctx, p.HotelID, p.AccountID)
	if err != nil {
		return "", err
	}
	if name := u.FullName(); name != "" {
		return name, nil
	}
	return u.Username, nil
}

// MonthFigures is one point of the monthly evolution.
type MonthFigures struct {
	Month    string          `json:"month"` // MM/YYYY
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Result   decimal.Decimal `json:"result"`
}

// FinanceStats is the accounting dashboard. Every amount only counts
// VALIDATED entries except the pending figures.
type FinanceStats struct {
	TotalRevenue   decimal.Decimal       `json:"total_revenue"`
	TotalExpenses  decimal.Decimal       `json:"total_expenses"`
	Balance        decimal.Decimal       `json:"balance"`
	MonthRevenue   decimal.Decimal       `json:"month_revenue"`
	MonthExpenses  decimal.Decimal       `json:"month_expenses"`
	MonthResult    decimal.Decimal       `json:"month_result"`
	DayRevenue     decimal.Decimal       `json:"day_revenue"`
	DayExpenses    decimal.Decimal       `json:"day_expenses"`
	Count          int                   `json:"transaction_count"`
	PendingCount   int                   `json:"pending_count"`
	PendingAmount  decimal.Decimal       `json:"pending_amount"`
	TopCategories  []model.CategoryTotal `json:"top_categories"`
	MonthlyFigures []MonthFigures        `json:"monthly_evolution"`
}

const topCategoryCount = 5

// Stats computes the dashboard for the caller's hotel at the current time.
func (s *TransactionService) Stats(ctx context.Context, p auth.Principal) (*FinanceStats, error) {
	if err := p.Require(auth.ViewAccounting, auth.GenerateReports); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "finance.stats")
	span.SetAttributes(hotelAttr(p.HotelID))
	var err error
	defer func() { endSpan(span, err) }()

	repo := s.store.Transactions()
	ts := now()
	today := dateOnly(ts)
	monthStart := time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	sum := func(typ model.TransactionType, from, to *time.Time) decimal.Decimal {
		if err != nil {
			return decimal.Zero
		}
		var v decimal.Decimal
		v, err = repo.Sum(ctx, p.HotelID, TransactionFilter{Type: typ, Status: model.TransactionValidated, From: from, To: to})
		return v
	}

	out := &FinanceStats{}
	out.TotalRevenue = sum(model.TransactionRevenue, nil, nil)
	out.TotalExpenses = sum(model.TransactionExpense, nil, nil)
	out.MonthRevenue = sum(model.TransactionRevenue, &monthStart, &tomorrow)
	out.MonthExpenses = sum(model.TransactionExpense, &monthStart, &tomorrow)
	out.DayRevenue = sum(model.TransactionRevenue, &today, &tomorrow)
	out.DayExpenses = sum(model.TransactionExpense, &today, &tomorrow)
	for i := 5; i >= 0; i-- {
		from := monthStart.AddDate(0, -i, 0)
		to := from.AddDate(0, 1, 0)
		rev := sum(model.TransactionRevenue, &from, &to)
		exp := sum(model.TransactionExpense, &from, &to)
		out.MonthlyFigures = append(out.MonthlyFigures, MonthFigures{
			Month:    from.Format("01/2006"),
			Revenue:  rev,
			Expenses: exp,
			Result:   rev.Sub(exp),
		})
	}
	if err != nil {
		return nil, err
	}
	out.Balance = out.TotalRevenue.Sub(out.TotalExpenses)
	out.MonthResult = out.MonthRevenue.Sub(out.MonthExpenses)

	if out.Count, err = repo.Count(ctx, p.HotelID, TransactionFilter{}); err != nil {
		return nil, err
	}
	pending := TransactionFilter{Status: model.TransactionPending}
	if out.PendingCount, err = repo.Count(ctx, p.HotelID, pending); err != nil {
		return nil, err
	}
	if out.PendingAmount, err = repo.Sum(ctx, p.HotelID, pending); err != nil {
		return nil, err
	}

	cats, err := repo.SumByCategory(ctx, p.HotelID, TransactionFilter{
		Type:   model.TransactionExpense,
		Status: model.TransactionValidated,
		From:   &monthStart,
		To:     &tomorrow,
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Total.GreaterThan(cats[j].Total) })
	if len(cats) > topCategoryCount {
		cats = cats[:topCategoryCount]
	}
	out.TopCategories = cats
	return out, nil
}

var csvHeader = []string{"Reference", "Type", "Category", "Amount", "Date", "Status", "Description"}

// ExportCSV writes the entries matching f as semicolon separated values.
func (s *TransactionService) ExportCSV(ctx context.Context, p auth.Principal, f TransactionFilter, w io.Writer) error {
	if err := p.Require(auth.GenerateReports, auth.ViewAccounting); err != nil {
		return err
	}
	rows, err := s.store.Transactions().List(ctx, p.HotelID, f)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range rows {
		rec := []string{
			t.Reference,
			string(t.Type),
			t.Category,
			t.Amount.StringFixed(2),
			t.Date.Format(time.RFC3339),
			string(t.Status),
			t.Description,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("transactions exported",
		zap.Uint64("hotel_id", p.HotelID),
		zap.Int("rows", len(rows)))
	return nil
}
