package service

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/model"
)

func TestTransactionWorkflow(t *testing.T) {
	f := newFixture(t)
	acct := f.employee(t, auth.RoleAccountant)
	svc := NewTransactionService(f.store)

	tx, err := svc.Create(f.ctx, acct, TransactionInput{
		Type:     model.TransactionExpense,
		Category: "Supplies",
		Amount:   d("120.40"),
	})
	if err != nil {
		t.Fatal(err)
	}
	wantRef := "TRX-" + now().Format("2006") + "-00001"
	if tx.Status != model.TransactionPending || tx.Reference != wantRef || tx.CreatedBy == nil {
		t.Fatalf("tx = %+v", tx)
	}

	upd, err := svc.Update(f.ctx, acct, tx.ID, TransactionInput{Type: model.TransactionExpense, Category: "Cleaning", Amount: d("99")})
	if err != nil {
		t.Fatal(err)
	}
	if upd.Category != "Cleaning" || upd.Reference != wantRef {
		t.Fatalf("updated = %+v", upd)
	}

	val, err := svc.Validate(f.ctx, acct, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if val.Status != model.TransactionValidated || val.ValidatedBy != "Sam Doe" || val.ValidatedAt == nil {
		t.Fatalf("validated = %+v", val)
	}

	_, err = svc.Update(f.ctx, acct, tx.ID, TransactionInput{Type: model.TransactionExpense, Category: "X", Amount: d("1")})
	wantKind(t, err, apperr.ErrInvalidState)
	wantKind(t, svc.Delete(f.ctx, acct, tx.ID), apperr.ErrInvalidState)
	_, err = svc.Validate(f.ctx, acct, tx.ID)
	wantKind(t, err, apperr.ErrInvalidState)

	cancelled, err := svc.Cancel(f.ctx, acct, tx.ID, "duplicate invoice")
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.Status != model.TransactionCancelled || cancelled.Notes != "Cancellation reason: duplicate invoice" {
		t.Fatalf("cancelled = %+v", cancelled)
	}
	_, err = svc.Cancel(f.ctx, acct, tx.ID, "")
	wantKind(t, err, apperr.ErrInvalidState)

	second, _ := svc.Create(f.ctx, acct, TransactionInput{Type: model.TransactionRevenue, Category: "Bar", Amount: d("5")})
	if second.Reference != "TRX-"+now().Format("2006")+"-00002" {
		t.Fatalf("second reference = %s", second.Reference)
	}
	if err := svc.Delete(f.ctx, acct, second.ID); err != nil {
		t.Fatal(err)
	}
}

func TestTransactionValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store)
	_, err := svc.Create(f.ctx, f.owner, TransactionInput{Type: "GIFT", Amount: d("-1")})
	wantKind(t, err, apperr.ErrValidation)
	fields := apperr.FieldsOf(err)
	for _, k := range []string{"type", "category", "amount"} {
		if fields[k] == "" {
			t.Fatalf("missing field %s in %v", k, fields)
		}
	}

	desk := f.employee(t, auth.RoleReception)
	_, err = svc.List(f.ctx, desk, TransactionFilter{})
	wantKind(t, err, apperr.ErrForbidden)
}

func TestTransactionAmountAndMode(t *testing.T) {
	tests := map[string]struct {
		in   TransactionInput
		kind error
	}{
		"sub-cent amount": {TransactionInput{Type: model.TransactionExpense, Category: "Supplies", Amount: d("10.001")}, apperr.ErrInvalidAmount},
		"unknown mode":    {TransactionInput{Type: model.TransactionExpense, Category: "Supplies", Amount: d("10"), PaymentMode: "BITCOIN"}, apperr.ErrValidation},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := NewTransactionService(f.store).Create(f.ctx, f.owner, tt.in)
			wantKind(t, err, tt.kind)
			if n := len(f.ledgerEntries(t)); n != 0 {
				t.Fatalf("entries = %d", n)
			}
		})
	}

	f := newFixture(t)
	tx, err := NewTransactionService(f.store).Create(f.ctx, f.owner, TransactionInput{
		Type: model.TransactionExpense, Category: "Supplies", Amount: d("10.10"), PaymentMode: model.PaymentTransfer,
	})
	if err != nil {
		t.Fatal(err)
	}
	if tx.PaymentMode != model.PaymentTransfer || !tx.Amount.Equal(d("10.1")) {
		t.Fatalf("transaction = %+v", tx)
	}
}

func TestFinanceStats(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store)
	ts := now()
	lastMonth := time.Date(ts.Year(), ts.Month(), 1, 12, 0, 0, 0, time.UTC).AddDate(0, -1, 0)

	add := func(typ model.TransactionType, cat, amount string, at time.Time, validate bool) {
		t.Helper()
		tx, err := svc.Create(f.ctx, f.owner, TransactionInput{Type: typ, Category: cat, Amount: d(amount), Date: &at})
		if err != nil {
			t.Fatal(err)
		}
		if validate {
			if _, err := svc.Validate(f.ctx, f.owner, tx.ID); err != nil {
				t.Fatal(err)
			}
		}
	}
	add(model.TransactionRevenue, "Accommodation", "1000", ts, true)
	add(model.TransactionExpense, "Supplies", "300", ts, true)
	add(model.TransactionExpense, "Energy", "150", ts, true)
	add(model.TransactionRevenue, "Restaurant", "400", lastMonth, true)
	add(model.TransactionExpense, "Supplies", "75", ts, false)

	st, err := svc.Stats(f.ctx, f.owner)
	if err != nil {
		t.Fatal(err)
	}
	checks := map[string][2]string{
		"total revenue":  {st.TotalRevenue.String(), "1400"},
		"total expenses": {st.TotalExpenses.String(), "450"},
		"balance":        {st.Balance.String(), "950"},
		"month revenue":  {st.MonthRevenue.String(), "1000"},
		"month result":   {st.MonthResult.String(), "550"},
		"day expenses":   {st.DayExpenses.String(), "450"},
		"pending amount": {st.PendingAmount.String(), "75"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}
	if st.Count != 5 || st.PendingCount != 1 {
		t.Errorf("count=%d pending=%d", st.Count, st.PendingCount)
	}
	if len(st.TopCategories) != 2 || st.TopCategories[0].Category != "Supplies" {
		t.Errorf("top categories = %+v", st.TopCategories)
	}
	if len(st.MonthlyFigures) != 6 {
		t.Fatalf("evolution = %d months", len(st.MonthlyFigures))
	}
	cur, prev := st.MonthlyFigures[5], st.MonthlyFigures[4]
	if cur.Month != ts.Format("01/2006") || !cur.Result.Equal(d("550")) || !prev.Revenue.Equal(d("400")) {
		t.Errorf("evolution = %+v", st.MonthlyFigures)
	}
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store)
	if _, err := svc.Create(f.ctx, f.owner, TransactionInput{
		Type: model.TransactionExpense, Category: "Supplies", Amount: d("12.5"), Description: "soap; towels",
	}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(f.ctx, f.owner, TransactionFilter{}, &buf); err != nil {
		t.Fatal(err)
	}
	r := csv.NewReader(&buf)
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][0] != "Reference" {
		t.Fatalf("rows = %v", rows)
	}
	if rows[1][3] != "12.50" || rows[1][6] != "soap; towels" {
		t.Fatalf("row = %v", rows[1])
	}
}
