package service

import (
	"strings"
	"testing"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/model"
)

func TestInvoiceLifecycle(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Hind", "Ziani")
	svc := NewInvoiceService(f.store)

	inv, err := svc.Create(f.ctx, f.owner, CreateInvoiceInput{
		ClientID: &c.ID,
		VATRate:  d("20"),
		Lines: []InvoiceLineInput{
			{Designation: "Room 101", Quantity: d("3"), UnitPrice: d("33.335")},
			{Designation: "Breakfast", Quantity: d("2"), UnitPrice: d("7.50")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(inv.Number, "FAC") || inv.Status != model.InvoiceDraft {
		t.Fatalf("invoice = %+v", inv)
	}
	if !inv.Net.Equal(d("115.01")) || !inv.VAT.Equal(d("23")) || !inv.Gross.Equal(d("138.01")) {
		t.Fatalf("totals net=%s vat=%s gross=%s", inv.Net, inv.VAT, inv.Gross)
	}

	_, err = svc.AddPayment(f.ctx, f.owner, inv.ID, d("10"))
	wantKind(t, err, apperr.ErrInvalidState)

	if _, err := svc.Issue(f.ctx, f.owner, inv.ID); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Issue(f.ctx, f.owner, inv.ID)
	wantKind(t, err, apperr.ErrInvalidState)

	part, err := svc.AddPayment(f.ctx, f.owner, inv.ID, d("100"))
	if err != nil {
		t.Fatal(err)
	}
	if part.Status != model.InvoiceIssued || !part.Remaining().Equal(d("38.01")) {
		t.Fatalf("after partial: %+v", part)
	}
	_, err = svc.AddPayment(f.ctx, f.owner, inv.ID, d("40"))
	wantKind(t, err, apperr.ErrInvalidAmount)

	full, err := svc.AddPayment(f.ctx, f.owner, inv.ID, d("38.01"))
	if err != nil {
		t.Fatal(err)
	}
	if full.Status != model.InvoicePaid {
		t.Fatalf("status = %s", full.Status)
	}
	_, err = svc.Cancel(f.ctx, f.owner, inv.ID, "error")
	wantKind(t, err, apperr.ErrInvalidState)
}

func TestInvoiceCreateChecks(t *testing.T) {
	f := newFixture(t)
	svc := NewInvoiceService(f.store)
	missing := uint64(4242)

	_, err := svc.Create(f.ctx, f.owner, CreateInvoiceInput{})
	wantKind(t, err, apperr.ErrValidation)

	_, err = svc.Create(f.ctx, f.owner, CreateInvoiceInput{
		VATRate: d("120"),
		Lines:   []InvoiceLineInput{{Designation: "x", Quantity: d("0"), UnitPrice: d("1")}},
	})
	fields := apperr.FieldsOf(err)
	if fields["vat_rate"] == "" || fields["lines.quantity"] == "" {
		t.Fatalf("fields = %v", fields)
	}

	_, err = svc.Create(f.ctx, f.owner, CreateInvoiceInput{
		ReservationID: &missing,
		Lines:         []InvoiceLineInput{{Designation: "x", Quantity: d("1"), UnitPrice: d("1")}},
	})
	wantKind(t, err, apperr.ErrNotFound)
	if list, _ := svc.List(f.ctx, f.owner, ""); len(list) != 0 {
		t.Fatalf("invoices = %d", len(list))
	}
}

func TestCancelInvoiceKeepsReason(t *testing.T) {
	f := newFixture(t)
	svc := NewInvoiceService(f.store)
	inv, err := svc.Create(f.ctx, f.owner, CreateInvoiceInput{
		Notes: "walk-in",
		Lines: []InvoiceLineInput{{Designation: "Laundry", Quantity: d("1"), UnitPrice: d("15")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Cancel(f.ctx, f.owner, inv.ID, "wrong guest")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.InvoiceCancelled || got.Notes != "walk-in\nCancellation reason: wrong guest" {
		t.Fatalf("invoice = %+v", got)
	}
	list, _ := svc.List(f.ctx, f.owner, model.InvoiceCancelled)
	if len(list) != 1 {
		t.Fatalf("cancelled invoices = %d", len(list))
	}
}

func TestInvoiceAmountScale(t *testing.T) {
	f := newFixture(t)
	svc := NewInvoiceService(f.store)

	_, err := svc.Create(f.ctx, f.owner, CreateInvoiceInput{
		VATRate: d("20.125"),
		Lines:   []InvoiceLineInput{{Designation: "Spa", Quantity: d("1.2345"), UnitPrice: d("9.9999")}},
	})
	fields := apperr.FieldsOf(err)
	for _, k := range []string{"vat_rate", "lines.quantity", "lines.unit_price"} {
		if fields[k] == "" {
			t.Fatalf("missing field %s in %v", k, fields)
		}
	}

	inv, err := svc.Create(f.ctx, f.owner, CreateInvoiceInput{
		Lines: []InvoiceLineInput{{Designation: "Spa", Quantity: d("1"), UnitPrice: d("50")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Issue(f.ctx, f.owner, inv.ID); err != nil {
		t.Fatal(err)
	}
	for _, amount := range []string{"1.005", "0.001", "49.999"} {
		_, err := svc.AddPayment(f.ctx, f.owner, inv.ID, d(amount))
		wantKind(t, err, apperr.ErrInvalidAmount)
	}
	got, err := svc.AddPayment(f.ctx, f.owner, inv.ID, d("1.50"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Paid.Equal(d("1.5")) {
		t.Fatalf("paid = %s, want 1.5", got.Paid)
	}
}
