package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/hotel-management/internal/model"
)

// InvoiceRepo reads and writes 'invoices' and their 'invoice_lines'.
type InvoiceRepo struct{ db DBTX }

const invoiceColumns = `id, hotel_id, number, client_id, reservation_id, order_id, issue_date, due_date,
	status, vat_rate, net, vat, gross, paid, notes, created_at, updated_at`

func scanInvoice(row rowScanner) (*model.Invoice, error) {
	var (
		inv                model.Invoice
		client, res, order sql.NullInt64
		due                sql.NullTime
	)
	err := row.Scan(&inv.ID, &inv.HotelID, &inv.Number, &client, &res, &order, &inv.IssueDate, &due,
		&inv.Status, &inv.VATRate, &inv.Net, &inv.VAT, &inv.Gross, &inv.Paid, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.ClientID = idPtr(client)
	inv.ReservationID = idPtr(res)
	inv.OrderID = idPtr(order)
	inv.DueDate = timePtr(due)
	return &inv, nil
}

// Create inserts the invoice and its lines; IDs are written back.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	var due any
	if inv.DueDate != nil {
		due = day(*inv.DueDate)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (hotel_id, number, client_id, reservation_id, order_id, issue_date, due_date,
			status, vat_rate, net, vat, gross, paid, notes, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		inv.HotelID, inv.Number, nullID(inv.ClientID), nullID(inv.ReservationID), nullID(inv.OrderID),
		day(inv.IssueDate), due, inv.Status, inv.VATRate, inv.Net, inv.VAT, inv.Gross, inv.Paid, inv.Notes,
		inv.CreatedAt.UTC(), inv.UpdatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)

	for i := range inv.Lines {
		l := &inv.Lines[i]
		l.InvoiceID = inv.ID
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO invoice_lines (invoice_id, designation, description, quantity, unit_price, amount)
			 VALUES (?,?,?,?,?,?)`,
			l.InvoiceID, l.Designation, l.Description, l.Quantity, l.UnitPrice, l.Amount)
		if err != nil {
			return translate(err)
		}
		lineID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		l.ID = uint64(lineID)
	}
	return nil
}

func (r *InvoiceRepo) get(ctx context.Context, hotelID, id uint64, lock string) (*model.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id=? AND hotel_id=?"+lock, id, hotelID))
	if err != nil {
		return nil, notFound(err, "invoice", id)
	}
	lines, err := r.lines(ctx, []uint64{inv.ID})
	if err != nil {
		return nil, err
	}
	inv.Lines = lines[inv.ID]
	return inv, nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, hotelID, id uint64) (*model.Invoice, error) {
	return r.get(ctx, hotelID, id, "")
}

func (r *InvoiceRepo) GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Invoice, error) {
	return r.get(ctx, hotelID, id, " FOR UPDATE")
}

func (r *InvoiceRepo) List(ctx context.Context, hotelID uint64, status model.InvoiceStatus) ([]model.Invoice, error) {
	q := "SELECT " + invoiceColumns + " FROM invoices WHERE hotel_id=?"
	args := []any{hotelID}
	if status != "" {
		q += " AND status=?"
		args = append(args, status)
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Invoice{}
	var ids []uint64
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	lines, err := r.lines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

// UpdateState persists status, paid and notes.
func (r *InvoiceRepo) UpdateState(ctx context.Context, inv *model.Invoice) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE invoices SET status=?, paid=?, notes=?, updated_at=? WHERE id=? AND hotel_id=?",
		inv.Status, inv.Paid, inv.Notes, inv.UpdatedAt.UTC(), inv.ID, inv.HotelID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "invoice", inv.ID)
}

func (r *InvoiceRepo) lines(ctx context.Context, invoiceIDs []uint64) (map[uint64][]model.InvoiceLine, error) {
	out := map[uint64][]model.InvoiceLine{}
	if len(invoiceIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(invoiceIDs))
	for i, id := range invoiceIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_id, designation, description, quantity, unit_price, amount
		 FROM invoice_lines WHERE invoice_id IN (`+placeholders(len(args))+`) ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l model.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Designation, &l.Description, &l.Quantity,
			&l.UnitPrice, &l.Amount); err != nil {
			return nil, err
		}
		out[l.InvoiceID] = append(out[l.InvoiceID], l)
	}
	return out, rows.Err()
}
