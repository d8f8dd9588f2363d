package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/service"
)

// TransactionRepo reads and writes the ledger table 'ledger_transactions'.
type TransactionRepo struct{ db DBTX }

const transactionColumns = `id, hotel_id, reference, type, category, amount, tx_date, description,
	payment_mode, status, order_id, reservation_id, supplier_id, document_number, notes, validated_by,
	validated_at, created_by, created_at, updated_at`

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		t                    model.Transaction
		order, res, supplier sql.NullInt64
		createdBy            sql.NullInt64
		validatedAt          sql.NullTime
	)
	err := row.Scan(&t.ID, &t.HotelID, &t.Reference, &t.Type, &t.Category, &t.Amount, &t.Date, &t.Description,
		&t.PaymentMode, &t.Status, &order, &res, &supplier, &t.DocumentNumber, &t.Notes, &t.ValidatedBy,
		&validatedAt, &createdBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.OrderID = idPtr(order)
	t.ReservationID = idPtr(res)
	t.SupplierID = idPtr(supplier)
	t.ValidatedAt = timePtr(validatedAt)
	t.CreatedBy = idPtr(createdBy)
	return &t, nil
}

// Create inserts t; a reused (hotel, reference) pair answers Conflict.
func (r *TransactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_transactions (hotel_id, reference, type, category, amount, tx_date, description,
			payment_mode, status, order_id, reservation_id, supplier_id, document_number, notes, validated_by,
			validated_at, created_by, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.HotelID, t.Reference, t.Type, t.Category, t.Amount, t.Date.UTC(), t.Description,
		t.PaymentMode, t.Status, nullID(t.OrderID), nullID(t.ReservationID), nullID(t.SupplierID),
		t.DocumentNumber, t.Notes, t.ValidatedBy, nullTime(t.ValidatedAt), nullID(t.CreatedBy),
		t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, hotelID, id uint64) (*model.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM ledger_transactions WHERE id=? AND hotel_id=?", id, hotelID))
	if err != nil {
		return nil, notFound(err, "transaction", id)
	}
	return t, nil
}

// Update writes every mutable column; the reference never changes.
func (r *TransactionRepo) Update(ctx context.Context, t *model.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_transactions SET type=?, category=?, amount=?, tx_date=?, description=?, payment_mode=?,
			status=?, order_id=?, reservation_id=?, supplier_id=?, document_number=?, notes=?, validated_by=?,
			validated_at=?, updated_at=?
		 WHERE id=? AND hotel_id=?`,
		t.Type, t.Category, t.Amount, t.Date.UTC(), t.Description, t.PaymentMode,
		t.Status, nullID(t.OrderID), nullID(t.ReservationID), nullID(t.SupplierID), t.DocumentNumber, t.Notes,
		t.ValidatedBy, nullTime(t.ValidatedAt), t.UpdatedAt.UTC(), t.ID, t.HotelID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "transaction", t.ID)
}

func (r *TransactionRepo) Delete(ctx context.Context, hotelID, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM ledger_transactions WHERE id=? AND hotel_id=?", id, hotelID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "transaction", id)
}

// transactionWhere builds the shared WHERE clause of the ledger queries.
func transactionWhere(hotelID uint64, f service.TransactionFilter) (string, []any) {
	where := []string{"hotel_id = ?"}
	args := []any{hotelID}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.From != nil {
		where = append(where, "tx_date >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "tx_date < ?")
		args = append(args, f.To.UTC())
	}
	if f.Search != "" {
		where = append(where,
			"(LOWER(reference) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ? OR LOWER(notes) LIKE ?)")
		term := like(strings.ToLower(f.Search))
		args = append(args, term, term, term, term)
	}
	return strings.Join(where, " AND "), args
}

// List returns matching entries, newest first.
func (r *TransactionRepo) List(ctx context.Context, hotelID uint64, f service.TransactionFilter) ([]model.Transaction, error) {
	cond, args := transactionWhere(hotelID, f)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM ledger_transactions WHERE "+cond+" ORDER BY tx_date DESC, id DESC",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TransactionRepo) Sum(ctx context.Context, hotelID uint64, f service.TransactionFilter) (decimal.Decimal, error) {
	cond, args := transactionWhere(hotelID, f)
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM ledger_transactions WHERE "+cond, args...).Scan(&total)
	return total, err
}

func (r *TransactionRepo) Count(ctx context.Context, hotelID uint64, f service.TransactionFilter) (int, error) {
	cond, args := transactionWhere(hotelID, f)
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledger_transactions WHERE "+cond, args...).Scan(&n)
	return n, err
}

// SumByCategory groups matching amounts by category; ordering is left to the caller.
func (r *TransactionRepo) SumByCategory(ctx context.Context, hotelID uint64, f service.TransactionFilter) ([]model.CategoryTotal, error) {
	cond, args := transactionWhere(hotelID, f)
	rows, err := r.db.QueryContext(ctx,
		"SELECT category, SUM(amount) FROM ledger_transactions WHERE "+cond+" GROUP BY category ORDER BY category",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CategoryTotal{}
	for rows.Next() {
		var ct model.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}
