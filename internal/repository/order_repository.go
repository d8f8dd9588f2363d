package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/hotel-management/internal/model"
)

// OrderRepo reads and writes 'restaurant_orders' and their 'order_lines'.
type OrderRepo struct{ db DBTX }

const orderColumns = `id, hotel_id, number, customer_kind, customer_name, customer_phone, client_id,
	reservation_id, table_number, notes, status, total, paid, server_id, ordered_at, served_at, updated_at`

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o           model.Order
		client, res sql.NullInt64
		server      sql.NullInt64
		served      sql.NullTime
	)
	err := row.Scan(&o.ID, &o.HotelID, &o.Number, &o.Customer.Kind, &o.Customer.Name, &o.Customer.Phone,
		&client, &res, &o.TableNumber, &o.Notes, &o.Status, &o.Total, &o.Paid, &server,
		&o.OrderedAt, &served, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Customer.ClientID = uint64(client.Int64)
	o.Customer.ReservationID = uint64(res.Int64)
	o.ServerID = idPtr(server)
	o.ServedAt = timePtr(served)
	return &o, nil
}

// Create inserts the order header and its lines; IDs are written back.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO restaurant_orders (hotel_id, number, customer_kind, customer_name, customer_phone,
			client_id, reservation_id, table_number, notes, status, total, paid, server_id,
			ordered_at, served_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.HotelID, o.Number, o.Customer.Kind, o.Customer.Name, o.Customer.Phone,
		zeroNull(o.Customer.ClientID), zeroNull(o.Customer.ReservationID), o.TableNumber, o.Notes,
		o.Status, o.Total, o.Paid, nullID(o.ServerID), o.OrderedAt.UTC(), nullTime(o.ServedAt), o.UpdatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)

	for i := range o.Lines {
		l := &o.Lines[i]
		l.OrderID = o.ID
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price, subtotal, note)
			 VALUES (?,?,?,?,?,?,?)`,
			l.OrderID, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice, l.Subtotal, l.Note)
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

func (r *OrderRepo) get(ctx context.Context, hotelID, id uint64, lock string) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM restaurant_orders WHERE id=? AND hotel_id=?"+lock, id, hotelID))
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	lines, err := r.lines(ctx, []uint64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

func (r *OrderRepo) GetByID(ctx context.Context, hotelID, id uint64) (*model.Order, error) {
	return r.get(ctx, hotelID, id, "")
}

// GetForUpdate locks the order header; lines never change after creation.
func (r *OrderRepo) GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Order, error) {
	return r.get(ctx, hotelID, id, " FOR UPDATE")
}

// List returns the newest orders first, optionally filtered by status.
func (r *OrderRepo) List(ctx context.Context, hotelID uint64, status model.OrderStatus) ([]model.Order, error) {
	q := "SELECT " + orderColumns + " FROM restaurant_orders WHERE hotel_id=?"
	args := []any{hotelID}
	if status != "" {
		q += " AND status=?"
		args = append(args, status)
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY ordered_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Order{}
	var ids []uint64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
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

// UpdateState persists status, paid and served_at.
func (r *OrderRepo) UpdateState(ctx context.Context, o *model.Order) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE restaurant_orders SET status=?, paid=?, served_at=?, updated_at=? WHERE id=? AND hotel_id=?",
		o.Status, o.Paid, nullTime(o.ServedAt), o.UpdatedAt.UTC(), o.ID, o.HotelID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "order", o.ID)
}

func (r *OrderRepo) lines(ctx context.Context, orderIDs []uint64) (map[uint64][]model.OrderLine, error) {
	out := map[uint64][]model.OrderLine{}
	if len(orderIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, quantity, unit_price, subtotal, note
		 FROM order_lines WHERE order_id IN (`+placeholders(len(args))+`) ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity,
			&l.UnitPrice, &l.Subtotal, &l.Note); err != nil {
			return nil, err
		}
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}
