package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/service"
)

// ProductRepo reads and writes 'products'.
type ProductRepo struct{ db DBTX }

const productColumns = `id, hotel_id, name, code, description, unit, stock, alert_threshold,
	unit_price, category, is_available, created_at, updated_at`

func scanProduct(row rowScanner) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.HotelID, &p.Name, &p.Code, &p.Description, &p.Unit, &p.Stock,
		&p.AlertThreshold, &p.UnitPrice, &p.Category, &p.Available, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (hotel_id, name, code, description, unit, stock, alert_threshold,
			unit_price, category, is_available, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.HotelID, p.Name, p.Code, p.Description, p.Unit, p.Stock, p.AlertThreshold,
		p.UnitPrice, p.Category, p.Available, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *ProductRepo) get(ctx context.Context, hotelID, id uint64, lock string) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? AND hotel_id=?"+lock, id, hotelID))
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return p, nil
}

func (r *ProductRepo) GetByID(ctx context.Context, hotelID, id uint64) (*model.Product, error) {
	return r.get(ctx, hotelID, id, "")
}

// GetForUpdate locks the product row until the surrounding transaction ends.
func (r *ProductRepo) GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Product, error) {
	return r.get(ctx, hotelID, id, " FOR UPDATE")
}

func (r *ProductRepo) ExistsByCode(ctx context.Context, hotelID uint64, code string, excludeID uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE hotel_id=? AND code=? AND id<>?)",
		hotelID, code, excludeID).Scan(&ok)
	return ok, err
}

// List applies f and orders by name.
func (r *ProductRepo) List(ctx context.Context, hotelID uint64, f service.ProductFilter) ([]model.Product, error) {
	where := []string{"hotel_id = ?"}
	args := []any{hotelID}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.AvailableOnly {
		where = append(where, "is_available = 1")
	}
	if f.LowStockOnly {
		where = append(where, "stock <= alert_threshold")
	}
	if f.Search != "" {
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(code) LIKE ?)")
		term := like(strings.ToLower(f.Search))
		args = append(args, term, term)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE "+strings.Join(where, " AND ")+" ORDER BY name, id",
		args...)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func collectProducts(rows *sql.Rows) ([]model.Product, error) {
	defer rows.Close()
	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Update writes every mutable column, stock and availability included.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name=?, code=?, description=?, unit=?, stock=?, alert_threshold=?,
			unit_price=?, category=?, is_available=?, updated_at=?
		 WHERE id=? AND hotel_id=?`,
		p.Name, p.Code, p.Description, p.Unit, p.Stock, p.AlertThreshold,
		p.UnitPrice, p.Category, p.Available, p.UpdatedAt.UTC(), p.ID, p.HotelID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "product", p.ID)
}

// Delete removes a product. Products referenced by order lines answer Conflict.
func (r *ProductRepo) Delete(ctx context.Context, hotelID, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id=? AND hotel_id=?", id, hotelID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "product", id)
}

// MovementRepo appends to and reads 'stock_movements'.
type MovementRepo struct{ db DBTX }

func (r *MovementRepo) Append(ctx context.Context, m *model.StockMovement) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO stock_movements (hotel_id, product_id, kind, quantity, stock_before, stock_after,
			reason, actor_id, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		m.HotelID, m.ProductID, m.Kind, m.Quantity, m.StockBefore, m.StockAfter,
		m.Reason, nullID(m.ActorID), m.CreatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// List returns the newest movements first; productID 0 lists every product
// and limit <= 0 means no limit.
func (r *MovementRepo) List(ctx context.Context, hotelID, productID uint64, limit int) ([]model.StockMovement, error) {
	q := `SELECT id, hotel_id, product_id, kind, quantity, stock_before, stock_after, reason, actor_id, created_at
		FROM stock_movements WHERE hotel_id = ?`
	args := []any{hotelID}
	if productID != 0 {
		q += " AND product_id = ?"
		args = append(args, productID)
	}
	q += " ORDER BY id DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.StockMovement{}
	for rows.Next() {
		var (
			m     model.StockMovement
			actor sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.HotelID, &m.ProductID, &m.Kind, &m.Quantity, &m.StockBefore,
			&m.StockAfter, &m.Reason, &actor, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.ActorID = idPtr(actor)
		out = append(out, m)
	}
	return out, rows.Err()
}
