package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/hotel-management/internal/model"
)

// ClientRepo reads and writes 'clients'. An empty email is stored as NULL so
// the per-hotel unique key only covers clients that have one.
type ClientRepo struct{ db DBTX }

const clientColumns = `id, hotel_id, first_name, last_name, email, phone, document_type, document_number,
	nationality, address, city, country, notes, created_at, updated_at`

func scanClient(row rowScanner) (*model.Client, error) {
	var (
		c     model.Client
		email sql.NullString
	)
	err := row.Scan(&c.ID, &c.HotelID, &c.FirstName, &c.LastName, &email, &c.Phone, &c.DocumentType,
		&c.DocumentNumber, &c.Nationality, &c.Address, &c.City, &c.Country, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Email = email.String
	return &c, nil
}

func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (hotel_id, first_name, last_name, email, phone, document_type, document_number,
			nationality, address, city, country, notes, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.HotelID, c.FirstName, c.LastName, nullString(c.Email), c.Phone, c.DocumentType, c.DocumentNumber,
		c.Nationality, c.Address, c.City, c.Country, c.Notes, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *ClientRepo) GetByID(ctx context.Context, hotelID, id uint64) (*model.Client, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id=? AND hotel_id=?", id, hotelID))
	if err != nil {
		return nil, notFound(err, "client", id)
	}
	return c, nil
}

func (r *ClientRepo) ExistsByEmail(ctx context.Context, hotelID uint64, email string, excludeID uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM clients WHERE hotel_id=? AND email=? AND id<>?)",
		hotelID, email, excludeID).Scan(&ok)
	return ok, err
}

// List orders by last name; search matches name, email or phone.
func (r *ClientRepo) List(ctx context.Context, hotelID uint64, search string) ([]model.Client, error) {
	q := "SELECT " + clientColumns + " FROM clients WHERE hotel_id=?"
	args := []any{hotelID}
	if search != "" {
		q += ` AND (LOWER(CONCAT(first_name, ' ', last_name)) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR phone LIKE ?)`
		term := like(strings.ToLower(search))
		args = append(args, term, term, term)
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY last_name, first_name, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ClientRepo) Update(ctx context.Context, c *model.Client) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE clients SET first_name=?, last_name=?, email=?, phone=?, document_type=?, document_number=?,
			nationality=?, address=?, city=?, country=?, notes=?, updated_at=?
		 WHERE id=? AND hotel_id=?`,
		c.FirstName, c.LastName, nullString(c.Email), c.Phone, c.DocumentType, c.DocumentNumber,
		c.Nationality, c.Address, c.City, c.Country, c.Notes, c.UpdatedAt.UTC(), c.ID, c.HotelID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "client", c.ID)
}

func (r *ClientRepo) Delete(ctx context.Context, hotelID, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM clients WHERE id=? AND hotel_id=?", id, hotelID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "client", id)
}
