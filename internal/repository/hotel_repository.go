package repository

import (
	"context"

	"github.com/iliyamo/hotel-management/internal/model"
)

// HotelRepo reads and writes the 'hotels' table.
type HotelRepo struct{ db DBTX }

const hotelColumns = `id, name, email, password_hash, phone, address, city, country, tax_number,
	is_active, subscription_end, created_at, updated_at`

func scanHotel(row rowScanner) (*model.Hotel, error) {
	var h model.Hotel
	err := row.Scan(&h.ID, &h.Name, &h.Email, &h.PasswordHash, &h.Phone, &h.Address, &h.City,
		&h.Country, &h.TaxNumber, &h.Active, &h.SubscriptionEnd, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts h and sets its ID.
func (r *HotelRepo) Create(ctx context.Context, h *model.Hotel) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO hotels (name, email, password_hash, phone, address, city, country, tax_number,
			is_active, subscription_end, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		h.Name, h.Email, h.PasswordHash, h.Phone, h.Address, h.City, h.Country, h.TaxNumber,
		h.Active, h.SubscriptionEnd.UTC(), h.CreatedAt.UTC(), h.UpdatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (*model.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx,
		"SELECT "+hotelColumns+" FROM hotels WHERE id=? LIMIT 1", id))
	if err != nil {
		return nil, notFound(err, "hotel", id)
	}
	return h, nil
}

// GetByEmail expects an already normalized email.
func (r *HotelRepo) GetByEmail(ctx context.Context, email string) (*model.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx,
		"SELECT "+hotelColumns+" FROM hotels WHERE email=? LIMIT 1", email))
	if err != nil {
		return nil, notFound(err, "hotel", email)
	}
	return h, nil
}

func (r *HotelRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM hotels WHERE email=?)", email).Scan(&ok)
	return ok, err
}

func (r *HotelRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM hotels WHERE name=?)", name).Scan(&ok)
	return ok, err
}

func (r *HotelRepo) Update(ctx context.Context, h *model.Hotel) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE hotels SET name=?, password_hash=?, phone=?, address=?, city=?, country=?, tax_number=?,
			is_active=?, subscription_end=?, updated_at=?
		 WHERE id=?`,
		h.Name, h.PasswordHash, h.Phone, h.Address, h.City, h.Country, h.TaxNumber,
		h.Active, h.SubscriptionEnd.UTC(), h.UpdatedAt.UTC(), h.ID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "hotel", h.ID)
}
