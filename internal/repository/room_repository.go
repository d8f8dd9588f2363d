package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/service"
)

// RoomRepo reads and writes 'rooms'.
type RoomRepo struct{ db DBTX }

const roomColumns = `id, hotel_id, number, type, price_per_night, capacity, floor, description, status,
	wifi, air_conditioning, tv, minibar, safe, balcony, sea_view, created_at, updated_at`

func scanRoom(row rowScanner) (*model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.ID, &rm.HotelID, &rm.Number, &rm.Type, &rm.PricePerNight, &rm.Capacity, &rm.Floor,
		&rm.Description, &rm.Status, &rm.Wifi, &rm.AirConditioning, &rm.TV, &rm.Minibar, &rm.Safe,
		&rm.Balcony, &rm.SeaView, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (hotel_id, number, type, price_per_night, capacity, floor, description, status,
			wifi, air_conditioning, tv, minibar, safe, balcony, sea_view, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rm.HotelID, rm.Number, rm.Type, rm.PricePerNight, rm.Capacity, rm.Floor, rm.Description, rm.Status,
		rm.Wifi, rm.AirConditioning, rm.TV, rm.Minibar, rm.Safe, rm.Balcony, rm.SeaView,
		rm.CreatedAt.UTC(), rm.UpdatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	return nil
}

func (r *RoomRepo) get(ctx context.Context, hotelID, id uint64, lock string) (*model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE id=? AND hotel_id=?"+lock, id, hotelID))
	if err != nil {
		return nil, notFound(err, "room", id)
	}
	return rm, nil
}

func (r *RoomRepo) GetByID(ctx context.Context, hotelID, id uint64) (*model.Room, error) {
	return r.get(ctx, hotelID, id, "")
}

// GetForUpdate locks the room row; bookings of one room serialise on it.
func (r *RoomRepo) GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Room, error) {
	return r.get(ctx, hotelID, id, " FOR UPDATE")
}

func (r *RoomRepo) ExistsByNumber(ctx context.Context, hotelID uint64, number string, excludeID uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM rooms WHERE hotel_id=? AND number=? AND id<>?)",
		hotelID, number, excludeID).Scan(&ok)
	return ok, err
}

func (r *RoomRepo) List(ctx context.Context, hotelID uint64, f service.RoomFilter) ([]model.Room, error) {
	where := []string{"hotel_id = ?"}
	args := []any{hotelID}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.MinCapacity > 0 {
		where = append(where, "capacity >= ?")
		args = append(args, f.MinCapacity)
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE "+strings.Join(where, " AND ")+" ORDER BY number", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET number=?, type=?, price_per_night=?, capacity=?, floor=?, description=?, status=?,
			wifi=?, air_conditioning=?, tv=?, minibar=?, safe=?, balcony=?, sea_view=?, updated_at=?
		 WHERE id=? AND hotel_id=?`,
		rm.Number, rm.Type, rm.PricePerNight, rm.Capacity, rm.Floor, rm.Description, rm.Status,
		rm.Wifi, rm.AirConditioning, rm.TV, rm.Minibar, rm.Safe, rm.Balcony, rm.SeaView, rm.UpdatedAt.UTC(),
		rm.ID, rm.HotelID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "room", rm.ID)
}

func (r *RoomRepo) Delete(ctx context.Context, hotelID, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id=? AND hotel_id=?", id, hotelID)
	if err != nil {
		return translate(err)
	}
	return affected(res, "room", id)
}
