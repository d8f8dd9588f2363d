package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/service"
)

// ReservationRepo provides CRUD and conflict queries on 'reservations'.
// Arrival and departure are DATE columns holding calendar days.
type ReservationRepo struct{ db DBTX }

const reservationColumns = `id, hotel_id, number, room_id, client_id, arrival, departure, nights, adults,
	children, price_per_night, total, paid, status, payment_status, payment_mode, notes, special_requests,
	external_ref, created_by, checked_in_at, checked_in_by, checked_out_at, checked_out_by, created_at, updated_at`

// nonBlocking lists the statuses that free the room; kept in one place for
// every conflict query.
const nonBlocking = "status NOT IN (?,?,?)"

func nonBlockingArgs() []any {
	return []any{model.ReservationCancelled, model.ReservationCompleted, model.ReservationNoShow}
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res                    model.Reservation
		createdBy, inBy, outBy sql.NullInt64
		checkedIn, checkedOut  sql.NullTime
	)
	err := row.Scan(&res.ID, &res.HotelID, &res.Number, &res.RoomID, &res.ClientID, &res.Arrival,
		&res.Departure, &res.Nights, &res.Adults, &res.Children, &res.PricePerNight, &res.Total, &res.Paid,
		&res.Status, &res.PaymentStatus, &res.PaymentMode, &res.Notes, &res.SpecialRequests, &res.ExternalRef,
		&createdBy, &checkedIn, &inBy, &checkedOut, &outBy, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	res.CreatedBy = idPtr(createdBy)
	res.CheckedInAt = timePtr(checkedIn)
	res.CheckedInBy = idPtr(inBy)
	res.CheckedOutAt = timePtr(checkedOut)
	res.CheckedOutBy = idPtr(outBy)
	return &res, nil
}

func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	out, err := r.db.ExecContext(ctx,
		`INSERT INTO reservations (hotel_id, number, room_id, client_id, arrival, departure, nights, adults,
			children, price_per_night, total, paid, status, payment_status, payment_mode, notes, special_requests,
			external_ref, created_by, checked_in_at, checked_in_by, checked_out_at, checked_out_by, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.HotelID, res.Number, res.RoomID, res.ClientID, day(res.Arrival), day(res.Departure), res.Nights,
		res.Adults, res.Children, res.PricePerNight, res.Total, res.Paid, res.Status, res.PaymentStatus,
		res.PaymentMode, res.Notes, res.SpecialRequests, res.ExternalRef, nullID(res.CreatedBy),
		nullTime(res.CheckedInAt), nullID(res.CheckedInBy), nullTime(res.CheckedOutAt), nullID(res.CheckedOutBy),
		res.CreatedAt.UTC(), res.UpdatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

func (r *ReservationRepo) get(ctx context.Context, hotelID, id uint64, lock string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=? AND hotel_id=?"+lock, id, hotelID))
	if err != nil {
		return nil, notFound(err, "reservation", id)
	}
	return res, nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, hotelID, id uint64) (*model.Reservation, error) {
	return r.get(ctx, hotelID, id, "")
}

func (r *ReservationRepo) GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Reservation, error) {
	return r.get(ctx, hotelID, id, " FOR UPDATE")
}

// Update writes every mutable column of res.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	out, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET room_id=?, client_id=?, arrival=?, departure=?, nights=?, adults=?, children=?,
			price_per_night=?, total=?, paid=?, status=?, payment_status=?, payment_mode=?, notes=?,
			special_requests=?, external_ref=?, checked_in_at=?, checked_in_by=?, checked_out_at=?,
			checked_out_by=?, updated_at=?
		 WHERE id=? AND hotel_id=?`,
		res.RoomID, res.ClientID, day(res.Arrival), day(res.Departure), res.Nights, res.Adults, res.Children,
		res.PricePerNight, res.Total, res.Paid, res.Status, res.PaymentStatus, res.PaymentMode, res.Notes,
		res.SpecialRequests, res.ExternalRef, nullTime(res.CheckedInAt), nullID(res.CheckedInBy),
		nullTime(res.CheckedOutAt), nullID(res.CheckedOutBy), res.UpdatedAt.UTC(), res.ID, res.HotelID)
	if err != nil {
		return translate(err)
	}
	return affected(out, "reservation", res.ID)
}

// List applies f and orders by arrival.
func (r *ReservationRepo) List(ctx context.Context, hotelID uint64, f service.ReservationFilter) ([]model.Reservation, error) {
	where := []string{"hotel_id = ?"}
	args := []any{hotelID}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.RoomID != 0 {
		where = append(where, "room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.ClientID != 0 {
		where = append(where, "client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.ArrivalOn != nil {
		where = append(where, "arrival = ?")
		args = append(args, day(*f.ArrivalOn))
	}
	if f.DepartureOn != nil {
		where = append(where, "departure = ?")
		args = append(args, day(*f.DepartureOn))
	}
	if f.ArrivalFrom != nil {
		where = append(where, "arrival >= ?")
		args = append(args, day(*f.ArrivalFrom))
	}
	if f.Search != "" {
		where = append(where, "(LOWER(number) LIKE ? OR LOWER(external_ref) LIKE ?)")
		term := like(strings.ToLower(f.Search))
		args = append(args, term, term)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE "+strings.Join(where, " AND ")+" ORDER BY arrival, id",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// HasOverlap runs the inclusive test: an existing stay conflicts when it
// starts on or before the new departure and ends on or after the new arrival.
func (r *ReservationRepo) HasOverlap(ctx context.Context, roomID uint64, arrival, departure time.Time, excludeID uint64) (bool, error) {
	args := append([]any{roomID, excludeID}, nonBlockingArgs()...)
	args = append(args, day(departure), day(arrival))
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reservations
		 WHERE room_id=? AND id<>? AND `+nonBlocking+` AND arrival <= ? AND departure >= ?)`,
		args...).Scan(&ok)
	return ok, err
}

func (r *ReservationRepo) BusyRoomIDs(ctx context.Context, hotelID uint64, arrival, departure time.Time) ([]uint64, error) {
	args := append([]any{hotelID}, nonBlockingArgs()...)
	args = append(args, day(departure), day(arrival))
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT room_id FROM reservations
		 WHERE hotel_id=? AND `+nonBlocking+` AND arrival <= ? AND departure >= ?`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *ReservationRepo) CountActiveByRoom(ctx context.Context, roomID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE room_id=? AND "+nonBlocking,
		append([]any{roomID}, nonBlockingArgs()...)...).Scan(&n)
	return n, err
}

func (r *ReservationRepo) CountByClient(ctx context.Context, clientID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations WHERE client_id=?", clientID).Scan(&n)
	return n, err
}
