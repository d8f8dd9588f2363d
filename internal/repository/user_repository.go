package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/hotel-management/internal/model"
)

// UserRepo reads and writes 'users' and their 'user_roles'.
type UserRepo struct{ db DBTX }

const userColumns = `id, hotel_id, username, email, password_hash, first_name, last_name, phone,
	is_active, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.HotelID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.Phone, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts u and returns its ID in u.ID. Roles are written by SetRoles.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (hotel_id, username, email, password_hash, first_name, last_name, phone,
			is_active, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		u.HotelID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone,
		u.Active, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByID fetches a user and its roles. hotelID 0 skips the tenant filter.
func (r *UserRepo) GetByID(ctx context.Context, hotelID, id uint64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND (?=0 OR hotel_id=?) LIMIT 1",
		id, hotelID, hotelID))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	if u.Roles, err = r.roles(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	if u.Roles, err = r.roles(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email=? AND id<>?)", email, excludeID).Scan(&ok)
	return ok, err
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string, excludeID uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username=? AND id<>?)", username, excludeID).Scan(&ok)
	return ok, err
}

// ListByHotel returns the hotel's users ordered by username, roles included.
func (r *UserRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE hotel_id=? ORDER BY username", hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	index := map[uint64]int{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		index[u.ID] = len(out)
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	roleRows, err := r.db.QueryContext(ctx,
		`SELECT ur.user_id, ur.role_name FROM user_roles ur
		 JOIN users u ON u.id = ur.user_id
		 WHERE u.hotel_id=? ORDER BY ur.role_name`, hotelID)
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var (
			userID uint64
			role   string
		)
		if err := roleRows.Scan(&userID, &role); err != nil {
			return nil, err
		}
		if i, ok := index[userID]; ok {
			out[i].Roles = append(out[i].Roles, role)
		}
	}
	return out, roleRows.Err()
}

// Update writes the profile, password hash and active flag of u.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET username=?, email=?, password_hash=?, first_name=?, last_name=?, phone=?,
			is_active=?, updated_at=?
		 WHERE id=? AND hotel_id=?`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone,
		u.Active, u.UpdatedAt.UTC(), u.ID, u.HotelID)
	return translate(err)
}

// SetRoles replaces the role rows of userID.
func (r *UserRepo) SetRoles(ctx context.Context, userID uint64, roles []string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id=?", userID); err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}
	values := make([]string, 0, len(roles))
	args := make([]any, 0, 2*len(roles))
	for _, role := range roles {
		values = append(values, "(?, ?)")
		args = append(args, userID, role)
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_name) VALUES "+strings.Join(values, ","), args...)
	return translate(err)
}

func (r *UserRepo) roles(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT role_name FROM user_roles WHERE user_id=? ORDER BY role_name", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
