package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hotel-management/internal/apperr"
)

// MySQL server error numbers the repos react to.
const (
	errDuplicateKey    = 1062
	errRowIsReferenced = 1451
)

// notFound maps sql.ErrNoRows to a NotFound error for entity id; every other
// error goes through translate.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity, id)
	}
	return translate(err)
}

// translate turns constraint violations into Conflict errors so handlers
// answer 409 instead of 500.
func translate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case errDuplicateKey:
		return apperr.New(apperr.ErrConflict, "duplicate entry: %s", me.Message)
	case errRowIsReferenced:
		return apperr.New(apperr.ErrConflict, "row is still referenced by other records")
	}
	return err
}

// affected returns NotFound when a write matched no row.
func affected(res sql.Result, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}

func zeroNull(id uint64) any {
	if id == 0 {
		return nil
	}
	return id
}

func idPtr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	id := uint64(n.Int64)
	return &id
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// day formats a calendar date for DATE columns.
func day(t time.Time) string { return t.Format("2006-01-02") }

// like wraps a search term for a LIKE pattern.
func like(s string) string { return "%" + s + "%" }

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	b := make([]byte, 0, 2*n-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
