// Package repository implements the service ports on MySQL with plain
// database/sql. Every repo runs against a DBTX so the same queries serve
// autocommit reads and the statements of a Store.Tx.
package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/hotel-management/internal/service"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct{ db DBTX }

func (q queries) Hotels() service.HotelRepository             { return &HotelRepo{db: q.db} }
func (q queries) Users() service.UserRepository               { return &UserRepo{db: q.db} }
func (q queries) Tokens() service.TokenRepository             { return &TokenRepo{db: q.db} }
func (q queries) Products() service.ProductRepository         { return &ProductRepo{db: q.db} }
func (q queries) Movements() service.MovementRepository       { return &MovementRepo{db: q.db} }
func (q queries) Orders() service.OrderRepository             { return &OrderRepo{db: q.db} }
func (q queries) Clients() service.ClientRepository           { return &ClientRepo{db: q.db} }
func (q queries) Rooms() service.RoomRepository               { return &RoomRepo{db: q.db} }
func (q queries) Reservations() service.ReservationRepository { return &ReservationRepo{db: q.db} }
func (q queries) Transactions() service.TransactionRepository { return &TransactionRepo{db: q.db} }
func (q queries) Invoices() service.InvoiceRepository         { return &InvoiceRepo{db: q.db} }
func (q queries) Sequences() service.SequenceRepository       { return &SequenceRepo{db: q.db} }

// Store is the MySQL implementation of service.Store.
type Store struct {
	queries
	conn *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{queries: queries{db: db}, conn: db}
}

// Tx runs fn inside one database transaction. It commits when fn returns
// nil and rolls back on any error.
func (s *Store) Tx(ctx context.Context, fn func(service.Repos) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate(err)
	}
	committed = true
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

var _ service.Store = (*Store)(nil)
