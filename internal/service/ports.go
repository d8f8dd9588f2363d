package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/model"
)

// Store is the persistence boundary of the use cases. Reads may go through
// the embedded Repos directly; every mutation runs inside Tx, which commits
// when fn returns nil and rolls back otherwise. Row locks taken through the
// ...ForUpdate methods are held until Tx returns.
type Store interface {
	Repos
	Tx(ctx context.Context, fn func(Repos) error) error
}

// Repos groups the repositories bound to one connection or transaction.
type Repos interface {
	Hotels() HotelRepository
	Users() UserRepository
	Tokens() TokenRepository
	Products() ProductRepository
	Movements() MovementRepository
	Orders() OrderRepository
	Clients() ClientRepository
	Rooms() RoomRepository
	Reservations() ReservationRepository
	Transactions() TransactionRepository
	Invoices() InvoiceRepository
	Sequences() SequenceRepository
}

type HotelRepository interface {
	Create(ctx context.Context, h *model.Hotel) error
	GetByID(ctx context.Context, id uint64) (*model.Hotel, error)
	GetByEmail(ctx context.Context, email string) (*model.Hotel, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, h *model.Hotel) error
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user with roles; hotelID 0 skips the tenant filter and
	// is reserved for token refresh.
	GetByID(ctx context.Context, hotelID, id uint64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uint64) (bool, error)
	ExistsByUsername(ctx context.Context, username string, excludeID uint64) (bool, error)
	ListByHotel(ctx context.Context, hotelID uint64) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	SetRoles(ctx context.Context, userID uint64, roles []string) error
}

type TokenRepository interface {
	StoreRefresh(ctx context.Context, accountType string, accountID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (accountType string, accountID uint64, err error)
	// RevokeByHash reports whether it revoked a live token. Of concurrent
	// calls with one hash, at most one sees true.
	RevokeByHash(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllFor(ctx context.Context, accountType string, accountID uint64) error
}

// ProductFilter narrows product listings; zero values mean "any".
type ProductFilter struct {
	Category      model.ProductCategory
	AvailableOnly bool
	LowStockOnly  bool
	Search        string
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, hotelID, id uint64) (*model.Product, error)
	GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Product, error)
	ExistsByCode(ctx context.Context, hotelID uint64, code string, excludeID uint64) (bool, error)
	List(ctx context.Context, hotelID uint64, f ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, hotelID, id uint64) error
}

type MovementRepository interface {
	Append(ctx context.Context, m *model.StockMovement) error
	// List returns the newest movements first; productID 0 means every product.
	List(ctx context.Context, hotelID, productID uint64, limit int) ([]model.StockMovement, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, hotelID, id uint64) (*model.Order, error)
	GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Order, error)
	List(ctx context.Context, hotelID uint64, status model.OrderStatus) ([]model.Order, error)
	// UpdateState persists status, paid and served_at.
	UpdateState(ctx context.Context, o *model.Order) error
}

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	GetByID(ctx context.Context, hotelID, id uint64) (*model.Client, error)
	ExistsByEmail(ctx context.Context, hotelID uint64, email string, excludeID uint64) (bool, error)
	List(ctx context.Context, hotelID uint64, search string) ([]model.Client, error)
	Update(ctx context.Context, c *model.Client) error
	Delete(ctx context.Context, hotelID, id uint64) error
}

// RoomFilter narrows room listings; zero values mean "any".
type RoomFilter struct {
	Status      model.RoomStatus
	Type        model.RoomType
	MinCapacity int
}

type RoomRepository interface {
	Create(ctx context.Context, r *model.Room) error
	GetByID(ctx context.Context, hotelID, id uint64) (*model.Room, error)
	GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Room, error)
	ExistsByNumber(ctx context.Context, hotelID uint64, number string, excludeID uint64) (bool, error)
	List(ctx context.Context, hotelID uint64, f RoomFilter) ([]model.Room, error)
	Update(ctx context.Context, r *model.Room) error
	Delete(ctx context.Context, hotelID, id uint64) error
}

// ReservationFilter narrows reservation listings; zero values mean "any".
type ReservationFilter struct {
	Status      model.ReservationStatus
	RoomID      uint64
	ClientID    uint64
	ArrivalOn   *time.Time
	DepartureOn *time.Time
	ArrivalFrom *time.Time
	Search      string
}

type ReservationRepository interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, hotelID, id uint64) (*model.Reservation, error)
	GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Reservation, error)
	Update(ctx context.Context, r *model.Reservation) error
	List(ctx context.Context, hotelID uint64, f ReservationFilter) ([]model.Reservation, error)
	// HasOverlap reports a blocking reservation on roomID whose stay meets
	// [arrival, departure] under the inclusive test.
	HasOverlap(ctx context.Context, roomID uint64, arrival, departure time.Time, excludeID uint64) (bool, error)
	// BusyRoomIDs lists rooms of hotelID with a blocking reservation meeting the period.
	BusyRoomIDs(ctx context.Context, hotelID uint64, arrival, departure time.Time) ([]uint64, error)
	CountActiveByRoom(ctx context.Context, roomID uint64) (int, error)
	CountByClient(ctx context.Context, clientID uint64) (int, error)
}

// TransactionFilter narrows ledger queries; zero values mean "any".
// From is inclusive, To exclusive.
type TransactionFilter struct {
	Type     model.TransactionType
	Status   model.TransactionStatus
	Category string
	From     *time.Time
	To       *time.Time
	Search   string
}

type TransactionRepository interface {
	Create(ctx context.Context, t *model.Transaction) error
	GetByID(ctx context.Context, hotelID, id uint64) (*model.Transaction, error)
	Update(ctx context.Context, t *model.Transaction) error
	Delete(ctx context.Context, hotelID, id uint64) error
	List(ctx context.Context, hotelID uint64, f TransactionFilter) ([]model.Transaction, error)
	Sum(ctx context.Context, hotelID uint64, f TransactionFilter) (decimal.Decimal, error)
	Count(ctx context.Context, hotelID uint64, f TransactionFilter) (int, error)
	SumByCategory(ctx context.Context, hotelID uint64, f TransactionFilter) ([]model.CategoryTotal, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *model.Invoice) error
	GetByID(ctx context.Context, hotelID, id uint64) (*model.Invoice, error)
	GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Invoice, error)
	List(ctx context.Context, hotelID uint64, status model.InvoiceStatus) ([]model.Invoice, error)
	// UpdateState persists status, paid and notes.
	UpdateState(ctx context.Context, inv *model.Invoice) error
}

// SequenceRepository hands out gap-tolerant, strictly increasing numbers per
// (hotel, name, year).
type SequenceRepository interface {
	Next(ctx context.Context, hotelID uint64, name string, year int) (int64, error)
}
