package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the restaurant order state.
type OrderStatus string

const (
	OrderPending       OrderStatus = "PENDING"
	OrderInPreparation OrderStatus = "IN_PREPARATION"
	OrderReady         OrderStatus = "READY"
	OrderServed        OrderStatus = "SERVED"
	OrderPaid          OrderStatus = "PAID"
	OrderCancelled     OrderStatus = "CANCELLED"
)

var orderRank = map[OrderStatus]int{
	OrderPending:       1,
	OrderInPreparation: 2,
	OrderReady:         3,
	OrderServed:        4,
	OrderPaid:          5,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderRank[s]
	return ok || s == OrderCancelled
}

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool { return s == OrderPaid || s == OrderCancelled }

// CanMoveTo reports whether next is a forward-legal transition from s.
// Forward moves may skip intermediate states; CANCELLED is reachable from
// every non-terminal state.
func (s OrderStatus) CanMoveTo(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return orderRank[next] > orderRank[s]
}

// CustomerKind tags the customer variant of an order.
type CustomerKind string

const (
	CustomerNone        CustomerKind = "NONE"
	CustomerExternal    CustomerKind = "EXTERNAL"
	CustomerClient      CustomerKind = "CLIENT"
	CustomerReservation CustomerKind = "RESERVATION"
)

// Customer is exactly one of: nobody, an external walk-in (name and phone),
// a registered client, or an in-house reservation.
type Customer struct {
	Kind          CustomerKind `json:"kind"`
	Name          string       `json:"name,omitempty"`
	Phone         string       `json:"phone,omitempty"`
	ClientID      uint64       `json:"client_id,omitempty"`
	ReservationID uint64       `json:"reservation_id,omitempty"`
}

func NoCustomer() Customer { return Customer{Kind: CustomerNone} }

func ExternalCustomer(name, phone string) Customer {
	return Customer{Kind: CustomerExternal, Name: name, Phone: phone}
}

func ClientCustomer(id uint64) Customer { return Customer{Kind: CustomerClient, ClientID: id} }

func ReservationCustomer(id uint64) Customer {
	return Customer{Kind: CustomerReservation, ReservationID: id}
}

// Check returns a message describing why c is not a well-formed variant, or "".
func (c Customer) Check() string {
	switch c.Kind {
	case CustomerNone, "":
		if c.Name != "" || c.ClientID != 0 || c.ReservationID != 0 {
			return "customer kind NONE carries no reference"
		}
	case CustomerExternal:
		if c.Name == "" {
			return "external customer name is required"
		}
		if c.ClientID != 0 || c.ReservationID != 0 {
			return "external customer cannot reference a client or reservation"
		}
	case CustomerClient:
		if c.ClientID == 0 || c.ReservationID != 0 {
			return "client customer needs exactly a client id"
		}
	case CustomerReservation:
		if c.ReservationID == 0 || c.ClientID != 0 {
			return "reservation customer needs exactly a reservation id"
		}
	default:
		return "unknown customer kind"
	}
	return ""
}

// Order is a restaurant order. Total is the sum of line subtotals computed
// from prices snapshotted at creation time.
type Order struct {
	ID          uint64          `json:"id"`
	HotelID     uint64          `json:"hotel_id"`
	Number      string          `json:"number"`
	Customer    Customer        `json:"customer"`
	TableNumber string          `json:"table_number,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	Status      OrderStatus     `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Paid        decimal.Decimal `json:"paid"`
	ServerID    *uint64         `json:"server_id,omitempty"`
	OrderedAt   time.Time       `json:"ordered_at"`
	ServedAt    *time.Time      `json:"served_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Lines       []OrderLine     `json:"lines"`
}

// Remaining is the unpaid part of the total, never negative.
func (o Order) Remaining() decimal.Decimal {
	r := o.Total.Sub(o.Paid)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// OrderLine is one product and quantity inside an order.
type OrderLine struct {
	ID          uint64          `json:"id"`
	OrderID     uint64          `json:"order_id"`
	ProductID   uint64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Note        string          `json:"note,omitempty"`
}
