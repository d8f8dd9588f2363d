package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCategory buckets a product into a restaurant menu section.
type ProductCategory string

const (
	CategoryDrink   ProductCategory = "DRINK"
	CategoryStarter ProductCategory = "STARTER"
	CategoryMain    ProductCategory = "MAIN"
	CategoryDessert ProductCategory = "DESSERT"
	CategoryOther   ProductCategory = "OTHER"
)

// MenuCategories is the display order of the restaurant menu.
var MenuCategories = []ProductCategory{CategoryStarter, CategoryMain, CategoryDessert, CategoryDrink, CategoryOther}

func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryDrink, CategoryStarter, CategoryMain, CategoryDessert, CategoryOther:
		return true
	}
	return false
}

// Product is a stock item. Stock only changes through the stock ledger, which
// keeps Available == Stock > 0 after every adjustment.
type Product struct {
	ID             uint64          `json:"id"`
	HotelID        uint64          `json:"hotel_id"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Description    string          `json:"description"`
	Unit           string          `json:"unit"`
	Stock          decimal.Decimal `json:"stock"`
	AlertThreshold decimal.Decimal `json:"alert_threshold"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Category       ProductCategory `json:"category"`
	Available      bool            `json:"available"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LowStock reports whether stock reached the alert threshold.
func (p Product) LowStock() bool {
	return p.Stock.LessThanOrEqual(p.AlertThreshold)
}

// MovementKind is the kind of a stock adjustment.
type MovementKind string

const (
	MovementIn     MovementKind = "IN"
	MovementOut    MovementKind = "OUT"
	MovementSet    MovementKind = "SET"
	MovementReturn MovementKind = "RETURN"
)

func (k MovementKind) Valid() bool {
	switch k {
	case MovementIn, MovementOut, MovementSet, MovementReturn:
		return true
	}
	return false
}

// StockMovement is the append-only audit row written by every adjustment.
// Quantity is the caller's input (the target value for SET); StockBefore and
// StockAfter make the delta reconstructible for every kind.
type StockMovement struct {
	ID          uint64          `json:"id"`
	HotelID     uint64          `json:"hotel_id"`
	ProductID   uint64          `json:"product_id"`
	Kind        MovementKind    `json:"kind"`
	Quantity    decimal.Decimal `json:"quantity"`
	StockBefore decimal.Decimal `json:"stock_before"`
	StockAfter  decimal.Decimal `json:"stock_after"`
	Reason      string          `json:"reason"`
	ActorID     *uint64         `json:"actor_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Delta is the signed change applied to stock.
func (m StockMovement) Delta() decimal.Decimal {
	return m.StockAfter.Sub(m.StockBefore)
}
