package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/metrics"
	"github.com/iliyamo/hotel-management/internal/model"
)

// StockService is the stock ledger: the only writer of product quantities.
type StockService struct {
	store Store
}

func NewStockService(store Store) *StockService { return &StockService{store: store} }

// Adjustment describes one stock change request.
type Adjustment struct {
	ProductID uint64
	Quantity  decimal.Decimal
	Kind      model.MovementKind
	Reason    string
	ActorID   *uint64
}

// AdjustStock applies adj in its own transaction with the product row locked.
func (s *StockService) AdjustStock(ctx context.Context, p auth.Principal, adj Adjustment) (*model.Product, error) {
	if err := p.Require(auth.UpdateStock); err != nil {
		return nil, err
	}
	if adj.ActorID == nil {
		adj.ActorID = p.ActorID()
	}
	var out *model.Product
	err := s.store.Tx(ctx, func(r Repos) error {
		prod, err := r.Products().GetForUpdate(ctx, p.HotelID, adj.ProductID)
		if err != nil {
			return err
		}
		out, err = applyAdjustment(ctx, r, prod, adj)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// applyAdjustment mutates a product already locked by the caller's
// transaction and appends the movement row. Order creation and cancellation
// reuse it so that stock and order rows commit together.
func applyAdjustment(ctx context.Context, r Repos, prod *model.Product, adj Adjustment) (*model.Product, error) {
	ctx, span := tracer.Start(ctx, "stock.adjust")
	span.SetAttributes(
		hotelAttr(prod.HotelID),
		attribute.Int64("product.id", int64(prod.ID)),
		attribute.String("stock.kind", string(adj.Kind)),
		attribute.String("stock.quantity", adj.Quantity.String()),
	)
	var err error
	defer func() { endSpan(span, err) }()

	if !adj.Kind.Valid() {
		err = apperr.Invalid("kind", fmt.Sprintf("unknown movement kind %q", adj.Kind))
		return nil, err
	}
	if adj.Quantity.IsNegative() {
		err = apperr.New(apperr.ErrInvalidQuantity, "quantity must not be negative")
		return nil, err
	}
	if !fitsScale(adj.Quantity, quantityPlaces) {
		err = apperr.New(apperr.ErrInvalidQuantity, "quantity %s has more than %d decimals", adj.Quantity, quantityPlaces)
		return nil, err
	}

	before := prod.Stock
	switch adj.Kind {
	case model.MovementIn, model.MovementReturn:
		prod.Stock = prod.Stock.Add(adj.Quantity)
	case model.MovementOut:
		if prod.Stock.LessThan(adj.Quantity) {
			err = apperr.New(apperr.ErrInsufficientStock,
				"insufficient stock for %s: available %s, requested %s", prod.Name, prod.Stock, adj.Quantity)
			return nil, err
		}
		prod.Stock = prod.Stock.Sub(adj.Quantity)
	case model.MovementSet:
		prod.Stock = adj.Quantity
	}
	prod.Available = prod.Stock.IsPositive()

	if err = r.Products().Update(ctx, prod); err != nil {
		return nil, err
	}
	mv := &model.StockMovement{
		HotelID:     prod.HotelID,
		ProductID:   prod.ID,
		Kind:        adj.Kind,
		Quantity:    adj.Quantity,
		StockBefore: before,
		StockAfter:  prod.Stock,
		Reason:      adj.Reason,
		ActorID:     adj.ActorID,
		CreatedAt:   now(),
	}
	if err = r.Movements().Append(ctx, mv); err != nil {
		return nil, err
	}
	metrics.StockMovements.WithLabelValues(string(adj.Kind)).Inc()
	logger.FromContext(ctx).Debug("stock adjusted",
		zap.Uint64("product_id", prod.ID),
		zap.String("kind", string(adj.Kind)),
		zap.String("before", before.String()),
		zap.String("after", prod.Stock.String()))
	return prod, nil
}

// Movements lists the movement history of the hotel, or of one product when
// productID is not zero.
func (s *StockService) Movements(ctx context.Context, p auth.Principal, productID uint64, limit int) ([]model.StockMovement, error) {
	if err := p.Require(auth.ViewStock); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if productID != 0 {
		if _, err := s.store.Products().GetByID(ctx, p.HotelID, productID); err != nil {
			return nil, err
		}
	}
	return s.store.Movements().List(ctx, p.HotelID, productID, limit)
}

// LowStock lists products whose stock is at or below their alert threshold.
func (s *StockService) LowStock(ctx context.Context, p auth.Principal) ([]model.Product, error) {
	if err := p.Require(auth.ViewStock); err != nil {
		return nil, err
	}
	return s.store.Products().List(ctx, p.HotelID, ProductFilter{LowStockOnly: true})
}
