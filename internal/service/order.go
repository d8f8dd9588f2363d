package service

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/metrics"
	"github.com/iliyamo/hotel-management/internal/model"
)

// OrderService runs the restaurant order pipeline: order, product stock and,
// on settlement, the ledger.
type OrderService struct {
	store  Store
	ledger *LedgerRecorder
}

func NewOrderService(store Store, ledger *LedgerRecorder) *OrderService {
	return &OrderService{store: store, ledger: ledger}
}

// OrderLineInput is one requested product.
type OrderLineInput struct {
	ProductID uint64
	Quantity  int
	Note      string
}

// CreateOrderInput is the body of a new order.
type CreateOrderInput struct {
	Customer    model.Customer
	TableNumber string
	Notes       string
	Lines       []OrderLineInput
}

// CreateOrder validates the lines, takes the stock out and persists the
// order as PENDING. All of it happens in one transaction: a failing line
// leaves neither an order nor a stock change behind.
func (s *OrderService) CreateOrder(ctx context.Context, p auth.Principal, in CreateOrderInput) (_ *model.Order, err error) {
	if err := p.Require(auth.CreateOrder); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "order.create")
	span.SetAttributes(hotelAttr(p.HotelID), attribute.Int("order.lines", len(in.Lines)))
	defer func() { endSpan(span, err) }()

	if len(in.Lines) == 0 {
		return nil, apperr.Invalid("lines", "at least one product required")
	}
	var fields apperr.Fields
	for _, l := range in.Lines {
		fields.Add(l.ProductID == 0, "lines", "every line needs a product")
		fields.Add(l.Quantity < 1, "lines", "line quantity must be at least 1")
	}
	if in.Customer.Kind == "" {
		in.Customer.Kind = model.CustomerNone
	}
	if msg := in.Customer.Check(); msg != "" {
		fields.Add(true, "customer", msg)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	order := &model.Order{
		HotelID:     p.HotelID,
		Number:      documentNumber(orderPrefix),
		Customer:    in.Customer,
		TableNumber: strings.TrimSpace(in.TableNumber),
		Notes:       in.Notes,
		Status:      model.OrderPending,
		Total:       decimal.Zero,
		Paid:        decimal.Zero,
		ServerID:    p.ActorID(),
		OrderedAt:   now(),
	}
	order.UpdatedAt = order.OrderedAt

	err = s.store.Tx(ctx, func(r Repos) error {
		if err := resolveCustomer(ctx, r, p.HotelID, &order.Customer); err != nil {
			return err
		}

		products, err := lockProducts(ctx, r, p.HotelID, in.Lines)
		if err != nil {
			return err
		}

		reason := "Restaurant order " + order.Number
		for _, l := range in.Lines {
			prod := products[l.ProductID]
			if !prod.Available {
				return apperr.New(apperr.ErrProductUnavailable, "product %s is not available", prod.Name)
			}
			qty := decimal.NewFromInt(int64(l.Quantity))
			if prod.Stock.LessThan(qty) {
				return apperr.New(apperr.ErrInsufficientStock,
					"insufficient stock for %s: available %s, requested %s", prod.Name, prod.Stock, qty)
			}
			line := model.OrderLine{
				ProductID:   prod.ID,
				ProductName: prod.Name,
				Quantity:    l.Quantity,
				UnitPrice:   prod.UnitPrice,
				Subtotal:    prod.UnitPrice.Mul(qty),
				Note:        l.Note,
			}
			order.Lines = append(order.Lines, line)
			order.Total = order.Total.Add(line.Subtotal)

			if _, err := applyAdjustment(ctx, r, prod, Adjustment{
				ProductID: prod.ID,
				Quantity:  qty,
				Kind:      model.MovementOut,
				Reason:    reason,
				ActorID:   p.ActorID(),
			}); err != nil {
				return err
			}
		}
		return r.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	metrics.OrderTransitions.WithLabelValues(string(model.OrderPending)).Inc()
	logger.FromContext(ctx).Info("order created",
		zap.String("number", order.Number),
		zap.String("total", order.Total.String()),
		zap.Int("lines", len(order.Lines)))
	return order, nil
}

// lockProducts locks every distinct product of lines in ascending id order so
// that concurrent orders sharing products cannot deadlock.
func lockProducts(ctx context.Context, r Repos, hotelID uint64, lines []OrderLineInput) (map[uint64]*model.Product, error) {
	ids := make([]uint64, 0, len(lines))
	seen := map[uint64]bool{}
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make(map[uint64]*model.Product, len(ids))
	for _, id := range ids {
		prod, err := r.Products().GetForUpdate(ctx, hotelID, id)
		if err != nil {
			return nil, err
		}
		out[id] = prod
	}
	return out, nil
}

func resolveCustomer(ctx context.Context, r Repos, hotelID uint64, c *model.Customer) error {
	switch c.Kind {
	case model.CustomerClient:
		cl, err := r.Clients().GetByID(ctx, hotelID, c.ClientID)
		if err != nil {
			return err
		}
		c.Name = cl.FullName()
	case model.CustomerReservation:
		res, err := r.Reservations().GetByID(ctx, hotelID, c.ReservationID)
		if err != nil {
			return err
		}
		if cl, err := r.Clients().GetByID(ctx, hotelID, res.ClientID); err == nil {
			c.Name = cl.FullName()
		}
	}
	return nil
}

// UpdateStatus moves an order forward. Cancelling returns every line to
// stock; reaching PAID records whatever was still unpaid.
func (s *OrderService) UpdateStatus(ctx context.Context, p auth.Principal, orderID uint64, next model.OrderStatus) (_ *model.Order, err error) {
	if err := p.Require(auth.UpdateOrder); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "order.update_status")
	span.SetAttributes(hotelAttr(p.HotelID), attribute.Int64("order.id", int64(orderID)), attribute.String("order.status", string(next)))
	defer func() { endSpan(span, err) }()

	if !next.Valid() {
		return nil, apperr.Invalid("status", "unknown order status "+string(next))
	}

	var (
		order   *model.Order
		settled decimal.Decimal
	)
	err = s.store.Tx(ctx, func(r Repos) error {
		var err error
		order, err = r.Orders().GetForUpdate(ctx, p.HotelID, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanMoveTo(next) {
			return apperr.New(apperr.ErrInvalidState, "cannot move order %s from %s to %s", order.Number, order.Status, next)
		}

		switch next {
		case model.OrderCancelled:
			if err := returnLines(ctx, r, p, order); err != nil {
				return err
			}
		case model.OrderServed:
			t := now()
			order.ServedAt = &t
		case model.OrderPaid:
			settled = order.Remaining()
			order.Paid = order.Total
		}
		order.Status = next
		order.UpdatedAt = now()
		return r.Orders().UpdateState(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	metrics.OrderTransitions.WithLabelValues(string(next)).Inc()
	if settled.IsPositive() {
		s.ledger.RecordOrderPayment(ctx, p.HotelID, order.ID, order.Number, settled, "")
	}
	return order, nil
}

func returnLines(ctx context.Context, r Repos, p auth.Principal, order *model.Order) error {
	lines := make([]OrderLineInput, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, OrderLineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	products, err := lockProducts(ctx, r, p.HotelID, lines)
	if err != nil {
		return err
	}
	reason := "Cancelled order " + order.Number
	for _, l := range order.Lines {
		if _, err := applyAdjustment(ctx, r, products[l.ProductID], Adjustment{
			ProductID: l.ProductID,
			Quantity:  decimal.NewFromInt(int64(l.Quantity)),
			Kind:      model.MovementReturn,
			Reason:    reason,
			ActorID:   p.ActorID(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// AddPayment registers money collected for an order. Reaching the total
// settles the order as PAID; because PAID is terminal, the status path can
// never record the same money a second time.
func (s *OrderService) AddPayment(ctx context.Context, p auth.Principal, orderID uint64, amount decimal.Decimal, mode model.PaymentMode) (_ *model.Order, err error) {
	if err := p.Require(auth.UpdateOrder); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "order.add_payment")
	span.SetAttributes(hotelAttr(p.HotelID), attribute.Int64("order.id", int64(orderID)), attribute.String("payment.amount", amount.String()))
	defer func() { endSpan(span, err) }()

	if err := checkPayment(amount); err != nil {
		return nil, err
	}
	if err := checkMode(mode); err != nil {
		return nil, err
	}

	var order *model.Order
	err = s.store.Tx(ctx, func(r Repos) error {
		var err error
		order, err = r.Orders().GetForUpdate(ctx, p.HotelID, orderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return apperr.New(apperr.ErrInvalidState, "order %s is %s", order.Number, order.Status)
		}
		order.Paid = order.Paid.Add(amount)
		if order.Paid.GreaterThanOrEqual(order.Total) {
			order.Status = model.OrderPaid
		}
		order.UpdatedAt = now()
		return r.Orders().UpdateState(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	if order.Status == model.OrderPaid {
		metrics.OrderTransitions.WithLabelValues(string(model.OrderPaid)).Inc()
	}
	s.ledger.RecordOrderPayment(ctx, p.HotelID, order.ID, order.Number, amount, mode)
	return order, nil
}

// Get returns one order of the caller's hotel.
func (s *OrderService) Get(ctx context.Context, p auth.Principal, id uint64) (*model.Order, error) {
	if err := p.Require(auth.ViewOrders); err != nil {
		return nil, err
	}
	return s.store.Orders().GetByID(ctx, p.HotelID, id)
}

// List returns the hotel's orders, optionally filtered by status.
func (s *OrderService) List(ctx context.Context, p auth.Principal, status model.OrderStatus) ([]model.Order, error) {
	if err := p.Require(auth.ViewOrders); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperr.Invalid("status", "unknown order status "+string(status))
	}
	return s.store.Orders().List(ctx, p.HotelID, status)
}

// MenuSection groups available products of one category.
type MenuSection struct {
	Category model.ProductCategory `json:"category"`
	Products []model.Product       `json:"products"`
}

// Menu lists available products grouped by category in menu order; empty
// sections are omitted.
func (s *OrderService) Menu(ctx context.Context, p auth.Principal) ([]MenuSection, error) {
	if err := p.Require(auth.ViewOrders, auth.CreateOrder, auth.ManageMenu); err != nil {
		return nil, err
	}
	products, err := s.store.Products().List(ctx, p.HotelID, ProductFilter{AvailableOnly: true})
	if err != nil {
		return nil, err
	}
	byCat := map[model.ProductCategory][]model.Product{}
	for _, prod := range products {
		byCat[prod.Category] = append(byCat[prod.Category], prod)
	}
	var out []MenuSection
	for _, cat := range model.MenuCategories {
		if items := byCat[cat]; len(items) > 0 {
			out = append(out, MenuSection{Category: cat, Products: items})
		}
	}
	return out, nil
}
