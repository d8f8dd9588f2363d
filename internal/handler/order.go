package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/service"
)

// OrderHandler serves restaurant orders and the menu.
type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderLineReq struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note"`
}

type createOrderReq struct {
	Customer    *model.Customer `json:"customer"`
	TableNumber string          `json:"table_number"`
	Notes       string          `json:"notes"`
	Lines       []orderLineReq  `json:"lines"`
}

type orderStatusReq struct {
	Status model.OrderStatus `json:"status"`
}

type paymentReq struct {
	Amount      decimal.Decimal   `json:"amount"`
	PaymentMode model.PaymentMode `json:"payment_mode"`
}

// Create: POST /api/v1/orders
func (h *OrderHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	in := service.CreateOrderInput{
		Customer:    model.NoCustomer(),
		TableNumber: req.TableNumber,
		Notes:       req.Notes,
		Lines:       make([]service.OrderLineInput, len(req.Lines)),
	}
	if req.Customer != nil {
		in.Customer = *req.Customer
		in.Customer.Kind = model.CustomerKind(upper(string(in.Customer.Kind)))
	}
	for i, l := range req.Lines {
		in.Lines[i] = service.OrderLineInput(l)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	order, err := h.orders.CreateOrder(ctx, p, in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "order created", order)
}

// Get: GET /api/v1/orders/:id
func (h *OrderHandler) Get(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	order, err := h.orders.Get(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", order)
}

// List: GET /api/v1/orders?status=
func (h *OrderHandler) List(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.orders.List(ctx, p, model.OrderStatus(upper(c.QueryParam("status"))))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// UpdateStatus: PATCH /api/v1/orders/:id/status
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req orderStatusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	order, err := h.orders.UpdateStatus(ctx, p, id, model.OrderStatus(upper(string(req.Status))))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "order status updated", order)
}

// AddPayment: POST /api/v1/orders/:id/payments
func (h *OrderHandler) AddPayment(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	order, err := h.orders.AddPayment(ctx, p, id, req.Amount, req.PaymentMode)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "payment recorded", order)
}

// Menu: GET /api/v1/menu
func (h *OrderHandler) Menu(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	menu, err := h.orders.Menu(ctx, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", menu)
}
