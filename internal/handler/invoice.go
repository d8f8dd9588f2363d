package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/service"
)

// InvoiceHandler serves invoices.
type InvoiceHandler struct {
	invoices *service.InvoiceService
}

func NewInvoiceHandler(invoices *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

type invoiceLineReq struct {
	Designation string          `json:"designation"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type createInvoiceReq struct {
	ClientID      *uint64          `json:"client_id"`
	ReservationID *uint64          `json:"reservation_id"`
	OrderID       *uint64          `json:"order_id"`
	IssueDate     *Day             `json:"issue_date"`
	DueDate       *Day             `json:"due_date"`
	VATRate       decimal.Decimal  `json:"vat_rate"`
	Notes         string           `json:"notes"`
	Lines         []invoiceLineReq `json:"lines"`
}

// Create: POST /api/v1/invoices
func (h *InvoiceHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req createInvoiceReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	in := service.CreateInvoiceInput{
		ClientID:      req.ClientID,
		ReservationID: req.ReservationID,
		OrderID:       req.OrderID,
		IssueDate:     req.IssueDate.ptr(),
		DueDate:       req.DueDate.ptr(),
		VATRate:       req.VATRate,
		Notes:         req.Notes,
		Lines:         make([]service.InvoiceLineInput, len(req.Lines)),
	}
	for i, l := range req.Lines {
		in.Lines[i] = service.InvoiceLineInput(l)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	inv, err := h.invoices.Create(ctx, p, in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "invoice created", inv)
}

// Get: GET /api/v1/invoices/:id
func (h *InvoiceHandler) Get(c echo.Context) error {
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
	inv, err := h.invoices.Get(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", inv)
}

// List: GET /api/v1/invoices?status=
func (h *InvoiceHandler) List(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.invoices.List(ctx, p, model.InvoiceStatus(upper(c.QueryParam("status"))))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// Issue: POST /api/v1/invoices/:id/issue
func (h *InvoiceHandler) Issue(c echo.Context) error {
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
	inv, err := h.invoices.Issue(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "invoice issued", inv)
}

type invoicePaymentReq struct {
	Amount decimal.Decimal `json:"amount"`
}

// AddPayment: POST /api/v1/invoices/:id/payments
func (h *InvoiceHandler) AddPayment(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req invoicePaymentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	inv, err := h.invoices.AddPayment(ctx, p, id, req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "payment recorded", inv)
}

// Cancel: POST /api/v1/invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req reasonReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	inv, err := h.invoices.Cancel(ctx, p, id, req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "invoice cancelled", inv)
}
