package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/service"
)

// TransactionHandler serves the accounting ledger.
type TransactionHandler struct {
	ledger *service.TransactionService
}

func NewTransactionHandler(ledger *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type transactionReq struct {
	Type           model.TransactionType `json:"type"`
	Category       string                `json:"category"`
	Amount         decimal.Decimal       `json:"amount"`
	Date           *Day                  `json:"date"`
	Description    string                `json:"description"`
	PaymentMode    model.PaymentMode     `json:"payment_mode"`
	OrderID        *uint64               `json:"order_id"`
	ReservationID  *uint64               `json:"reservation_id"`
	SupplierID     *uint64               `json:"supplier_id"`
	DocumentNumber string                `json:"document_number"`
	Notes          string                `json:"notes"`
}

func (r transactionReq) input() service.TransactionInput {
	return service.TransactionInput{
		Type:           model.TransactionType(upper(string(r.Type))),
		Category:       r.Category,
		Amount:         r.Amount,
		Date:           r.Date.ptr(),
		Description:    r.Description,
		PaymentMode:    r.PaymentMode,
		OrderID:        r.OrderID,
		ReservationID:  r.ReservationID,
		SupplierID:     r.SupplierID,
		DocumentNumber: r.DocumentNumber,
		Notes:          r.Notes,
	}
}

// transactionFilter reads type, status, category, q and the from/to day
// range. to is inclusive for callers and turned into the exclusive bound
// the store expects.
func transactionFilter(c echo.Context) (service.TransactionFilter, error) {
	f := service.TransactionFilter{
		Type:     model.TransactionType(upper(c.QueryParam("type"))),
		Status:   model.TransactionStatus(upper(c.QueryParam("status"))),
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("q"),
	}
	from, ok := queryDay(c, "from")
	if !ok {
		return f, errors.New("from must be YYYY-MM-DD")
	}
	to, ok := queryDay(c, "to")
	if !ok {
		return f, errors.New("to must be YYYY-MM-DD")
	}
	f.From = from
	if to != nil {
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}
	return f, nil
}

// Create: POST /api/v1/transactions
func (h *TransactionHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req transactionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.ledger.Create(ctx, p, req.input())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "transaction created", t)
}

// Get: GET /api/v1/transactions/:id
func (h *TransactionHandler) Get(c echo.Context) error {
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
	t, err := h.ledger.Get(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", t)
}

// List: GET /api/v1/transactions?type=&status=&category=&from=&to=&q=
func (h *TransactionHandler) List(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	f, err := transactionFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.ledger.List(ctx, p, f)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// Update: PUT /api/v1/transactions/:id; PENDING entries only.
func (h *TransactionHandler) Update(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req transactionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.ledger.Update(ctx, p, id, req.input())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "transaction updated", t)
}

// Delete: DELETE /api/v1/transactions/:id; PENDING entries only.
func (h *TransactionHandler) Delete(c echo.Context) error {
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
	if err := h.ledger.Delete(ctx, p, id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "transaction deleted", nil)
}

// Validate: POST /api/v1/transactions/:id/validate
func (h *TransactionHandler) Validate(c echo.Context) error {
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
	t, err := h.ledger.Validate(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "transaction validated", t)
}

// Cancel: POST /api/v1/transactions/:id/cancel
func (h *TransactionHandler) Cancel(c echo.Context) error {
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
	t, err := h.ledger.Cancel(ctx, p, id, req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "transaction cancelled", t)
}

// Stats: GET /api/v1/transactions/stats
func (h *TransactionHandler) Stats(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	stats, err := h.ledger.Stats(ctx, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", stats)
}

// Export: GET /api/v1/transactions/export accepts the List filters and
// answers a CSV attachment. The file is built in memory first so that a
// failure still gets a JSON error instead of a truncated download.
func (h *TransactionHandler) Export(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	f, err := transactionFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	var buf bytes.Buffer
	if err := h.ledger.ExportCSV(ctx, p, f, &buf); err != nil {
		return fail(c, err)
	}
	name := fmt.Sprintf("transactions-%s.csv", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
