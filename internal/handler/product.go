package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/service"
)

// ProductHandler serves the product catalog and its stock ledger.
type ProductHandler struct {
	products *service.ProductService
	stock    *service.StockService
}

func NewProductHandler(products *service.ProductService, stock *service.StockService) *ProductHandler {
	return &ProductHandler{products: products, stock: stock}
}

type productReq struct {
	Name           string                `json:"name"`
	Code           string                `json:"code"`
	Description    string                `json:"description"`
	Unit           string                `json:"unit"`
	AlertThreshold decimal.Decimal       `json:"alert_threshold"`
	UnitPrice      decimal.Decimal       `json:"unit_price"`
	Category       model.ProductCategory `json:"category"`
	InitialStock   decimal.Decimal       `json:"initial_stock"`
}

type adjustReq struct {
	Quantity decimal.Decimal    `json:"quantity"`
	Kind     model.MovementKind `json:"kind"` // IN, OUT, SET or RETURN
	Reason   string             `json:"reason"`
}

func (r productReq) input() service.ProductInput {
	r.Category = model.ProductCategory(upper(string(r.Category)))
	return service.ProductInput(r)
}

// Create: POST /api/v1/products
func (h *ProductHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	prod, err := h.products.Create(ctx, p, req.input())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "product created", prod)
}

// Get: GET /api/v1/products/:id
func (h *ProductHandler) Get(c echo.Context) error {
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
	prod, err := h.products.Get(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", prod)
}

// List: GET /api/v1/products?category=&available=&low_stock=&q=
func (h *ProductHandler) List(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	f := service.ProductFilter{
		Category:      model.ProductCategory(upper(c.QueryParam("category"))),
		AvailableOnly: queryBool(c, "available"),
		LowStockOnly:  queryBool(c, "low_stock"),
		Search:        c.QueryParam("q"),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.products.List(ctx, p, f)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// Update: PUT /api/v1/products/:id; stock only moves through Adjust.
func (h *ProductHandler) Update(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	prod, err := h.products.Update(ctx, p, id, req.input())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "product updated", prod)
}

// Delete: DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c echo.Context) error {
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
	if err := h.products.Delete(ctx, p, id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "product deleted", nil)
}

// Adjust: POST /api/v1/products/:id/stock
func (h *ProductHandler) Adjust(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req adjustReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	prod, err := h.stock.AdjustStock(ctx, p, service.Adjustment{
		ProductID: id,
		Quantity:  req.Quantity,
		Kind:      model.MovementKind(upper(string(req.Kind))),
		Reason:    req.Reason,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "stock adjusted", prod)
}

// LowStock: GET /api/v1/products/low-stock
func (h *ProductHandler) LowStock(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.stock.LowStock(ctx, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// Movements: GET /api/v1/stock/movements?product_id=&limit= and
// GET /api/v1/products/:id/movements
func (h *ProductHandler) Movements(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	productID := queryUint(c, "product_id")
	if c.Param("id") != "" {
		id, ok := idParam(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}
		productID = id
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.stock.Movements(ctx, p, productID, queryInt(c, "limit", 100))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}
