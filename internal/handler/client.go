package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-management/internal/service"
)

// ClientHandler serves the hotel's guest directory.
type ClientHandler struct {
	clients *service.ClientService
}

func NewClientHandler(clients *service.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

type clientReq struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	Nationality    string `json:"nationality"`
	Address        string `json:"address"`
	City           string `json:"city"`
	Country        string `json:"country"`
	Notes          string `json:"notes"`
}

// Create: POST /api/v1/clients
func (h *ClientHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cl, err := h.clients.Create(ctx, p, service.ClientInput(req))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "client created", cl)
}

// Get: GET /api/v1/clients/:id
func (h *ClientHandler) Get(c echo.Context) error {
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
	cl, err := h.clients.Get(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", cl)
}

// List: GET /api/v1/clients?q=
func (h *ClientHandler) List(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.clients.List(ctx, p, c.QueryParam("q"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// Update: PUT /api/v1/clients/:id
func (h *ClientHandler) Update(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cl, err := h.clients.Update(ctx, p, id, service.ClientInput(req))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "client updated", cl)
}

// Delete: DELETE /api/v1/clients/:id; refused while reservations reference the client.
func (h *ClientHandler) Delete(c echo.Context) error {
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
	if err := h.clients.Delete(ctx, p, id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "client deleted", nil)
}
