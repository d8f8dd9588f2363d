package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/service"
)

// RoomHandler serves rooms and availability search.
type RoomHandler struct {
	rooms *service.RoomService
}

func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type roomReq struct {
	Number          string          `json:"number"`
	Type            model.RoomType  `json:"type"`
	PricePerNight   decimal.Decimal `json:"price_per_night"`
	Capacity        int             `json:"capacity"`
	Floor           int             `json:"floor"`
	Description     string          `json:"description"`
	Wifi            bool            `json:"wifi"`
	AirConditioning bool            `json:"air_conditioning"`
	TV              bool            `json:"tv"`
	Minibar         bool            `json:"minibar"`
	Safe            bool            `json:"safe"`
	Balcony         bool            `json:"balcony"`
	SeaView         bool            `json:"sea_view"`
}

type roomStatusReq struct {
	Status model.RoomStatus `json:"status"`
}

func (r roomReq) input() service.RoomInput {
	r.Type = model.RoomType(upper(string(r.Type)))
	return service.RoomInput(r)
}

func roomFilter(c echo.Context) service.RoomFilter {
	return service.RoomFilter{
		Status:      model.RoomStatus(upper(c.QueryParam("status"))),
		Type:        model.RoomType(upper(c.QueryParam("type"))),
		MinCapacity: queryInt(c, "capacity", 0),
	}
}

// Create: POST /api/v1/rooms
func (h *RoomHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	room, err := h.rooms.Create(ctx, p, req.input())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "room created", room)
}

// Get: GET /api/v1/rooms/:id
func (h *RoomHandler) Get(c echo.Context) error {
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
	room, err := h.rooms.Get(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", room)
}

// List: GET /api/v1/rooms?status=&type=&capacity=
func (h *RoomHandler) List(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.rooms.List(ctx, p, roomFilter(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// Update: PUT /api/v1/rooms/:id
func (h *RoomHandler) Update(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	room, err := h.rooms.Update(ctx, p, id, req.input())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "room updated", room)
}

// SetStatus: PATCH /api/v1/rooms/:id/status
func (h *RoomHandler) SetStatus(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req roomStatusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	room, err := h.rooms.SetStatus(ctx, p, id, model.RoomStatus(upper(string(req.Status))))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "room status updated", room)
}

// Delete: DELETE /api/v1/rooms/:id
func (h *RoomHandler) Delete(c echo.Context) error {
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
	if err := h.rooms.Delete(ctx, p, id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "room deleted", nil)
}

// Available: GET /api/v1/rooms/available?arrival=&departure=&type=&capacity=
func (h *RoomHandler) Available(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	arrival, err := parseDay(c.QueryParam("arrival"))
	if err != nil {
		return badRequest(c, "arrival must be YYYY-MM-DD")
	}
	departure, err := parseDay(c.QueryParam("departure"))
	if err != nil {
		return badRequest(c, "departure must be YYYY-MM-DD")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.rooms.Available(ctx, p, arrival, departure, roomFilter(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}
