package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/service"
)

// ReservationHandler serves bookings and the front-desk lifecycle.
type ReservationHandler struct {
	reservations *service.ReservationService
}

func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

type createReservationReq struct {
	RoomID          uint64            `json:"room_id"`
	ClientID        uint64            `json:"client_id"`
	Client          *clientReq        `json:"client"` // inline guest created with the booking
	Arrival         Day               `json:"arrival"`
	Departure       Day               `json:"departure"`
	Adults          int               `json:"adults"`
	Children        int               `json:"children"`
	InitialPayment  decimal.Decimal   `json:"initial_payment"`
	PaymentMode     model.PaymentMode `json:"payment_mode"`
	Notes           string            `json:"notes"`
	SpecialRequests string            `json:"special_requests"`
	ExternalRef     string            `json:"external_ref"`
	Pending         bool              `json:"pending"`
}

type updateReservationReq struct {
	Adults          *int    `json:"adults"`
	Children        *int    `json:"children"`
	Notes           *string `json:"notes"`
	SpecialRequests *string `json:"special_requests"`
	ExternalRef     *string `json:"external_ref"`
}

type reasonReq struct {
	Reason string `json:"reason"`
}

// Create: POST /api/v1/reservations
func (h *ReservationHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	in := service.CreateReservationInput{
		RoomID:          req.RoomID,
		ClientID:        req.ClientID,
		Arrival:         req.Arrival.Time,
		Departure:       req.Departure.Time,
		Adults:          req.Adults,
		Children:        req.Children,
		InitialPayment:  req.InitialPayment,
		PaymentMode:     req.PaymentMode,
		Notes:           req.Notes,
		SpecialRequests: req.SpecialRequests,
		ExternalRef:     req.ExternalRef,
		Pending:         req.Pending,
	}
	if req.Client != nil {
		nc := service.ClientInput(*req.Client)
		in.NewClient = &nc
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.reservations.CreateReservation(ctx, p, in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "reservation created", res)
}

// Get: GET /api/v1/reservations/:id
func (h *ReservationHandler) Get(c echo.Context) error {
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
	res, err := h.reservations.Get(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", res)
}

// List: GET /api/v1/reservations?status=&room_id=&client_id=&arrival=&departure=&from=&q=
func (h *ReservationHandler) List(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	f := service.ReservationFilter{
		Status:   model.ReservationStatus(upper(c.QueryParam("status"))),
		RoomID:   queryUint(c, "room_id"),
		ClientID: queryUint(c, "client_id"),
		Search:   c.QueryParam("q"),
	}
	var ok bool
	if f.ArrivalOn, ok = queryDay(c, "arrival"); !ok {
		return badRequest(c, "arrival must be YYYY-MM-DD")
	}
	if f.DepartureOn, ok = queryDay(c, "departure"); !ok {
		return badRequest(c, "departure must be YYYY-MM-DD")
	}
	if f.ArrivalFrom, ok = queryDay(c, "from"); !ok {
		return badRequest(c, "from must be YYYY-MM-DD")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.reservations.List(ctx, p, f)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// Update: PATCH /api/v1/reservations/:id
func (h *ReservationHandler) Update(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.reservations.Update(ctx, p, id, service.UpdateReservationInput(req))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "reservation updated", res)
}

type transitionFunc func(ctx context.Context, p auth.Principal, id uint64) (*model.Reservation, error)

// transition wraps the body-less lifecycle endpoints.
func (h *ReservationHandler) transition(fn transitionFunc, msg string) echo.HandlerFunc {
	return func(c echo.Context) error {
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
		res, err := fn(ctx, p, id)
		if err != nil {
			return fail(c, err)
		}
		return respond(c, http.StatusOK, msg, res)
	}
}

// Confirm: POST /api/v1/reservations/:id/confirm
func (h *ReservationHandler) Confirm() echo.HandlerFunc {
	return h.transition(h.reservations.Confirm, "reservation confirmed")
}

// CheckIn: POST /api/v1/reservations/:id/check-in
func (h *ReservationHandler) CheckIn() echo.HandlerFunc {
	return h.transition(h.reservations.CheckIn, "guest checked in")
}

// CheckOut: POST /api/v1/reservations/:id/check-out
func (h *ReservationHandler) CheckOut() echo.HandlerFunc {
	return h.transition(h.reservations.CheckOut, "guest checked out")
}

// NoShow: POST /api/v1/reservations/:id/no-show
func (h *ReservationHandler) NoShow() echo.HandlerFunc {
	return h.transition(h.reservations.MarkNoShow, "reservation marked as no-show")
}

// Cancel: POST /api/v1/reservations/:id/cancel
func (h *ReservationHandler) Cancel(c echo.Context) error {
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
	res, err := h.reservations.Cancel(ctx, p, id, req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "reservation cancelled", res)
}

// AddPayment: POST /api/v1/reservations/:id/payments
func (h *ReservationHandler) AddPayment(c echo.Context) error {
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
	res, err := h.reservations.AddPayment(ctx, p, id, req.Amount, req.PaymentMode)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "payment recorded", res)
}

type listFunc func(ctx context.Context, p auth.Principal) ([]model.Reservation, error)

func (h *ReservationHandler) board(fn listFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := caller(c)
		if err != nil {
			return err
		}
		ctx, cancel := reqCtx(c)
		defer cancel()
		list, err := fn(ctx, p)
		if err != nil {
			return fail(c, err)
		}
		return respond(c, http.StatusOK, "", list)
	}
}

// Front-desk boards: GET /api/v1/reservations/{arrivals,departures,in-house,upcoming}
func (h *ReservationHandler) Arrivals() echo.HandlerFunc { return h.board(h.reservations.ArrivalsToday) }

func (h *ReservationHandler) Departures() echo.HandlerFunc {
	return h.board(h.reservations.DeparturesToday)
}

func (h *ReservationHandler) InHouse() echo.HandlerFunc  { return h.board(h.reservations.InHouse) }
func (h *ReservationHandler) Upcoming() echo.HandlerFunc { return h.board(h.reservations.Upcoming) }
