package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-management/internal/service"
)

// HotelHandler serves tenant registration and the hotel's own settings.
type HotelHandler struct {
	hotels *service.HotelService
}

func NewHotelHandler(hotels *service.HotelService) *HotelHandler {
	return &HotelHandler{hotels: hotels}
}

type registerHotelReq struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Country   string `json:"country"`
	TaxNumber string `json:"tax_number"`
}

type hotelProfileReq struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Country   string `json:"country"`
	TaxNumber string `json:"tax_number"`
}

type passwordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type subscriptionReq struct {
	Months int `json:"months"`
}

// Register: POST /api/v1/hotels (public)
func (h *HotelHandler) Register(c echo.Context) error {
	var req registerHotelReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hotel, err := h.hotels.Register(ctx, service.RegisterHotelInput(req))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "hotel registered", hotel)
}

// Get: GET /api/v1/hotel
func (h *HotelHandler) Get(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hotel, err := h.hotels.Get(ctx, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", hotel)
}

// Update: PUT /api/v1/hotel
func (h *HotelHandler) Update(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req hotelProfileReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hotel, err := h.hotels.UpdateProfile(ctx, p, service.HotelProfileInput(req))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "hotel updated", hotel)
}

// ChangePassword: PUT /api/v1/hotel/password
func (h *HotelHandler) ChangePassword(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req passwordReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.hotels.ChangePassword(ctx, p, req.CurrentPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "password changed", nil)
}

// ToggleActive: PATCH /api/v1/hotel/active
func (h *HotelHandler) ToggleActive(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hotel, err := h.hotels.ToggleActive(ctx, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "hotel status changed", hotel)
}

// ExtendSubscription: POST /api/v1/hotel/subscription
func (h *HotelHandler) ExtendSubscription(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req subscriptionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hotel, err := h.hotels.ExtendSubscription(ctx, p, req.Months)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "subscription extended", hotel)
}
