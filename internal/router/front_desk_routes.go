package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/handler"
	"github.com/iliyamo/hotel-management/internal/middleware"
)

// RegisterFrontDesk registers rooms, clients and reservations.
func RegisterFrontDesk(g *echo.Group, rooms *handler.RoomHandler, clients *handler.ClientHandler,
	res *handler.ReservationHandler, cache Cache) {
	view := middleware.RequirePermission(auth.ViewReservations, auth.ViewSettings)
	settings := middleware.RequirePermission(auth.UpdateSettings)

	r := g.Group("/rooms", cache.Invalidate)
	r.GET("", rooms.List, view, cache.Read)
	r.GET("/available", rooms.Available, middleware.RequirePermission(auth.ViewReservations))
	r.GET("/:id", rooms.Get, view, cache.Read)
	r.POST("", rooms.Create, settings)
	r.PUT("/:id", rooms.Update, settings)
	r.PATCH("/:id/status", rooms.SetStatus, middleware.RequirePermission(auth.UpdateReservation, auth.UpdateSettings))
	r.DELETE("/:id", rooms.Delete, settings)

	c := g.Group("/clients", cache.Invalidate)
	c.GET("", clients.List, middleware.RequirePermission(auth.ViewReservations))
	c.GET("/:id", clients.Get, middleware.RequirePermission(auth.ViewReservations))
	c.POST("", clients.Create, middleware.RequirePermission(auth.CreateReservation, auth.UpdateReservation))
	c.PUT("/:id", clients.Update, middleware.RequirePermission(auth.UpdateReservation))
	c.DELETE("/:id", clients.Delete, middleware.RequirePermission(auth.CancelReservation))

	// Availability and the boards move with the clock, so none of these
	// are cached.
	rv := g.Group("/reservations", cache.Invalidate)
	viewRes := middleware.RequirePermission(auth.ViewReservations)
	update := middleware.RequirePermission(auth.UpdateReservation)
	rv.GET("", res.List, viewRes)
	rv.GET("/arrivals", res.Arrivals(), viewRes)
	rv.GET("/departures", res.Departures(), viewRes)
	rv.GET("/in-house", res.InHouse(), viewRes)
	rv.GET("/upcoming", res.Upcoming(), viewRes)
	rv.GET("/:id", res.Get, viewRes)
	rv.POST("", res.Create, middleware.RequirePermission(auth.CreateReservation))
	rv.PATCH("/:id", res.Update, update)
	rv.POST("/:id/confirm", res.Confirm(), update)
	rv.POST("/:id/check-in", res.CheckIn(), update)
	rv.POST("/:id/check-out", res.CheckOut(), update)
	rv.POST("/:id/no-show", res.NoShow(), update)
	rv.POST("/:id/cancel", res.Cancel, middleware.RequirePermission(auth.CancelReservation))
	rv.POST("/:id/payments", res.AddPayment, update)
}
