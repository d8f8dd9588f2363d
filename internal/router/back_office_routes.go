package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/handler"
	"github.com/iliyamo/hotel-management/internal/middleware"
)

// RegisterBackOffice registers hotel settings, staff accounts and the
// accounting endpoints.
func RegisterBackOffice(g *echo.Group, hotels *handler.HotelHandler, users *handler.UserHandler,
	ledger *handler.TransactionHandler, invoices *handler.InvoiceHandler, cache Cache) {
	g.GET("/hotel", hotels.Get, middleware.RequirePermission(auth.ViewSettings))
	owner := g.Group("/hotel", middleware.RequireAccount(auth.AccountHotel), cache.Invalidate)
	owner.PUT("", hotels.Update)
	owner.PUT("/password", hotels.ChangePassword)
	owner.PATCH("/active", hotels.ToggleActive)
	owner.POST("/subscription", hotels.ExtendSubscription)

	staff := middleware.RequirePermission(auth.ViewEmployees, auth.ManageEmployees)
	manage := middleware.RequirePermission(auth.ManageEmployees)
	g.GET("/roles", users.Roles, staff)
	u := g.Group("/users", cache.Invalidate)
	u.PUT("/me/password", users.ChangeOwnPassword, middleware.RequireAccount(auth.AccountUser))
	u.GET("", users.List, staff)
	u.GET("/:id", users.Get)
	u.POST("", users.Create, manage)
	u.PUT("/:id", users.Update, manage)
	u.PUT("/:id/roles", users.SetRoles, manage)
	u.PATCH("/:id/active", users.ToggleActive, manage)

	view := middleware.RequirePermission(auth.ViewAccounting)
	write := middleware.RequirePermission(auth.UpdateAccounting)
	reports := middleware.RequirePermission(auth.ViewAccounting, auth.GenerateReports)

	t := g.Group("/transactions", cache.Invalidate)
	t.GET("", ledger.List, view)
	t.GET("/stats", ledger.Stats, reports)
	t.GET("/export", ledger.Export, reports)
	t.GET("/:id", ledger.Get, view)
	t.POST("", ledger.Create, write)
	t.PUT("/:id", ledger.Update, write)
	t.DELETE("/:id", ledger.Delete, write)
	t.POST("/:id/validate", ledger.Validate, write)
	t.POST("/:id/cancel", ledger.Cancel, write)

	i := g.Group("/invoices", cache.Invalidate)
	i.GET("", invoices.List, view)
	i.GET("/:id", invoices.Get, view)
	i.POST("", invoices.Create, write)
	i.POST("/:id/issue", invoices.Issue, write)
	i.POST("/:id/payments", invoices.AddPayment, write)
	i.POST("/:id/cancel", invoices.Cancel, write)
}
