package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/handler"
	"github.com/iliyamo/hotel-management/internal/middleware"
)

// RegisterRestaurant registers the catalog, stock ledger, menu and orders.
func RegisterRestaurant(g *echo.Group, products *handler.ProductHandler, orders *handler.OrderHandler, cache Cache) {
	browse := middleware.RequirePermission(auth.ViewStock, auth.ViewOrders)
	catalog := middleware.RequirePermission(auth.UpdateStock, auth.ManageMenu)
	viewStock := middleware.RequirePermission(auth.ViewStock)

	p := g.Group("/products", cache.Invalidate)
	p.GET("", products.List, browse, cache.Read)
	p.GET("/low-stock", products.LowStock, viewStock)
	p.GET("/:id", products.Get, browse, cache.Read)
	p.GET("/:id/movements", products.Movements, viewStock)
	p.POST("", products.Create, catalog)
	p.PUT("/:id", products.Update, catalog)
	p.DELETE("/:id", products.Delete, catalog)
	p.POST("/:id/stock", products.Adjust, middleware.RequirePermission(auth.UpdateStock))

	g.GET("/stock/movements", products.Movements, viewStock)
	g.GET("/menu", orders.Menu,
		middleware.RequirePermission(auth.ViewOrders, auth.CreateOrder, auth.ManageMenu), cache.Read)

	o := g.Group("/orders", cache.Invalidate)
	viewOrders := middleware.RequirePermission(auth.ViewOrders)
	o.GET("", orders.List, viewOrders)
	o.GET("/:id", orders.Get, viewOrders)
	o.POST("", orders.Create, middleware.RequirePermission(auth.CreateOrder))
	o.PATCH("/:id/status", orders.UpdateStatus, middleware.RequirePermission(auth.UpdateOrder))
	o.POST("/:id/payments", orders.AddPayment, middleware.RequirePermission(auth.UpdateOrder))
}
