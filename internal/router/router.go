// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hotel-management/internal/config"
	"github.com/iliyamo/hotel-management/internal/handler"
	"github.com/iliyamo/hotel-management/internal/metrics"
	"github.com/iliyamo/hotel-management/internal/middleware"
)

// Cache pairs the read-through cache with the invalidation that follows a
// write. Both pass through when Redis is not configured.
type Cache struct {
	Read       echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
}

func NewCache(cfg config.CacheConfig, rdb *redis.Client) Cache {
	return Cache{
		Read:       middleware.NewRedisCache(cfg, rdb),
		Invalidate: middleware.InvalidateCache(cfg, rdb),
	}
}

// RegisterRoutes registers the probes and the metrics endpoint. None of them
// require authentication.
func RegisterRoutes(e *echo.Echo, ready map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(ready))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers the session endpoints and hotel sign-up. limit is
// the login rate limiter; it guards every route that accepts credentials.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, hotels *handler.HotelHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	e.POST("/api/v1/hotels", hotels.Register, limit)

	g := e.Group("/api/v1/auth")
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh, limit)
	g.POST("/logout", a.Logout)

	sess := g.Group("", middleware.JWTAuth(jwtSecret))
	sess.GET("/me", a.Me)
	sess.POST("/logout-all", a.LogoutAll)
}

// Protected returns the /api/v1 group every tenant route hangs off. The JWT
// check runs first so the limiter and the cache can key on the caller.
func Protected(e *echo.Echo, jwtSecret string, limit echo.MiddlewareFunc) *echo.Group {
	return e.Group("/api/v1", middleware.JWTAuth(jwtSecret), limit)
}
