package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-management/internal/auth"
)

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "forbidden"})
}

// RequirePermission lets the request through when the caller holds any of
// perms. Hotel accounts hold every permission. The use cases check again;
// this only rejects early at the route level.
func RequirePermission(perms ...auth.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return unauthorized(c, "authentication required")
			}
			if p.Require(perms...) != nil {
				return forbidden(c)
			}
			return next(c)
		}
	}
}

// RequireAccount restricts a route to one account type.
func RequireAccount(t auth.AccountType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return unauthorized(c, "authentication required")
			}
			if p.AccountType != t {
				return forbidden(c)
			}
			return next(c)
		}
	}
}
