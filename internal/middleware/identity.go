package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// accountKey identifies the caller for rate limiting and cache scoping:
// "hotel:<id>" or "user:<id>", and "anon" before authentication.
func accountKey(c echo.Context) string {
	p, ok := PrincipalFrom(c)
	if !ok {
		return "anon"
	}
	if p.IsOwner() {
		return "hotel:" + strconv.FormatUint(p.AccountID, 10)
	}
	return "user:" + strconv.FormatUint(p.AccountID, 10)
}

// tenantKey is the hotel the request runs for, or "public".
func tenantKey(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok {
		return strconv.FormatUint(p.HotelID, 10)
	}
	return "public"
}
