package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/utils"
)

const principalKey = "principal"

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": msg})
}

// JWTAuth verifies the Bearer access token and stores the caller's
// auth.Principal in the Echo context. The token is self-contained, so no
// store lookup happens here; revoked accounts stop at refresh time.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(h, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			p, ok := principalFromClaims(claims)
			if !ok {
				return unauthorized(c, "invalid claims")
			}
			c.Set(principalKey, p)

			l := logger.FromEcho(c).With(
				zap.Uint64("hotel_id", p.HotelID),
				zap.String("account", string(p.AccountType)),
				zap.Uint64("account_id", p.AccountID),
			)
			logger.Attach(c, l)
			return next(c)
		}
	}
}

func principalFromClaims(cl *utils.Claims) (auth.Principal, bool) {
	id, err := cl.AccountID()
	if err != nil || cl.HotelID == 0 {
		return auth.Principal{}, false
	}
	p := auth.Principal{
		AccountType: auth.AccountType(cl.AccountType),
		AccountID:   id,
		HotelID:     cl.HotelID,
		Roles:       cl.Roles,
	}
	switch p.AccountType {
	case auth.AccountHotel:
		if id != cl.HotelID {
			return auth.Principal{}, false
		}
	case auth.AccountUser:
	default:
		return auth.Principal{}, false
	}
	for _, perm := range cl.Permissions {
		p.Permissions = append(p.Permissions, auth.Permission(perm))
	}
	return p, true
}

// PrincipalFrom returns the caller set by JWTAuth.
func PrincipalFrom(c echo.Context) (auth.Principal, bool) {
	p, ok := c.Get(principalKey).(auth.Principal)
	return p, ok
}
