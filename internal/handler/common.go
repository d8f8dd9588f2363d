package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/middleware"
)

const requestTimeout = 5 * time.Second

// reqCtx bounds store work of one request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// caller returns the authenticated principal. Routes using it are always
// behind JWTAuth, so a miss is a wiring bug answered with 401.
func caller(c echo.Context) (auth.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return auth.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}

func idParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func queryUint(c echo.Context, name string) uint64 {
	n, _ := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return n
}

func queryInt(c echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return n
	}
	return def
}

func queryBool(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}

const dayLayout = "2006-01-02"

// parseDay reads a calendar day (YYYY-MM-DD) as UTC midnight.
func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, strings.TrimSpace(s), time.UTC)
}

// queryDay returns nil when the parameter is absent and false when it is
// present but malformed.
func queryDay(c echo.Context, name string) (*time.Time, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	d, err := parseDay(v)
	if err != nil {
		return nil, false
	}
	return &d, true
}

// Day is a JSON calendar date, "2025-03-14".
type Day struct{ time.Time }

func (d *Day) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := parseDay(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Day) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
