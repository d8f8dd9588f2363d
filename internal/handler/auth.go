package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/service"
)

// AuthHandler serves login, token refresh and logout for both account kinds.
type AuthHandler struct {
	identity *service.IdentityService
}

func NewAuthHandler(identity *service.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type loginReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	AccountType string `json:"account_type"` // HOTEL or USER, USER when empty
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Login: POST /api/v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	accountType := auth.AccountType(upper(req.AccountType))
	switch accountType {
	case "":
		accountType = auth.AccountUser
	case auth.AccountHotel, auth.AccountUser:
	default:
		return badRequest(c, "account_type must be HOTEL or USER")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.identity.Authenticate(ctx, req.Email, req.Password, accountType)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "login successful", sess)
}

// Refresh: POST /api/v1/auth/refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.identity.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "token refreshed", sess)
}

// Logout: POST /api/v1/auth/logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.identity.Logout(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "logged out", nil)
}

// LogoutAll: POST /api/v1/auth/logout-all revokes every session of the caller.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.identity.LogoutAll(ctx, p); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "all sessions revoked", nil)
}

// Me: GET /api/v1/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	me, err := h.identity.Me(ctx, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", me)
}
