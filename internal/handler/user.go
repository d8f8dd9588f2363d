package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-management/internal/service"
)

// UserHandler manages employee accounts of the caller's hotel.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userReq struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Phone     string   `json:"phone"`
	Roles     []string `json:"roles"`
}

type rolesReq struct {
	Roles []string `json:"roles"`
}

// Create: POST /api/v1/users
func (h *UserHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req userReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.users.Create(ctx, p, service.UserInput(req))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "user created", u)
}

// Get: GET /api/v1/users/:id
func (h *UserHandler) Get(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.users.Get(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", u)
}

// List: GET /api/v1/users
func (h *UserHandler) List(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.users.List(ctx, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// Update: PUT /api/v1/users/:id; roles are changed through SetRoles.
func (h *UserHandler) Update(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req userReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.users.Update(ctx, p, id, service.UserInput(req))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "user updated", u)
}

// SetRoles: PUT /api/v1/users/:id/roles
func (h *UserHandler) SetRoles(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req rolesReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.users.SetRoles(ctx, p, id, req.Roles)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "roles updated", u)
}

// ToggleActive: PATCH /api/v1/users/:id/active
func (h *UserHandler) ToggleActive(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.users.ToggleActive(ctx, p, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "user status changed", u)
}

// ChangeOwnPassword: PUT /api/v1/users/me/password
func (h *UserHandler) ChangeOwnPassword(c echo.Context) error {
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
	if err := h.users.ChangeOwnPassword(ctx, p, req.CurrentPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "password changed", nil)
}

// Roles: GET /api/v1/roles
func (h *UserHandler) Roles(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	roles, err := h.users.ListRoles(p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", roles)
}
