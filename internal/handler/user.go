package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/service"
)

// UserHandler serves /api/reservations/users.
type UserHandler struct {
	Accounts *service.AccountService
	Log      zerolog.Logger
}

func NewUserHandler(a *service.AccountService, log zerolog.Logger) *UserHandler {
	if a == nil {
		panic("nil service passed to NewUserHandler")
	}
	return &UserHandler{Accounts: a, Log: log}
}

// Signup handles POST /api/reservations/users.
func (h *UserHandler) Signup(c echo.Context) error {
	var req service.SignupRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	u, err := h.Accounts.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusCreated, u, "User created")
}

// GetByEmail handles GET /api/reservations/users/:email.
func (h *UserHandler) GetByEmail(c echo.Context) error {
	u, err := h.Accounts.GetByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, u, "")
}

// List handles GET /api/reservations/users.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Accounts.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, users, "")
}
