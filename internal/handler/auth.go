package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/service"
	"github.com/ashroots/table-reservation/internal/utils"
)

// AuthHandler issues access tokens.
type AuthHandler struct {
	Accounts     *service.AccountService
	JWTSecret    string
	AccessTTLMin int
	Log          zerolog.Logger
}

func NewAuthHandler(a *service.AccountService, secret string, ttlMin int, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Accounts: a, JWTSecret: secret, AccessTTLMin: ttlMin, Log: log}
}

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginResp struct {
	UserID  uint64    `json:"user_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	u, err := h.Accounts.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, u.ID, u.Email, string(u.Role), h.AccessTTLMin)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, loginResp{
		UserID:  u.ID,
		Email:   u.Email,
		Role:    string(u.Role),
		Token:   tok.Token,
		Expires: tok.Exp,
	}, "")
}
