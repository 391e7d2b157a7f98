package middleware // reusable HTTP middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ashroots/table-reservation/internal/utils"
)

// JWTAuth validates a Bearer access token and stores its user id, role and
// email in the context under CtxUserID, CtxRole and CtxEmail. It wraps the
// admin routes.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return deny(c, http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil || claims.UserID() == 0 {
				return deny(c, http.StatusUnauthorized, "invalid token")
			}
			c.Set(CtxUserID, claims.UserID())
			c.Set(CtxRole, claims.Role)
			c.Set(CtxEmail, claims.Email)
			return next(c)
		}
	}
}
