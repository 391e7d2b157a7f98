package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness: the process is up.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ready answers readiness: 503 until the database answers.
func Ready(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := db.Ping(c.Request().Context()); err != nil {
			return fail(c, http.StatusServiceUnavailable, "database unavailable")
		}
		return ok(c, http.StatusOK, nil, "ready")
	}
}
