package handler // HTTP handlers for the reservation API

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/repository"
	"github.com/ashroots/table-reservation/internal/service"
)

// envelope is the shape of every response body.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c echo.Context, code int, data any, msg string) error {
	return c.JSON(code, envelope{Success: true, Data: data, Message: msg})
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, envelope{Success: false, Error: msg})
}

// statusOf maps a service or repository error to an HTTP status and the
// message safe to show the client.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrSlotReserved),
		errors.Is(err, service.ErrSlotJustReserved),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrOutOfStock):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUnknownTable),
		errors.Is(err, service.ErrUnknownMenuItem),
		errors.Is(err, service.ErrUnknownReference):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not found"
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondError writes err in the envelope. Unexpected errors are logged
// with the request id, which is the only detail the client gets.
func respondError(c echo.Context, log zerolog.Logger, err error) error {
	code, msg := statusOf(err)
	if code >= http.StatusInternalServerError {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		log.Error().Err(err).Str("request_id", rid).Str("route", c.Path()).Msg("request failed")
		if rid != "" {
			msg += " (request id " + rid + ")"
		}
	}
	return fail(c, code, msg)
}

// ErrorHandler renders errors that escape handlers (unknown routes, bind
// failures, recovered panics) in the same envelope.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			if he.Code >= http.StatusInternalServerError {
				log.Error().Err(err).Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).Msg("request failed")
			}
			if c.Request().Method == http.MethodHead {
				_ = c.NoContent(he.Code)
				return
			}
			_ = fail(c, he.Code, msg)
			return
		}
		_ = respondError(c, log, err)
	}
}
