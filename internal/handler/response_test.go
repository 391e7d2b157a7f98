package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashroots/table-reservation/internal/repository"
	"github.com/ashroots/table-reservation/internal/service"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: name is required", service.ErrValidation), http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrSlotReserved, http.StatusConflict},
		{fmt.Errorf("insert: %w", service.ErrSlotJustReserved), http.StatusConflict},
		{service.ErrEmailExists, http.StatusConflict},
		{service.ErrUnknownTable, http.StatusNotFound},
		{fmt.Errorf("%w for Soup", service.ErrOutOfStock), http.StatusConflict},
		{fmt.Errorf("%w: 9", service.ErrUnknownMenuItem), http.StatusNotFound},
		{service.ErrUnknownReference, http.StatusNotFound},
		{repository.ErrNotFound, http.StatusNotFound},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, msg := statusOf(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
		assert.NotEmpty(t, msg)
	}
	_, msg := statusOf(errors.New("dial tcp: connection refused"))
	assert.Equal(t, "internal server error", msg)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestErrorHandlerHidesInternalDetail(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.GET("/boom", func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderXRequestID, "req-42")
		return errors.New("sql: connection reset by peer")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "internal server error (request id req-42)", env.Error)
	assert.NotContains(t, rec.Body.String(), "peer")
}

func TestErrorHandlerHTTPErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.GET("/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode(t, rec).Error)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", decode(t, rec).Error)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, ok(c, http.StatusOK, nil, "done"))
	assert.JSONEq(t, `{"success":true,"message":"done"}`, rec.Body.String())
}
