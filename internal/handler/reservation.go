package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/service"
)

// ReservationHandler serves /api/reservations.
type ReservationHandler struct {
	Booking      *service.BookingService
	Availability *service.AvailabilityService
	Log          zerolog.Logger
}

// NewReservationHandler panics if a service is nil.
func NewReservationHandler(b *service.BookingService, a *service.AvailabilityService, log zerolog.Logger) *ReservationHandler {
	if b == nil || a == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Booking: b, Availability: a, Log: log}
}

// AvailableTables handles GET /api/reservations/available-tables?date=&time=&partySize=.
// Having no suitable table is a successful answer with an explanatory
// message, not an error.
func (h *ReservationHandler) AvailableTables(c echo.Context) error {
	party, err := strconv.Atoi(strings.TrimSpace(c.QueryParam("partySize")))
	if err != nil || party <= 0 {
		return fail(c, http.StatusBadRequest, "partySize must be a positive integer")
	}
	res, err := h.Availability.FindAvailableTables(c.Request().Context(), c.QueryParam("date"), c.QueryParam("time"), party)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, res, res.Message)
}

// CheckAvailability handles GET /api/reservations/check-availability?table_id=&reservation_date=&time_slot=.
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	tableID, err := strconv.ParseUint(c.QueryParam("table_id"), 10, 64)
	if err != nil || tableID == 0 {
		return fail(c, http.StatusBadRequest, "table_id must be a positive integer")
	}
	free, err := h.Availability.CheckTable(c.Request().Context(), tableID, c.QueryParam("reservation_date"), c.QueryParam("time_slot"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	msg := "Table is available"
	if !free {
		msg = "Table is already reserved for the selected date and time"
	}
	return ok(c, http.StatusOK, echo.Map{"available": free}, msg)
}

// Create handles POST /api/reservations. The body may be JSON or a form.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req model.BookingRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	res, err := h.Booking.CreateBooking(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusCreated, res, "Reservation confirmed")
}

type statusReq struct {
	Status string `json:"status" form:"status"`
}

// UpdateStatus handles PUT /api/reservations/:id/status with body {status}.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}
	var body statusReq
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.Booking.UpdateStatus(c.Request().Context(), id, body.Status); err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"reservation_id": id, "status": body.Status},
		"Reservation status updated")
}

// Delete handles DELETE /api/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}
	if err := h.Booking.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, nil, "Reservation deleted")
}

// Get handles GET /api/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}
	res, err := h.Booking.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, res, "")
}

// ByEmail handles GET /api/reservations/by-email/:email.
func (h *ReservationHandler) ByEmail(c echo.Context) error {
	list, err := h.Booking.ListByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, list, "")
}

// List handles GET /api/reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	list, err := h.Booking.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, list, "")
}

// Tables handles GET /api/reservations/tables.
func (h *ReservationHandler) Tables(c echo.Context) error {
	tables, err := h.Availability.ListTables(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, tables, "")
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err == nil && id == 0 {
		err = strconv.ErrRange
	}
	return id, err
}
