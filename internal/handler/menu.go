package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/service"
)

// MenuHandler serves /api/menu.
type MenuHandler struct {
	Menu *service.MenuService
	Log  zerolog.Logger
}

func NewMenuHandler(m *service.MenuService, log zerolog.Logger) *MenuHandler {
	if m == nil {
		panic("nil service passed to NewMenuHandler")
	}
	return &MenuHandler{Menu: m, Log: log}
}

// List handles GET /api/menu.
func (h *MenuHandler) List(c echo.Context) error {
	items, err := h.Menu.Menu(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, items, "")
}

// WithRatings handles GET /api/menu/with-ratings.
func (h *MenuHandler) WithRatings(c echo.Context) error {
	items, err := h.Menu.WithRatings(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, items, "")
}

// ByCategory handles GET /api/menu/category/:category.
func (h *MenuHandler) ByCategory(c echo.Context) error {
	items, err := h.Menu.ByCategory(c.Request().Context(), c.Param("category"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, items, "")
}

// InStock handles GET /api/menu/stock.
func (h *MenuHandler) InStock(c echo.Context) error {
	levels, err := h.Menu.InStock(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, levels, "")
}

// Stock handles GET /api/menu/stock/:menu_id.
func (h *MenuHandler) Stock(c echo.Context) error {
	id, err := parseID(c, "menu_id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid menu id")
	}
	level, err := h.Menu.Stock(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, level, "")
}

// SetStock handles PUT /api/menu/stock.
func (h *MenuHandler) SetStock(c echo.Context) error {
	var body model.StockUpdate
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	level, err := h.Menu.SetStock(c.Request().Context(), body)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, level, "Stock updated")
}
