package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/service"
)

// OrderHandler serves /api/orders.
type OrderHandler struct {
	Orders *service.OrderService
	Log    zerolog.Logger
}

func NewOrderHandler(o *service.OrderService, log zerolog.Logger) *OrderHandler {
	if o == nil {
		panic("nil service passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: o, Log: log}
}

// List handles GET /api/orders. Admin only.
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.Orders.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, orders, "")
}

// Items handles GET /api/orders/items. Admin only.
func (h *OrderHandler) Items(c echo.Context) error {
	items, err := h.Orders.ListItems(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, items, "")
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c echo.Context) error {
	var req model.OrderRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	o, err := h.Orders.PlaceOrder(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusCreated, o, "Order placed")
}

// AddItem handles POST /api/orders/items.
func (h *OrderHandler) AddItem(c echo.Context) error {
	var req model.OrderItemRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	it, err := h.Orders.AddItem(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusCreated, it, "Item added to order")
}

// ByUser handles GET /api/orders/user/:user_id.
func (h *OrderHandler) ByUser(c echo.Context) error {
	id, err := parseID(c, "user_id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	orders, err := h.Orders.ByUser(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, orders, "")
}

// Get handles GET /api/orders/:order_id.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := parseID(c, "order_id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}
	o, err := h.Orders.Details(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, o, "")
}
