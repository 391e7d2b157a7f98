package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/service"
)

// ReviewHandler serves /api/dish-reviews and /api/staff-ratings.
type ReviewHandler struct {
	Reviews *service.ReviewService
	Log     zerolog.Logger
}

func NewReviewHandler(r *service.ReviewService, log zerolog.Logger) *ReviewHandler {
	if r == nil {
		panic("nil service passed to NewReviewHandler")
	}
	return &ReviewHandler{Reviews: r, Log: log}
}

func (h *ReviewHandler) DishReviews(c echo.Context) error {
	list, err := h.Reviews.DishReviews(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, list, "")
}

func (h *ReviewHandler) DishReviewsDetailed(c echo.Context) error {
	list, err := h.Reviews.DishReviewsDetailed(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, list, "")
}

func (h *ReviewHandler) AddDishReview(c echo.Context) error {
	var req model.DishReviewRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	d, err := h.Reviews.AddDishReview(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusCreated, d, "Review added")
}

func (h *ReviewHandler) StaffRatings(c echo.Context) error {
	list, err := h.Reviews.StaffRatings(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusOK, list, "")
}

func (h *ReviewHandler) AddStaffRating(c echo.Context) error {
	var req model.StaffRatingRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	r, err := h.Reviews.AddStaffRating(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, http.StatusCreated, r, "Rating added")
}
