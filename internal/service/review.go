package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/repository"
)

const maxCommentLen = 1000

// ReviewService records dish reviews and staff ratings.
type ReviewService struct {
	reviews     ReviewStore
	stepTimeout time.Duration
}

func NewReviewService(reviews ReviewStore, stepTimeout time.Duration) *ReviewService {
	if reviews == nil {
		panic("nil store passed to NewReviewService")
	}
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	return &ReviewService{reviews: reviews, stepTimeout: stepTimeout}
}

func checkRating(rating int, comment string) error {
	if rating < model.MinRating || rating > model.MaxRating {
		return invalid("rating must be between %d and %d", model.MinRating, model.MaxRating)
	}
	if utf8.RuneCountInString(comment) > maxCommentLen {
		return invalid("comment must be at most %d characters", maxCommentLen)
	}
	return nil
}

// DishReviews returns every dish review.
func (s *ReviewService) DishReviews(ctx context.Context) ([]model.DishReview, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.reviews.ListDishReviews(ctx)
}

// DishReviewsDetailed returns every review with reviewer and dish names.
func (s *ReviewService) DishReviewsDetailed(ctx context.Context) ([]model.DishReviewView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.reviews.ListDishReviewsDetailed(ctx)
}

// AddDishReview stores a review of one dish.
func (s *ReviewService) AddDishReview(ctx context.Context, req model.DishReviewRequest) (model.DishReview, error) {
	if req.UserID == 0 || req.MenuID == 0 {
		return model.DishReview{}, invalid("user_id, menu_id and rating are required")
	}
	comment := strings.TrimSpace(req.Comment)
	if err := checkRating(req.Rating, comment); err != nil {
		return model.DishReview{}, err
	}
	d := model.DishReview{UserID: req.UserID, MenuID: req.MenuID, Rating: req.Rating, Comment: comment}

	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	if err := s.reviews.CreateDishReview(ctx, &d); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return model.DishReview{}, ErrUnknownReference
		}
		return model.DishReview{}, err
	}
	d.CreatedAt = time.Now().UTC()
	return d, nil
}

// StaffRatings returns every staff rating.
func (s *ReviewService) StaffRatings(ctx context.Context) ([]model.StaffRating, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.reviews.ListStaffRatings(ctx)
}

// AddStaffRating stores a rating of one staff member by name.
func (s *ReviewService) AddStaffRating(ctx context.Context, req model.StaffRatingRequest) (model.StaffRating, error) {
	name := strings.TrimSpace(req.StaffName)
	if req.UserID == 0 || name == "" {
		return model.StaffRating{}, invalid("user_id, staff_name and rating are required")
	}
	if utf8.RuneCountInString(name) > 120 {
		return model.StaffRating{}, invalid("staff_name must be at most 120 characters")
	}
	comment := strings.TrimSpace(req.Comment)
	if err := checkRating(req.Rating, comment); err != nil {
		return model.StaffRating{}, err
	}
	r := model.StaffRating{UserID: req.UserID, StaffName: name, Rating: req.Rating, Comment: comment}

	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	if err := s.reviews.CreateStaffRating(ctx, &r); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return model.StaffRating{}, ErrUnknownReference
		}
		return model.StaffRating{}, err
	}
	r.CreatedAt = time.Now().UTC()
	return r, nil
}
