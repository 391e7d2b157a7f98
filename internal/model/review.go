package model

import "time"

// Ratings are whole stars.
const (
	MinRating = 1
	MaxRating = 5
)

// DishReview is a row of `dish_reviews`.
type DishReview struct {
	ID        uint64    `json:"review_id"`
	UserID    uint64    `json:"user_id"`
	MenuID    uint64    `json:"menu_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DishReviewView is a review with the reviewer's name and the dish name.
type DishReviewView struct {
	DishReview
	CustomerName string `json:"customer_name"`
	DishName     string `json:"dish_name"`
}

// StaffRating is a row of `staff_ratings`.
type StaffRating struct {
	ID        uint64    `json:"rating_id"`
	UserID    uint64    `json:"user_id"`
	StaffName string    `json:"staff_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DishReviewRequest carries the create-review body.
type DishReviewRequest struct {
	UserID  uint64 `json:"user_id" form:"user_id"`
	MenuID  uint64 `json:"menu_id" form:"menu_id"`
	Rating  int    `json:"rating" form:"rating"`
	Comment string `json:"comment" form:"comment"`
}

// StaffRatingRequest carries the create-staff-rating body.
type StaffRatingRequest struct {
	UserID    uint64 `json:"user_id" form:"user_id"`
	StaffName string `json:"staff_name" form:"staff_name"`
	Rating    int    `json:"rating" form:"rating"`
	Comment   string `json:"comment" form:"comment"`
}
