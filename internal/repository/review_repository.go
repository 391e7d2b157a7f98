package repository

import (
	"context"
	"database/sql"

	"github.com/ashroots/table-reservation/internal/model"
)

// ReviewRepo stores dish reviews and staff ratings.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// ListDishReviews returns every dish review, newest first.
func (r *ReviewRepo) ListDishReviews(ctx context.Context) ([]model.DishReview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT review_id, user_id, menu_id, rating, COALESCE(comment, ''), created_at
		 FROM dish_reviews ORDER BY created_at DESC, review_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.DishReview, 0)
	for rows.Next() {
		var d model.DishReview
		if err := rows.Scan(&d.ID, &d.UserID, &d.MenuID, &d.Rating, &d.Comment, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListDishReviewsDetailed returns every review with the reviewer and dish
// names, newest first.
func (r *ReviewRepo) ListDishReviewsDetailed(ctx context.Context) ([]model.DishReviewView, error) {
	const q = `SELECT d.review_id, d.user_id, d.menu_id, d.rating, COALESCE(d.comment, ''), d.created_at,
	                  u.name, m.name
	           FROM dish_reviews d
	           JOIN users u ON u.user_id = d.user_id
	           JOIN menu m ON m.menu_id = d.menu_id
	           ORDER BY d.created_at DESC, d.review_id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.DishReviewView, 0)
	for rows.Next() {
		var v model.DishReviewView
		if err := rows.Scan(&v.ID, &v.UserID, &v.MenuID, &v.Rating, &v.Comment, &v.CreatedAt,
			&v.CustomerName, &v.DishName); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateDishReview inserts d and sets its ID. An unknown user or dish
// surfaces as ErrForeignKey.
func (r *ReviewRepo) CreateDishReview(ctx context.Context, d *model.DishReview) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO dish_reviews (user_id, menu_id, rating, comment) VALUES (?, ?, ?, ?)`,
		d.UserID, d.MenuID, d.Rating, nullString(d.Comment))
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// ListStaffRatings returns every staff rating, newest first.
func (r *ReviewRepo) ListStaffRatings(ctx context.Context) ([]model.StaffRating, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rating_id, user_id, staff_name, rating, COALESCE(comment, ''), created_at
		 FROM staff_ratings ORDER BY created_at DESC, rating_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.StaffRating, 0)
	for rows.Next() {
		var s model.StaffRating
		if err := rows.Scan(&s.ID, &s.UserID, &s.StaffName, &s.Rating, &s.Comment, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateStaffRating inserts s and sets its ID.
func (r *ReviewRepo) CreateStaffRating(ctx context.Context, s *model.StaffRating) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO staff_ratings (user_id, staff_name, rating, comment) VALUES (?, ?, ?, ?)`,
		s.UserID, s.StaffName, s.Rating, nullString(s.Comment))
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
