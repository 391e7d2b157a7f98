package repository

import (
	"context"
	"database/sql"

	"github.com/ashroots/table-reservation/internal/database"
	"github.com/ashroots/table-reservation/internal/model"
)

// MenuRepo reads dishes and keeps their stock.
type MenuRepo struct{ db *sql.DB }

func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{db: db} }

const menuColumns = `menu_id, name, COALESCE(description, ''), category, price, stock_quantity`

// List returns every dish ordered by category, then name.
func (r *MenuRepo) List(ctx context.Context) ([]model.MenuItem, error) {
	return r.queryItems(ctx, `SELECT `+menuColumns+` FROM menu ORDER BY category, name, menu_id`)
}

// ListByCategory returns the dishes of one category.
func (r *MenuRepo) ListByCategory(ctx context.Context, category string) ([]model.MenuItem, error) {
	return r.queryItems(ctx, `SELECT `+menuColumns+` FROM menu WHERE category = ? ORDER BY name, menu_id`, category)
}

// ListWithRatings returns every dish with its average review score, best
// rated first.
func (r *MenuRepo) ListWithRatings(ctx context.Context) ([]model.MenuItemRating, error) {
	const q = `SELECT m.menu_id, m.name, m.category, m.price,
	                  COALESCE(AVG(d.rating), 0) AS avg_rating, COUNT(d.review_id) AS review_count
	           FROM menu m
	           LEFT JOIN dish_reviews d ON d.menu_id = m.menu_id
	           GROUP BY m.menu_id, m.name, m.category, m.price
	           ORDER BY avg_rating DESC, review_count DESC, m.menu_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MenuItemRating, 0)
	for rows.Next() {
		var m model.MenuItemRating
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.AvgRating, &m.ReviewCount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InStock returns the stock of every dish that can still be ordered.
func (r *MenuRepo) InStock(ctx context.Context) ([]model.StockLevel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT menu_id, name, stock_quantity FROM menu WHERE stock_quantity > 0 ORDER BY menu_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.StockLevel, 0)
	for rows.Next() {
		var s model.StockLevel
		if err := rows.Scan(&s.MenuID, &s.Name, &s.StockQuantity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Stock returns the stock of one dish, in stock or not.
func (r *MenuRepo) Stock(ctx context.Context, id uint64) (model.StockLevel, error) {
	var s model.StockLevel
	err := r.db.QueryRowContext(ctx,
		`SELECT menu_id, name, stock_quantity FROM menu WHERE menu_id = ?`, id).
		Scan(&s.MenuID, &s.Name, &s.StockQuantity)
	return s, translate(err)
}

// SetStock overwrites the stock of one dish. It returns ErrNotFound when
// the id matches nothing.
func (r *MenuRepo) SetStock(ctx context.Context, id uint64, qty int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE menu SET stock_quantity = ? WHERE menu_id = ?`, qty, id)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByIDTx loads one dish inside the caller's transaction.
func (r *MenuRepo) GetByIDTx(ctx context.Context, tx database.DBTX, id uint64) (model.MenuItem, error) {
	m, err := scanMenuItem(tx.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menu WHERE menu_id = ?`, id))
	return m, translate(err)
}

// TakeStockTx removes qty portions of a dish. The guard is part of the
// UPDATE, so two orders racing for the last portions cannot both succeed;
// false means there was not enough stock.
func (r *MenuRepo) TakeStockTx(ctx context.Context, tx database.DBTX, id uint64, qty int) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE menu SET stock_quantity = stock_quantity - ? WHERE menu_id = ? AND stock_quantity >= ?`, qty, id, qty)
	if err != nil {
		return false, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *MenuRepo) queryItems(ctx context.Context, q string, args ...any) ([]model.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MenuItem, 0)
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMenuItem(s scanner) (model.MenuItem, error) {
	var m model.MenuItem
	err := s.Scan(&m.ID, &m.Name, &m.Description, &m.Category, &m.Price, &m.StockQuantity)
	return m, err
}
