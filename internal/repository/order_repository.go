package repository

import (
	"context"
	"database/sql"

	"github.com/ashroots/table-reservation/internal/database"
	"github.com/ashroots/table-reservation/internal/model"
)

// OrderRepo reads and writes `orders` and `order_items`.
type OrderRepo struct{ db *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `o.order_id, o.user_id, o.reservation_id, o.total_price, o.created_at`

// List returns every order, newest first.
func (r *OrderRepo) List(ctx context.Context) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders o ORDER BY o.order_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListItems returns every order item.
func (r *OrderRepo) ListItems(ctx context.Context) ([]model.OrderItem, error) {
	return r.queryItems(ctx, `SELECT order_item_id, order_id, menu_id, quantity, unit_price
	                          FROM order_items ORDER BY order_id, order_item_id`)
}

// ListByUser summarises one customer's orders, newest first. Orders with
// no items yet are included with a zero count.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.OrderSummary, error) {
	const q = `SELECT o.order_id, o.total_price, COUNT(oi.order_item_id) AS item_count
	           FROM orders o
	           LEFT JOIN order_items oi ON oi.order_id = o.order_id
	           WHERE o.user_id = ?
	           GROUP BY o.order_id, o.total_price
	           ORDER BY o.order_id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.OrderSummary, 0)
	for rows.Next() {
		var s model.OrderSummary
		if err := rows.Scan(&s.OrderID, &s.TotalPrice, &s.ItemCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Details returns one order with its customer and items, or ErrNotFound.
func (r *OrderRepo) Details(ctx context.Context, id uint64) (model.OrderDetails, error) {
	const q = `SELECT ` + orderColumns + `, u.name, u.email
	           FROM orders o
	           JOIN users u ON u.user_id = o.user_id
	           WHERE o.order_id = ?`
	var d model.OrderDetails
	var resID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.UserID, &resID, &d.TotalPrice, &d.CreatedAt,
		&d.CustomerName, &d.CustomerEmail)
	if err != nil {
		return model.OrderDetails{}, translate(err)
	}
	d.ReservationID = nullID(resID)
	d.Items, err = r.queryItems(ctx, `SELECT order_item_id, order_id, menu_id, quantity, unit_price
	                                 FROM order_items WHERE order_id = ? ORDER BY order_item_id`, id)
	return d, err
}

// CreateTx inserts o and sets its generated ID. An unknown user or
// reservation surfaces as ErrForeignKey.
func (r *OrderRepo) CreateTx(ctx context.Context, tx database.DBTX, o *model.Order) error {
	var resID sql.NullInt64
	if o.ReservationID != nil {
		resID = sql.NullInt64{Int64: int64(*o.ReservationID), Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, reservation_id, total_price) VALUES (?, ?, ?)`,
		o.UserID, resID, o.TotalPrice)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// CreateItemTx inserts one item and sets its generated ID.
func (r *OrderRepo) CreateItemTx(ctx context.Context, tx database.DBTX, it *model.OrderItem) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO order_items (order_id, menu_id, quantity, unit_price) VALUES (?, ?, ?, ?)`,
		it.OrderID, it.MenuID, it.Quantity, it.UnitPrice)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// AddToTotalTx raises an order's total. It also locks the order row for
// the rest of the transaction and returns ErrNotFound for an unknown id.
func (r *OrderRepo) AddToTotalTx(ctx context.Context, tx database.DBTX, orderID uint64, amount model.Money) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET total_price = total_price + ? WHERE order_id = ?`, amount, orderID)
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

func (r *OrderRepo) queryItems(ctx context.Context, q string, args ...any) ([]model.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.OrderItem, 0)
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanOrder(s scanner) (model.Order, error) {
	var o model.Order
	var resID sql.NullInt64
	err := s.Scan(&o.ID, &o.UserID, &resID, &o.TotalPrice, &o.CreatedAt)
	o.ReservationID = nullID(resID)
	return o, err
}

func nullID(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	id := uint64(n.Int64)
	return &id
}
