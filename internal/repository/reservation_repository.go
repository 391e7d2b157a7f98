package repository

import (
	"context"
	"database/sql"

	"github.com/ashroots/table-reservation/internal/calendar"
	"github.com/ashroots/table-reservation/internal/database"
	"github.com/ashroots/table-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations. Dates and
// time slots are always exchanged with MySQL as YYYY-MM-DD and HH:MM:SS
// text, so no time zone conversion can shift them.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const slotTakenQuery = `SELECT COUNT(*) FROM reservations
	WHERE table_id = ? AND reservation_date = ? AND time_slot = ? AND status <> 'cancelled'`

// SlotTaken reports whether a non-cancelled reservation holds the slot.
func (r *ReservationRepo) SlotTaken(ctx context.Context, tableID uint64, date calendar.Date, slot calendar.TimeOfDay) (bool, error) {
	return r.SlotTakenTx(ctx, r.db, tableID, date, slot)
}

// SlotTakenTx is SlotTaken inside the caller's transaction.
func (r *ReservationRepo) SlotTakenTx(ctx context.Context, tx database.DBTX, tableID uint64, date calendar.Date, slot calendar.TimeOfDay) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, slotTakenQuery, tableID, date.String(), slot.String()).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateTx inserts a reservation within the scope of an existing
// transaction and populates the generated ID. A live reservation already
// holding the slot surfaces as ErrDuplicate; an unknown table or user as
// ErrForeignKey. The caller must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx database.DBTX, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, table_id, reservation_date, time_slot, status, special_requests)
	           VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.UserID, res.TableID, res.Date.String(), res.TimeSlot.String(), string(res.Status),
		nullString(res.SpecialRequests))
	if err != nil {
		return translate(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// UpdateStatus sets the status of one reservation. It returns ErrNotFound
// when the id matches nothing and ErrDuplicate when reviving a cancelled
// reservation would collide with a live one on the same slot.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status model.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE reservation_id = ?`, string(status), id)
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

// Delete removes a reservation through the del_reservation routine.
// Deleting an id that does not exist is not an error.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `CALL del_reservation(?)`, id)
	return err
}

const viewColumns = `r.reservation_id, r.user_id, r.table_id,
	DATE_FORMAT(r.reservation_date, '%Y-%m-%d'), TIME_FORMAT(r.time_slot, '%H:%i:%s'),
	r.status, COALESCE(r.special_requests, ''), u.name, u.email, t.capacity`

// ListAll returns every reservation with its customer, newest slot first.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.ReservationView, error) {
	q := `SELECT ` + viewColumns + `
	      FROM reservations r
	      JOIN users u ON u.user_id = r.user_id
	      JOIN dining_tables t ON t.table_id = r.table_id
	      ORDER BY r.reservation_date DESC, r.time_slot DESC, r.reservation_id DESC`
	return r.queryViews(ctx, q)
}

// ListByEmail returns the reservation history of one customer, newest
// slot first, including the table capacity.
func (r *ReservationRepo) ListByEmail(ctx context.Context, email string) ([]model.ReservationView, error) {
	q := `SELECT ` + viewColumns + `
	      FROM reservations r
	      JOIN users u ON u.user_id = r.user_id
	      JOIN dining_tables t ON t.table_id = r.table_id
	      WHERE u.email = ?
	      ORDER BY r.reservation_date DESC, r.time_slot DESC, r.reservation_id DESC`
	return r.queryViews(ctx, q, email)
}

// GetByID returns one reservation with its customer and table.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.ReservationView, error) {
	q := `SELECT ` + viewColumns + `
	      FROM reservations r
	      JOIN users u ON u.user_id = r.user_id
	      JOIN dining_tables t ON t.table_id = r.table_id
	      WHERE r.reservation_id = ?`
	v, err := scanView(r.db.QueryRowContext(ctx, q, id))
	return v, translate(err)
}

func (r *ReservationRepo) queryViews(ctx context.Context, q string, args ...any) ([]model.ReservationView, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReservationView, 0)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanView(s scanner) (model.ReservationView, error) {
	var v model.ReservationView
	var status string
	err := s.Scan(&v.ID, &v.UserID, &v.TableID, &v.Date, &v.TimeSlot,
		&status, &v.SpecialRequests, &v.CustomerName, &v.Email, &v.TableCapacity)
	v.Status = model.Status(status)
	return v, err
}
