package repository

import (
	"context"
	"database/sql"

	"github.com/ashroots/table-reservation/internal/calendar"
	"github.com/ashroots/table-reservation/internal/database"
	"github.com/ashroots/table-reservation/internal/model"
)

// TableRepo reads the `dining_tables` reference data. Tables are static
// and never written by the booking core.
type TableRepo struct{ db *sql.DB }

func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// List returns every table ordered by id.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT table_id, capacity FROM dining_tables ORDER BY table_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.Capacity); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// GetByIDTx loads one table inside the caller's transaction.
func (r *TableRepo) GetByIDTx(ctx context.Context, tx database.DBTX, id uint64) (model.Table, error) {
	var t model.Table
	err := tx.QueryRowContext(ctx,
		`SELECT table_id, capacity FROM dining_tables WHERE table_id = ?`, id).Scan(&t.ID, &t.Capacity)
	return t, translate(err)
}

// Availability lists every table that seats at least partySize and marks
// whether a non-cancelled reservation already holds it at date/slot. Rows
// come back available first, then closest fit, then by id.
func (r *TableRepo) Availability(ctx context.Context, date calendar.Date, slot calendar.TimeOfDay, partySize int) ([]model.TableAvailability, error) {
	const q = `SELECT t.table_id, t.capacity,
	                  CASE WHEN EXISTS (
	                      SELECT 1 FROM reservations r
	                      WHERE r.table_id = t.table_id
	                        AND r.reservation_date = ?
	                        AND r.time_slot = ?
	                        AND r.status <> 'cancelled'
	                  ) THEN 0 ELSE 1 END AS is_available
	           FROM dining_tables t
	           WHERE t.capacity >= ?
	           ORDER BY is_available DESC, ABS(CAST(t.capacity AS SIGNED) - ?) ASC, t.table_id ASC`
	rows, err := r.db.QueryContext(ctx, q, date.String(), slot.String(), partySize, partySize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TableAvailability, 0)
	for rows.Next() {
		var ta model.TableAvailability
		var avail int
		if err := rows.Scan(&ta.ID, &ta.Capacity, &avail); err != nil {
			return nil, err
		}
		ta.Available = avail == 1
		ta.CapacityDisplay = model.CapacityLabel(ta.Capacity, partySize)
		out = append(out, ta)
	}
	return out, rows.Err()
}
