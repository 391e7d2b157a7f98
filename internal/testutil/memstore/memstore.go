// Package memstore is an in-memory stand-in for the MySQL repositories. It
// keeps the two properties the booking flow relies on: statements issued
// inside a transaction are invisible to other readers until commit, and a
// write that collides with a pending row on a unique key waits for the
// owning transaction to finish before failing or succeeding, the way
// InnoDB does.
//
// It is a test double for the service and router tests and is never linked
// into the server. Its Tx carries no SQL connection: handing it to a
// repository method fails with errNotSQL, or panics with it where
// database/sql leaves no way to return an error.
package memstore

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ashroots/table-reservation/internal/calendar"
	"github.com/ashroots/table-reservation/internal/database"
	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/repository"
)

var errNotSQL = errors.New("memstore: raw SQL is not supported")

type userRow struct {
	model.User
	owner *Tx
}

type reservationRow struct {
	model.Reservation
	owner *Tx
}

// Store holds users, tables, reservations and the dining side: menu,
// orders and reviews.
type Store struct {
	mu   sync.Mutex
	cond *sync.Cond

	users        []*userRow
	tables       map[uint64]model.Table
	reservations []*reservationRow
	nextUser     uint64
	nextRes      uint64

	menu         map[uint64]*model.MenuItem
	orders       []*model.Order
	orderItems   []*model.OrderItem
	dishReviews  []model.DishReview
	staffRatings []model.StaffRating
	nextOrder    uint64
	nextItem     uint64
	nextReview   uint64

	commits   int
	rollbacks int

	// OnSlotCheckTx runs at the start of every in-transaction slot check,
	// outside the store lock.
	OnSlotCheckTx func()
	// BeforeInsert runs before every reservation insert, outside the lock.
	BeforeInsert func()
	// FailCreateReservation, when set, is returned by CreateTx.
	FailCreateReservation error
	// FailTableLookup, when set, is returned by GetByIDTx.
	FailTableLookup error
}

// New returns a store seeded with tables of the given capacities, numbered
// from 1.
func New(capacities ...int) *Store {
	s := &Store{tables: make(map[uint64]model.Table), menu: make(map[uint64]*model.MenuItem)}
	s.cond = sync.NewCond(&s.mu)
	for i, c := range capacities {
		id := uint64(i + 1)
		s.tables[id] = model.Table{ID: id, Capacity: c}
	}
	return s
}

// Commits reports how many transactions committed.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Rollbacks reports how many transactions rolled back.
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

// Tx is a pending unit of work. It satisfies database.Tx so it can be
// handed to the repository-shaped methods, but rejects raw SQL.
type Tx struct {
	s    *Store
	done bool
	undo []func() // run under the store lock, newest first, on rollback
}

func (t *Tx) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errNotSQL
}

func (t *Tx) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errNotSQL
}

func (t *Tx) QueryRowContext(context.Context, string, ...any) *sql.Row { panic(errNotSQL) }

func (t *Tx) Commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	for _, u := range s.users {
		if u.owner == t {
			u.owner = nil
		}
	}
	for _, r := range s.reservations {
		if r.owner == t {
			r.owner = nil
		}
	}
	s.commits++
	s.cond.Broadcast()
	return nil
}

func (t *Tx) Rollback() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	users := s.users[:0]
	for _, u := range s.users {
		if u.owner != t {
			users = append(users, u)
		}
	}
	s.users = users
	res := s.reservations[:0]
	for _, r := range s.reservations {
		if r.owner != t {
			res = append(res, r)
		}
	}
	s.reservations = res
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	s.rollbacks++
	s.cond.Broadcast()
	return nil
}

// Begin opens a transaction.
func (s *Store) Begin(context.Context) (database.Tx, error) {
	return &Tx{s: s}, nil
}

func ownerOf(tx database.DBTX) *Tx {
	if t, ok := tx.(*Tx); ok {
		return t
	}
	return nil
}

// visible reports whether a row written by owner can be seen by reader.
func visible(owner, reader *Tx) bool { return owner == nil || owner == reader }

// Users

func (s *Store) findUser(email string, reader *Tx) (model.User, bool) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) && visible(u.owner, reader) {
			return u.User, true
		}
	}
	return model.User{}, false
}

func (s *Store) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return s.GetByEmailTx(ctx, nil, email)
}

func (s *Store) GetByEmailTx(_ context.Context, tx database.DBTX, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.findUser(email, ownerOf(tx)); ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Store) Create(ctx context.Context, u *model.User) error {
	tx, _ := s.Begin(ctx)
	if err := s.CreateTx(ctx, tx, u); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) CreateTx(_ context.Context, tx database.DBTX, u *model.User) error {
	owner := ownerOf(tx)
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		var clash *userRow
		for _, row := range s.users {
			if strings.EqualFold(row.Email, u.Email) {
				clash = row
				break
			}
		}
		if clash == nil {
			break
		}
		if clash.owner == nil || clash.owner == owner {
			return repository.ErrDuplicate
		}
		s.cond.Wait()
	}
	s.nextUser++
	u.ID = s.nextUser
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users = append(s.users, &userRow{User: *u, owner: owner})
	return nil
}

func (s *Store) List(context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		if u.owner == nil {
			out = append(out, u.User)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Tables. The Store itself already has a List method for users, so tables
// are exposed through the Tables view.

// Tables returns the table-store view of s.
func (s *Store) Tables() *TableView { return &TableView{s: s} }

// TableView implements the table store on top of a Store.
type TableView struct{ s *Store }

func (v *TableView) List(context.Context) ([]model.Table, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *TableView) GetByIDTx(_ context.Context, _ database.DBTX, id uint64) (model.Table, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailTableLookup != nil {
		return model.Table{}, s.FailTableLookup
	}
	t, ok := s.tables[id]
	if !ok {
		return model.Table{}, repository.ErrNotFound
	}
	return t, nil
}

func (v *TableView) Availability(_ context.Context, date calendar.Date, slot calendar.TimeOfDay, partySize int) ([]model.TableAvailability, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TableAvailability, 0, len(s.tables))
	for _, t := range s.tables {
		if t.Capacity < partySize {
			continue
		}
		out = append(out, model.TableAvailability{
			Table:           t,
			CapacityDisplay: model.CapacityLabel(t.Capacity, partySize),
			Available:       !s.slotTaken(t.ID, date, slot, nil),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Reservations are exposed through the Reservations view for the same
// reason as tables.

// Reservations returns the reservation-store view of s.
func (s *Store) Reservations() *ReservationView { return &ReservationView{s: s} }

// ReservationView implements the reservation store on top of a Store.
type ReservationView struct{ s *Store }

func sameSlot(r *reservationRow, tableID uint64, date calendar.Date, slot calendar.TimeOfDay) bool {
	return r.TableID == tableID && r.Date == date && r.TimeSlot == slot
}

func (s *Store) slotTaken(tableID uint64, date calendar.Date, slot calendar.TimeOfDay, reader *Tx) bool {
	for _, r := range s.reservations {
		if sameSlot(r, tableID, date, slot) && r.Status.Blocks() && visible(r.owner, reader) {
			return true
		}
	}
	return false
}

func (v *ReservationView) SlotTaken(ctx context.Context, tableID uint64, date calendar.Date, slot calendar.TimeOfDay) (bool, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotTaken(tableID, date, slot, nil), nil
}

func (v *ReservationView) SlotTakenTx(_ context.Context, tx database.DBTX, tableID uint64, date calendar.Date, slot calendar.TimeOfDay) (bool, error) {
	s := v.s
	if hook := s.OnSlotCheckTx; hook != nil {
		hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotTaken(tableID, date, slot, ownerOf(tx)), nil
}

func (v *ReservationView) CreateTx(_ context.Context, tx database.DBTX, res *model.Reservation) error {
	s := v.s
	if hook := s.BeforeInsert; hook != nil {
		hook()
	}
	owner := ownerOf(tx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateReservation != nil {
		return s.FailCreateReservation
	}
	if _, ok := s.tables[res.TableID]; !ok {
		return repository.ErrForeignKey
	}
	if res.Status.Blocks() {
		for {
			clash := s.liveClash(res.TableID, res.Date, res.TimeSlot, 0)
			if clash == nil {
				break
			}
			if clash.owner == nil || clash.owner == owner {
				return repository.ErrDuplicate
			}
			s.cond.Wait()
		}
	}
	s.nextRes++
	res.ID = s.nextRes
	s.reservations = append(s.reservations, &reservationRow{Reservation: *res, owner: owner})
	return nil
}

// liveClash returns any row, pending or committed, that holds the slot
// with a blocking status, ignoring the row with id skip.
func (s *Store) liveClash(tableID uint64, date calendar.Date, slot calendar.TimeOfDay, skip uint64) *reservationRow {
	for _, r := range s.reservations {
		if r.ID != skip && sameSlot(r, tableID, date, slot) && r.Status.Blocks() {
			return r
		}
	}
	return nil
}

func (v *ReservationView) UpdateStatus(_ context.Context, id uint64, status model.Status) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.ID != id || r.owner != nil {
			continue
		}
		if status.Blocks() {
			if clash := s.liveClash(r.TableID, r.Date, r.TimeSlot, r.ID); clash != nil {
				return repository.ErrDuplicate
			}
		}
		r.Status = status
		return nil
	}
	return repository.ErrNotFound
}

func (v *ReservationView) Delete(_ context.Context, id uint64) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.reservations {
		if r.ID == id && r.owner == nil {
			s.reservations = append(s.reservations[:i], s.reservations[i+1:]...)
			s.cond.Broadcast()
			return nil
		}
	}
	return nil
}

func (s *Store) view(r *reservationRow) model.ReservationView {
	v := model.ReservationView{Reservation: r.Reservation, TableCapacity: s.tables[r.TableID].Capacity}
	for _, u := range s.users {
		if u.ID == r.UserID {
			v.CustomerName = u.Name
			v.Email = u.Email
			break
		}
	}
	return v
}

func (v *ReservationView) collect(match func(model.ReservationView) bool) []model.ReservationView {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ReservationView, 0)
	for _, r := range s.reservations {
		if r.owner != nil {
			continue
		}
		rv := s.view(r)
		if match(rv) {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date.String() > b.Date.String()
		}
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot.String() > b.TimeSlot.String()
		}
		return a.ID > b.ID
	})
	return out
}

func (v *ReservationView) ListAll(context.Context) ([]model.ReservationView, error) {
	return v.collect(func(model.ReservationView) bool { return true }), nil
}

func (v *ReservationView) ListByEmail(_ context.Context, email string) ([]model.ReservationView, error) {
	return v.collect(func(rv model.ReservationView) bool { return strings.EqualFold(rv.Email, email) }), nil
}

func (v *ReservationView) GetByID(_ context.Context, id uint64) (model.ReservationView, error) {
	found := v.collect(func(rv model.ReservationView) bool { return rv.ID == id })
	if len(found) == 0 {
		return model.ReservationView{}, repository.ErrNotFound
	}
	return found[0], nil
}
