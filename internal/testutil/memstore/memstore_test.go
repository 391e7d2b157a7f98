package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashroots/table-reservation/internal/calendar"
	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/repository"
)

var (
	day  = calendar.Date{Year: 2026, Month: time.May, Day: 2}
	slot = calendar.TimeOfDay{Hour: 18}
)

func TestPendingRowsAreInvisible(t *testing.T) {
	s := New(4)
	ctx := context.Background()
	rs := s.Reservations()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, rs.CreateTx(ctx, tx, &model.Reservation{TableID: 1, Date: day, TimeSlot: slot, Status: model.StatusConfirmed}))

	taken, err := rs.SlotTaken(ctx, 1, day, slot)
	require.NoError(t, err)
	assert.False(t, taken)
	taken, err = rs.SlotTakenTx(ctx, tx, 1, day, slot)
	require.NoError(t, err)
	assert.True(t, taken)

	require.NoError(t, tx.Commit())
	taken, err = rs.SlotTaken(ctx, 1, day, slot)
	require.NoError(t, err)
	assert.True(t, taken)
	assert.Error(t, tx.Rollback())
}

func TestCollidingInsertWaitsForOwner(t *testing.T) {
	s := New(4)
	ctx := context.Background()
	rs := s.Reservations()

	first, _ := s.Begin(ctx)
	require.NoError(t, rs.CreateTx(ctx, first, &model.Reservation{TableID: 1, Date: day, TimeSlot: slot, Status: model.StatusConfirmed}))

	second, _ := s.Begin(ctx)
	done := make(chan error, 1)
	go func() {
		done <- rs.CreateTx(ctx, second, &model.Reservation{TableID: 1, Date: day, TimeSlot: slot, Status: model.StatusPending})
	}()

	select {
	case err := <-done:
		t.Fatalf("insert returned before the owner finished: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	require.NoError(t, first.Rollback())
	require.NoError(t, <-done, "slot freed by rollback")
	require.NoError(t, second.Commit())

	third, _ := s.Begin(ctx)
	err := rs.CreateTx(ctx, third, &model.Reservation{TableID: 1, Date: day, TimeSlot: slot, Status: model.StatusConfirmed})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	// cancelled rows never collide
	err = rs.CreateTx(ctx, third, &model.Reservation{TableID: 1, Date: day, TimeSlot: slot, Status: model.StatusCancelled})
	assert.NoError(t, err)
	err = rs.CreateTx(ctx, third, &model.Reservation{TableID: 2, Date: day, TimeSlot: slot, Status: model.StatusConfirmed})
	assert.ErrorIs(t, err, repository.ErrForeignKey)
}

func TestUsersUniqueByEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &model.User{Email: "x@example.com"}))
	assert.ErrorIs(t, s.Create(ctx, &model.User{Email: "X@example.com"}), repository.ErrDuplicate)
}

func TestTxRejectsRawSQL(t *testing.T) {
	s := New(4)
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(context.Background(), "DELETE FROM reservations")
	assert.ErrorIs(t, err, errNotSQL)
	_, err = tx.QueryContext(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, errNotSQL)
	assert.PanicsWithValue(t, errNotSQL, func() {
		tx.QueryRowContext(context.Background(), "SELECT 1")
	})
}

func TestDiningRollbackUndoesWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleCustomer}
	require.NoError(t, s.Create(ctx, &u))
	soup := s.AddDish("Soup", "starter", "4.50", 3)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	o := model.Order{UserID: u.ID}
	require.NoError(t, s.Orders().CreateTx(ctx, tx, &o))
	took, err := s.Menu().TakeStockTx(ctx, tx, soup, 2)
	require.NoError(t, err)
	assert.True(t, took)
	require.NoError(t, s.Orders().CreateItemTx(ctx, tx, &model.OrderItem{OrderID: o.ID, MenuID: soup, Quantity: 2, UnitPrice: 450}))
	require.NoError(t, s.Orders().AddToTotalTx(ctx, tx, o.ID, 900))
	require.NoError(t, tx.Rollback())

	lvl, err := s.Menu().Stock(ctx, soup)
	require.NoError(t, err)
	assert.Equal(t, 3, lvl.StockQuantity)
	orders, err := s.Orders().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	items, err := s.Orders().ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	took, err = s.Menu().TakeStockTx(ctx, nil, soup, 4)
	require.NoError(t, err)
	assert.False(t, took)
}
