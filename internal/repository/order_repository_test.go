package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashroots/table-reservation/internal/model"
)

func TestOrderWrites(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)
	ctx := context.Background()
	insert := regexp.QuoteMeta("INSERT INTO orders (user_id, reservation_id, total_price) VALUES (?, ?, ?)")

	tx := inTx(t, db, mock)
	mock.ExpectExec(insert).WithArgs(uint64(1), nil, "0.00").WillReturnResult(sqlmock.NewResult(30, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items (order_id, menu_id, quantity, unit_price)")).
		WithArgs(uint64(30), uint64(2), 3, "21.00").
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET total_price = total_price + ? WHERE order_id = ?")).
		WithArgs("63.00", uint64(30)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o := model.Order{UserID: 1}
	require.NoError(t, repo.CreateTx(ctx, tx, &o))
	assert.Equal(t, uint64(30), o.ID)
	it := model.OrderItem{OrderID: o.ID, MenuID: 2, Quantity: 3, UnitPrice: 2100}
	require.NoError(t, repo.CreateItemTx(ctx, tx, &it))
	assert.Equal(t, uint64(41), it.ID)
	require.NoError(t, repo.AddToTotalTx(ctx, tx, o.ID, it.UnitPrice.Times(it.Quantity)))
	require.NoError(t, tx.Commit())
}

func TestOrderWriteErrors(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)
	ctx := context.Background()

	tx := inTx(t, db, mock)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(uint64(1), int64(7), "0.00").
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "fk_orders_reservation"})
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET total_price")).
		WithArgs("1.00", uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	res := uint64(7)
	err := repo.CreateTx(ctx, tx, &model.Order{UserID: 1, ReservationID: &res})
	assert.ErrorIs(t, err, ErrForeignKey)
	assert.ErrorIs(t, repo.AddToTotalTx(ctx, tx, 99, 100), ErrNotFound)
	require.NoError(t, tx.Rollback())
}

func TestOrderReads(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)
	ctx := context.Background()
	at := time.Date(2024, 6, 1, 19, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON u.user_id = o.user_id WHERE o.order_id = ?")).
		WithArgs(uint64(30)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "user_id", "reservation_id", "total_price", "created_at", "name", "email"}).
			AddRow(30, 1, nil, []byte("63.00"), at, "Ada", "ada@example.com"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id = ?")).
		WithArgs(uint64(30)).
		WillReturnRows(sqlmock.NewRows([]string{"order_item_id", "order_id", "menu_id", "quantity", "unit_price"}).
			AddRow(41, 30, 2, 3, []byte("21.00")))

	d, err := repo.Details(ctx, 30)
	require.NoError(t, err)
	assert.Nil(t, d.ReservationID)
	assert.Equal(t, "63.00", d.TotalPrice.String())
	assert.Equal(t, "ada@example.com", d.CustomerEmail)
	require.Len(t, d.Items, 1)
	assert.Equal(t, model.Money(2100), d.Items[0].UnitPrice)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.order_id = ?")).
		WithArgs(uint64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))
	_, err = repo.Details(ctx, 31)
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN order_items oi ON oi.order_id = o.order_id WHERE o.user_id = ?")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "total_price", "item_count"}).
			AddRow(32, []byte("0.00"), 0).
			AddRow(30, []byte("63.00"), 1))
	hist, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.OrderSummary{
		{OrderID: 32, TotalPrice: 0, ItemCount: 0},
		{OrderID: 30, TotalPrice: 6300, ItemCount: 1},
	}, hist)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o ORDER BY o.order_id DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "user_id", "reservation_id", "total_price", "created_at"}).
			AddRow(30, 1, 7, []byte("63.00"), at))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].ReservationID)
	assert.Equal(t, uint64(7), *all[0].ReservationID)
}
