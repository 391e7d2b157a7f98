package service

import (
	"context"

	"github.com/ashroots/table-reservation/internal/calendar"
	"github.com/ashroots/table-reservation/internal/database"
	"github.com/ashroots/table-reservation/internal/model"
)

// TxBeginner opens transactions. *database.Gateway satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (database.Tx, error)
}

// UserStore is the slice of repository.UserRepo the services use.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByEmailTx(ctx context.Context, tx database.DBTX, email string) (model.User, error)
	Create(ctx context.Context, u *model.User) error
	CreateTx(ctx context.Context, tx database.DBTX, u *model.User) error
	List(ctx context.Context) ([]model.User, error)
}

// TableStore is the slice of repository.TableRepo the services use.
type TableStore interface {
	List(ctx context.Context) ([]model.Table, error)
	GetByIDTx(ctx context.Context, tx database.DBTX, id uint64) (model.Table, error)
	Availability(ctx context.Context, date calendar.Date, slot calendar.TimeOfDay, partySize int) ([]model.TableAvailability, error)
}

// ReservationStore is the slice of repository.ReservationRepo the
// services use.
type ReservationStore interface {
	SlotTaken(ctx context.Context, tableID uint64, date calendar.Date, slot calendar.TimeOfDay) (bool, error)
	SlotTakenTx(ctx context.Context, tx database.DBTX, tableID uint64, date calendar.Date, slot calendar.TimeOfDay) (bool, error)
	CreateTx(ctx context.Context, tx database.DBTX, res *model.Reservation) error
	UpdateStatus(ctx context.Context, id uint64, status model.Status) error
	Delete(ctx context.Context, id uint64) error
	ListAll(ctx context.Context) ([]model.ReservationView, error)
	ListByEmail(ctx context.Context, email string) ([]model.ReservationView, error)
	GetByID(ctx context.Context, id uint64) (model.ReservationView, error)
}

// Notifier delivers a booking confirmation after commit. Failures are
// reported but never undo the booking.
type Notifier interface {
	Send(ctx context.Context, c model.Confirmation) error
}

// MenuStore is the slice of repository.MenuRepo the services use.
type MenuStore interface {
	List(ctx context.Context) ([]model.MenuItem, error)
	ListByCategory(ctx context.Context, category string) ([]model.MenuItem, error)
	ListWithRatings(ctx context.Context) ([]model.MenuItemRating, error)
	InStock(ctx context.Context) ([]model.StockLevel, error)
	Stock(ctx context.Context, id uint64) (model.StockLevel, error)
	SetStock(ctx context.Context, id uint64, qty int) error
	GetByIDTx(ctx context.Context, tx database.DBTX, id uint64) (model.MenuItem, error)
	TakeStockTx(ctx context.Context, tx database.DBTX, id uint64, qty int) (bool, error)
}

// OrderStore is the slice of repository.OrderRepo the services use.
type OrderStore interface {
	List(ctx context.Context) ([]model.Order, error)
	ListItems(ctx context.Context) ([]model.OrderItem, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.OrderSummary, error)
	Details(ctx context.Context, id uint64) (model.OrderDetails, error)
	CreateTx(ctx context.Context, tx database.DBTX, o *model.Order) error
	CreateItemTx(ctx context.Context, tx database.DBTX, it *model.OrderItem) error
	AddToTotalTx(ctx context.Context, tx database.DBTX, orderID uint64, amount model.Money) error
}

// ReviewStore is repository.ReviewRepo.
type ReviewStore interface {
	ListDishReviews(ctx context.Context) ([]model.DishReview, error)
	ListDishReviewsDetailed(ctx context.Context) ([]model.DishReviewView, error)
	CreateDishReview(ctx context.Context, d *model.DishReview) error
	ListStaffRatings(ctx context.Context) ([]model.StaffRating, error)
	CreateStaffRating(ctx context.Context, s *model.StaffRating) error
}
