package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/ashroots/table-reservation/internal/database"
	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/repository"
)

// Dining writes made inside a transaction are applied at once and undone
// on rollback. Readers outside the transaction can see them early, which
// none of the order tests depend on.

// AddDish seeds a menu item and returns its id.
func (s *Store) AddDish(name, category, price string, stock int) uint64 {
	p, err := model.ParseMoney(price)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uint64(len(s.menu) + 1)
	s.menu[id] = &model.MenuItem{ID: id, Name: name, Category: category, Price: p, StockQuantity: stock}
	return id
}

func (s *Store) userExists(id uint64) bool {
	for _, u := range s.users {
		if u.ID == id && u.owner == nil {
			return true
		}
	}
	return false
}

// record registers fn to run if tx rolls back. Called with the lock held.
func record(tx database.DBTX, fn func()) {
	if t := ownerOf(tx); t != nil {
		t.undo = append(t.undo, fn)
	}
}

// Menu returns the menu-store view of s.
func (s *Store) Menu() *MenuView { return &MenuView{s: s} }

// MenuView implements the menu store on top of a Store.
type MenuView struct{ s *Store }

func (v *MenuView) items(match func(model.MenuItem) bool) []model.MenuItem {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.MenuItem, 0, len(s.menu))
	for _, m := range s.menu {
		if match(*m) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (v *MenuView) List(context.Context) ([]model.MenuItem, error) {
	return v.items(func(model.MenuItem) bool { return true }), nil
}

func (v *MenuView) ListByCategory(_ context.Context, category string) ([]model.MenuItem, error) {
	return v.items(func(m model.MenuItem) bool { return m.Category == category }), nil
}

func (v *MenuView) ListWithRatings(context.Context) ([]model.MenuItemRating, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.MenuItemRating, 0, len(s.menu))
	for _, m := range s.menu {
		r := model.MenuItemRating{ID: m.ID, Name: m.Name, Category: m.Category, Price: m.Price}
		sum := 0
		for _, d := range s.dishReviews {
			if d.MenuID == m.ID {
				sum += d.Rating
				r.ReviewCount++
			}
		}
		if r.ReviewCount > 0 {
			r.AvgRating = float64(sum) / float64(r.ReviewCount)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgRating != out[j].AvgRating {
			return out[i].AvgRating > out[j].AvgRating
		}
		if out[i].ReviewCount != out[j].ReviewCount {
			return out[i].ReviewCount > out[j].ReviewCount
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *MenuView) InStock(context.Context) ([]model.StockLevel, error) {
	items := v.items(func(m model.MenuItem) bool { return m.StockQuantity > 0 })
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	out := make([]model.StockLevel, 0, len(items))
	for _, m := range items {
		out = append(out, model.StockLevel{MenuID: m.ID, Name: m.Name, StockQuantity: m.StockQuantity})
	}
	return out, nil
}

func (v *MenuView) Stock(_ context.Context, id uint64) (model.StockLevel, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menu[id]
	if !ok {
		return model.StockLevel{}, repository.ErrNotFound
	}
	return model.StockLevel{MenuID: m.ID, Name: m.Name, StockQuantity: m.StockQuantity}, nil
}

func (v *MenuView) SetStock(_ context.Context, id uint64, qty int) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menu[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.StockQuantity = qty
	return nil
}

func (v *MenuView) GetByIDTx(_ context.Context, _ database.DBTX, id uint64) (model.MenuItem, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menu[id]
	if !ok {
		return model.MenuItem{}, repository.ErrNotFound
	}
	return *m, nil
}

func (v *MenuView) TakeStockTx(_ context.Context, tx database.DBTX, id uint64, qty int) (bool, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menu[id]
	if !ok || m.StockQuantity < qty {
		return false, nil
	}
	m.StockQuantity -= qty
	record(tx, func() { m.StockQuantity += qty })
	return true, nil
}

// Orders returns the order-store view of s.
func (s *Store) Orders() *OrderView { return &OrderView{s: s} }

// OrderView implements the order store on top of a Store.
type OrderView struct{ s *Store }

func (v *OrderView) List(context.Context) ([]model.Order, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0, len(s.orders))
	for i := len(s.orders) - 1; i >= 0; i-- {
		out = append(out, *s.orders[i])
	}
	return out, nil
}

func (v *OrderView) ListItems(context.Context) ([]model.OrderItem, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OrderItem, 0, len(s.orderItems))
	for _, it := range s.orderItems {
		out = append(out, *it)
	}
	return out, nil
}

func (v *OrderView) ListByUser(_ context.Context, userID uint64) ([]model.OrderSummary, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OrderSummary, 0)
	for i := len(s.orders) - 1; i >= 0; i-- {
		o := s.orders[i]
		if o.UserID != userID {
			continue
		}
		sum := model.OrderSummary{OrderID: o.ID, TotalPrice: o.TotalPrice}
		for _, it := range s.orderItems {
			if it.OrderID == o.ID {
				sum.ItemCount++
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

func (v *OrderView) Details(_ context.Context, id uint64) (model.OrderDetails, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID != id {
			continue
		}
		d := model.OrderDetails{Order: *o, Items: make([]model.OrderItem, 0)}
		for _, u := range s.users {
			if u.ID == o.UserID {
				d.CustomerName, d.CustomerEmail = u.Name, u.Email
			}
		}
		for _, it := range s.orderItems {
			if it.OrderID == id {
				d.Items = append(d.Items, *it)
			}
		}
		return d, nil
	}
	return model.OrderDetails{}, repository.ErrNotFound
}

func (v *OrderView) CreateTx(_ context.Context, tx database.DBTX, o *model.Order) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.userExists(o.UserID) {
		return repository.ErrForeignKey
	}
	if o.ReservationID != nil {
		found := false
		for _, r := range s.reservations {
			found = found || (r.ID == *o.ReservationID && r.owner == nil)
		}
		if !found {
			return repository.ErrForeignKey
		}
	}
	s.nextOrder++
	o.ID = s.nextOrder
	o.CreatedAt = time.Now().UTC()
	row := *o
	s.orders = append(s.orders, &row)
	record(tx, func() { s.orders = dropOrder(s.orders, row.ID) })
	return nil
}

func dropOrder(orders []*model.Order, id uint64) []*model.Order {
	out := orders[:0]
	for _, o := range orders {
		if o.ID != id {
			out = append(out, o)
		}
	}
	return out
}

func (v *OrderView) CreateItemTx(_ context.Context, tx database.DBTX, it *model.OrderItem) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order(it.OrderID) == nil || s.menu[it.MenuID] == nil {
		return repository.ErrForeignKey
	}
	s.nextItem++
	it.ID = s.nextItem
	row := *it
	s.orderItems = append(s.orderItems, &row)
	record(tx, func() {
		out := s.orderItems[:0]
		for _, x := range s.orderItems {
			if x.ID != row.ID {
				out = append(out, x)
			}
		}
		s.orderItems = out
	})
	return nil
}

func (v *OrderView) AddToTotalTx(_ context.Context, tx database.DBTX, orderID uint64, amount model.Money) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.order(orderID)
	if o == nil {
		return repository.ErrNotFound
	}
	o.TotalPrice += amount
	record(tx, func() { o.TotalPrice -= amount })
	return nil
}

func (s *Store) order(id uint64) *model.Order {
	for _, o := range s.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// Reviews returns the review-store view of s.
func (s *Store) Reviews() *ReviewView { return &ReviewView{s: s} }

// ReviewView implements the review store on top of a Store.
type ReviewView struct{ s *Store }

func (v *ReviewView) ListDishReviews(context.Context) ([]model.DishReview, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.DishReview, 0, len(s.dishReviews))
	for i := len(s.dishReviews) - 1; i >= 0; i-- {
		out = append(out, s.dishReviews[i])
	}
	return out, nil
}

func (v *ReviewView) ListDishReviewsDetailed(ctx context.Context) ([]model.DishReviewView, error) {
	list, _ := v.ListDishReviews(ctx)
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.DishReviewView, 0, len(list))
	for _, d := range list {
		dv := model.DishReviewView{DishReview: d, DishName: s.menu[d.MenuID].Name}
		for _, u := range s.users {
			if u.ID == d.UserID {
				dv.CustomerName = u.Name
			}
		}
		out = append(out, dv)
	}
	return out, nil
}

func (v *ReviewView) CreateDishReview(_ context.Context, d *model.DishReview) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.userExists(d.UserID) || s.menu[d.MenuID] == nil {
		return repository.ErrForeignKey
	}
	s.nextReview++
	d.ID = s.nextReview
	d.CreatedAt = time.Now().UTC()
	s.dishReviews = append(s.dishReviews, *d)
	return nil
}

func (v *ReviewView) ListStaffRatings(context.Context) ([]model.StaffRating, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.StaffRating, 0, len(s.staffRatings))
	for i := len(s.staffRatings) - 1; i >= 0; i-- {
		out = append(out, s.staffRatings[i])
	}
	return out, nil
}

func (v *ReviewView) CreateStaffRating(_ context.Context, r *model.StaffRating) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.userExists(r.UserID) {
		return repository.ErrForeignKey
	}
	r.ID = uint64(len(s.staffRatings) + 1)
	r.CreatedAt = time.Now().UTC()
	s.staffRatings = append(s.staffRatings, *r)
	return nil
}
