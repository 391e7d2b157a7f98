package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/database"
	"github.com/ashroots/table-reservation/internal/metrics"
	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/repository"
)

const maxOrderQuantity = 100

// OrderService places food orders against menu stock.
//
// Prices come from the menu at the moment each item is added, never from
// the client, and an order's total is kept equal to the sum of its items.
// Stock is taken inside the same transaction as the items, so a failed
// line undoes the whole order.
type OrderService struct {
	tx          TxBeginner
	menu        MenuStore
	orders      OrderStore
	log         zerolog.Logger
	stepTimeout time.Duration
}

// OrderDeps groups OrderService collaborators.
type OrderDeps struct {
	Tx          TxBeginner
	Menu        MenuStore
	Orders      OrderStore
	Log         zerolog.Logger
	StepTimeout time.Duration
}

func NewOrderService(d OrderDeps) *OrderService {
	if d.Tx == nil || d.Menu == nil || d.Orders == nil {
		panic("nil dependency passed to NewOrderService")
	}
	if d.StepTimeout <= 0 {
		d.StepTimeout = 5 * time.Second
	}
	return &OrderService{tx: d.Tx, menu: d.Menu, orders: d.Orders, log: d.Log, stepTimeout: d.StepTimeout}
}

func (s *OrderService) step(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.stepTimeout)
}

// List returns every order.
func (s *OrderService) List(ctx context.Context) ([]model.Order, error) {
	ctx, cancel := s.step(ctx)
	defer cancel()
	return s.orders.List(ctx)
}

// ListItems returns every order item.
func (s *OrderService) ListItems(ctx context.Context) ([]model.OrderItem, error) {
	ctx, cancel := s.step(ctx)
	defer cancel()
	return s.orders.ListItems(ctx)
}

// ByUser returns one customer's order history.
func (s *OrderService) ByUser(ctx context.Context, userID uint64) ([]model.OrderSummary, error) {
	if userID == 0 {
		return nil, invalid("user_id is required")
	}
	ctx, cancel := s.step(ctx)
	defer cancel()
	return s.orders.ListByUser(ctx, userID)
}

// Details returns one order with its items.
func (s *OrderService) Details(ctx context.Context, id uint64) (model.OrderDetails, error) {
	if id == 0 {
		return model.OrderDetails{}, invalid("order_id is required")
	}
	ctx, cancel := s.step(ctx)
	defer cancel()
	return s.orders.Details(ctx, id)
}

// mergeLines validates lines and folds repeated dishes together. The result
// is sorted by menu id so concurrent orders lock menu rows in one order.
func mergeLines(lines []model.OrderLine) ([]model.OrderLine, error) {
	if len(lines) == 0 {
		return nil, invalid("an order needs at least one item")
	}
	byID := make(map[uint64]int, len(lines))
	for _, l := range lines {
		if l.MenuID == 0 {
			return nil, invalid("menu_id is required for every item")
		}
		if l.Quantity <= 0 {
			return nil, invalid("quantity must be a positive integer")
		}
		byID[l.MenuID] += l.Quantity
		if byID[l.MenuID] > maxOrderQuantity {
			return nil, invalid("at most %d portions of one dish per order", maxOrderQuantity)
		}
	}
	out := make([]model.OrderLine, 0, len(byID))
	for id, q := range byID {
		out = append(out, model.OrderLine{MenuID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MenuID < out[j].MenuID })
	return out, nil
}

// PlaceOrder creates an order with its items and takes their stock.
func (s *OrderService) PlaceOrder(ctx context.Context, req model.OrderRequest) (model.OrderDetails, error) {
	d, outcome, err := s.placeOrder(ctx, req)
	metrics.IncOrder("order", outcome)
	return d, err
}

func (s *OrderService) placeOrder(ctx context.Context, req model.OrderRequest) (model.OrderDetails, string, error) {
	if req.UserID == 0 {
		return model.OrderDetails{}, "invalid", invalid("user_id is required")
	}
	lines, err := mergeLines(req.Items)
	if err != nil {
		return model.OrderDetails{}, "invalid", err
	}
	log := s.log.With().Uint64("user_id", req.UserID).Logger()

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return model.OrderDetails{}, "error", err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Warn().Err(rbErr).Msg("rollback failed")
			}
		}
	}()

	o := model.Order{UserID: req.UserID}
	if req.ReservationID != 0 {
		id := req.ReservationID
		o.ReservationID = &id
	}
	sctx, cancel := s.step(ctx)
	err = s.orders.CreateTx(sctx, tx, &o)
	cancel()
	if errors.Is(err, repository.ErrForeignKey) {
		return model.OrderDetails{}, "invalid", ErrUnknownReference
	}
	if err != nil {
		return model.OrderDetails{}, "error", fmt.Errorf("insert order: %w", err)
	}

	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		it, outcome, err := s.addLine(ctx, tx, o.ID, l)
		if err != nil {
			if outcome == "out_of_stock" {
				log.Info().Uint64("menu_id", l.MenuID).Int("quantity", l.Quantity).Msg("order rejected: out of stock")
			}
			return model.OrderDetails{}, outcome, err
		}
		items = append(items, it)
		o.TotalPrice += it.UnitPrice.Times(it.Quantity)
	}

	sctx, cancel = s.step(ctx)
	err = s.orders.AddToTotalTx(sctx, tx, o.ID, o.TotalPrice)
	cancel()
	if err != nil {
		return model.OrderDetails{}, "error", fmt.Errorf("update total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.OrderDetails{}, "error", fmt.Errorf("commit order: %w", err)
	}
	committed = true
	o.CreatedAt = time.Now().UTC()
	log.Info().Uint64("order_id", o.ID).Str("total", o.TotalPrice.String()).Int("items", len(items)).Msg("order placed")
	return model.OrderDetails{Order: o, Items: items}, "created", nil
}

// AddItem adds one dish to an existing order, takes its stock and raises
// the order total.
func (s *OrderService) AddItem(ctx context.Context, req model.OrderItemRequest) (model.OrderItem, error) {
	it, outcome, err := s.addItem(ctx, req)
	metrics.IncOrder("item", outcome)
	return it, err
}

func (s *OrderService) addItem(ctx context.Context, req model.OrderItemRequest) (model.OrderItem, string, error) {
	if req.OrderID == 0 {
		return model.OrderItem{}, "invalid", invalid("order_id is required")
	}
	lines, err := mergeLines([]model.OrderLine{{MenuID: req.MenuID, Quantity: req.Quantity}})
	if err != nil {
		return model.OrderItem{}, "invalid", err
	}
	log := s.log.With().Uint64("order_id", req.OrderID).Logger()

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return model.OrderItem{}, "error", err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Warn().Err(rbErr).Msg("rollback failed")
			}
		}
	}()

	it, outcome, err := s.addLine(ctx, tx, req.OrderID, lines[0])
	if err != nil {
		return model.OrderItem{}, outcome, err
	}
	// the order row is locked here until commit, so concurrent additions
	// to one order serialize on it
	sctx, cancel := s.step(ctx)
	err = s.orders.AddToTotalTx(sctx, tx, req.OrderID, it.UnitPrice.Times(it.Quantity))
	cancel()
	if err != nil {
		return model.OrderItem{}, "error", fmt.Errorf("update total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.OrderItem{}, "error", fmt.Errorf("commit item: %w", err)
	}
	committed = true
	log.Info().Uint64("menu_id", it.MenuID).Int("quantity", it.Quantity).Msg("order item added")
	return it, "created", nil
}

// addLine prices one line from the menu, takes its stock and inserts the
// item. An unknown order surfaces as repository.ErrNotFound.
func (s *OrderService) addLine(ctx context.Context, tx database.DBTX, orderID uint64, l model.OrderLine) (model.OrderItem, string, error) {
	sctx, cancel := s.step(ctx)
	dish, err := s.menu.GetByIDTx(sctx, tx, l.MenuID)
	cancel()
	if errors.Is(err, repository.ErrNotFound) {
		return model.OrderItem{}, "invalid", fmt.Errorf("%w: %d", ErrUnknownMenuItem, l.MenuID)
	}
	if err != nil {
		return model.OrderItem{}, "error", fmt.Errorf("load menu item: %w", err)
	}

	sctx, cancel = s.step(ctx)
	took, err := s.menu.TakeStockTx(sctx, tx, l.MenuID, l.Quantity)
	cancel()
	if err != nil {
		return model.OrderItem{}, "error", fmt.Errorf("take stock: %w", err)
	}
	if !took {
		return model.OrderItem{}, "out_of_stock", fmt.Errorf("%w for %s", ErrOutOfStock, dish.Name)
	}

	it := model.OrderItem{OrderID: orderID, MenuID: l.MenuID, Quantity: l.Quantity, UnitPrice: dish.Price}
	sctx, cancel = s.step(ctx)
	err = s.orders.CreateItemTx(sctx, tx, &it)
	cancel()
	if errors.Is(err, repository.ErrForeignKey) {
		return model.OrderItem{}, "invalid", repository.ErrNotFound
	}
	if err != nil {
		return model.OrderItem{}, "error", fmt.Errorf("insert order item: %w", err)
	}
	return it, "", nil
}
