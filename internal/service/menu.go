package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/model"
)

// MenuService serves the menu and lets staff adjust stock.
type MenuService struct {
	menu        MenuStore
	log         zerolog.Logger
	stepTimeout time.Duration
}

func NewMenuService(menu MenuStore, log zerolog.Logger, stepTimeout time.Duration) *MenuService {
	if menu == nil {
		panic("nil store passed to NewMenuService")
	}
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	return &MenuService{menu: menu, log: log, stepTimeout: stepTimeout}
}

// Menu returns every dish.
func (s *MenuService) Menu(ctx context.Context) ([]model.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.menu.List(ctx)
}

// ByCategory returns the dishes of one category. Category names match
// exactly, the way the column stores them.
func (s *MenuService) ByCategory(ctx context.Context, category string) ([]model.MenuItem, error) {
	if strings.TrimSpace(category) == "" {
		return nil, invalid("category is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.menu.ListByCategory(ctx, category)
}

// WithRatings returns every dish with its review average.
func (s *MenuService) WithRatings(ctx context.Context) ([]model.MenuItemRating, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.menu.ListWithRatings(ctx)
}

// InStock returns the dishes that can still be ordered.
func (s *MenuService) InStock(ctx context.Context) ([]model.StockLevel, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.menu.InStock(ctx)
}

// Stock returns the stock of one dish.
func (s *MenuService) Stock(ctx context.Context, id uint64) (model.StockLevel, error) {
	if id == 0 {
		return model.StockLevel{}, invalid("menu_id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.menu.Stock(ctx, id)
}

// SetStock overwrites the stock of one dish and returns the new level.
func (s *MenuService) SetStock(ctx context.Context, u model.StockUpdate) (model.StockLevel, error) {
	if u.MenuID == 0 || u.StockQuantity == nil {
		return model.StockLevel{}, invalid("menu_id and stock_quantity are required")
	}
	if *u.StockQuantity < 0 {
		return model.StockLevel{}, invalid("stock_quantity cannot be negative")
	}
	ctx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	if err := s.menu.SetStock(ctx, u.MenuID, *u.StockQuantity); err != nil {
		return model.StockLevel{}, err
	}
	s.log.Info().Uint64("menu_id", u.MenuID).Int("stock_quantity", *u.StockQuantity).Msg("stock updated")
	return s.menu.Stock(ctx, u.MenuID)
}
