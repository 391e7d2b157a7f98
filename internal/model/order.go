package model

import "time"

// Order is a row of the `orders` table. TotalPrice is always the sum of
// its items at the prices in force when each item was added.
type Order struct {
	ID            uint64    `json:"order_id"`
	UserID        uint64    `json:"user_id"`
	ReservationID *uint64   `json:"reservation_id"`
	TotalPrice    Money     `json:"total_price"`
	CreatedAt     time.Time `json:"created_at"`
}

// OrderItem is a row of `order_items`. UnitPrice is copied from the menu at
// insert time.
type OrderItem struct {
	ID        uint64 `json:"order_item_id"`
	OrderID   uint64 `json:"order_id"`
	MenuID    uint64 `json:"menu_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
}

// OrderLine is one requested dish in a new order.
type OrderLine struct {
	MenuID   uint64 `json:"menu_id" form:"menu_id"`
	Quantity int    `json:"quantity" form:"quantity"`
}

// OrderRequest carries the create-order body.
type OrderRequest struct {
	UserID        uint64      `json:"user_id" form:"user_id"`
	ReservationID uint64      `json:"reservation_id" form:"reservation_id"`
	Items         []OrderLine `json:"items"`
}

// OrderItemRequest adds one dish to an existing order.
type OrderItemRequest struct {
	OrderID  uint64 `json:"order_id" form:"order_id"`
	MenuID   uint64 `json:"menu_id" form:"menu_id"`
	Quantity int    `json:"quantity" form:"quantity"`
}

// OrderSummary is one line of a customer's order history.
type OrderSummary struct {
	OrderID    uint64 `json:"order_id"`
	TotalPrice Money  `json:"total_price"`
	ItemCount  int    `json:"item_count"`
}

// OrderDetails is an order with its customer and items.
type OrderDetails struct {
	Order
	CustomerName  string      `json:"customer_name,omitempty"`
	CustomerEmail string      `json:"customer_email,omitempty"`
	Items         []OrderItem `json:"items"`
}
