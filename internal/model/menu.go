package model

// MenuItem is a row of the `menu` table. StockQuantity is the number of
// portions that can still be ordered.
type MenuItem struct {
	ID            uint64 `json:"menu_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category"`
	Price         Money  `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
}

// MenuItemRating is a dish with the aggregate of its reviews. Dishes
// without reviews have a zero average and count.
type MenuItemRating struct {
	ID          uint64  `json:"menu_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       Money   `json:"price"`
	AvgRating   float64 `json:"avg_rating"`
	ReviewCount int     `json:"review_count"`
}

// StockLevel is the stock view of a dish.
type StockLevel struct {
	MenuID        uint64 `json:"menu_id"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stock_quantity"`
}

// StockUpdate sets the stock of one dish.
type StockUpdate struct {
	MenuID        uint64 `json:"menu_id" form:"menu_id"`
	StockQuantity *int   `json:"stock_quantity" form:"stock_quantity"`
}
