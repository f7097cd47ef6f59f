package catalog

import "time"

type Store struct {
	ID      int64  `json:"id"`
	City    string `json:"city"`
	Address string `json:"address"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          int64     `json:"id"`
	CategoryID  *int64    `json:"category_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListedProduct is a catalog page row: product joined with its category name
// and the quantity on hand at the requested store.
type ListedProduct struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Category    string `json:"category,omitempty"`
	Quantity    int    `json:"quantity"`
}

type StockRow struct {
	StoreID   int64  `json:"store_id"`
	ProductID int64  `json:"product_id"`
	Product   string `json:"product"`
	Quantity  int    `json:"quantity"`
}
