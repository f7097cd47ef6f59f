package orders

import "time"

type Order struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	StoreID    int64     `json:"store_id"`
	Status     Status    `json:"status"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrderLine carries the unit price captured at purchase time; later catalog
// price changes never touch it.
type OrderLine struct {
	OrderID    int64  `json:"order_id"`
	ProductID  int64  `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
	Product    string `json:"product,omitempty"`
}

// CartItem is one requested line of a client-held cart. Any price the client
// sends is not part of this type and is dropped on decode.
type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Receipt is the successful checkout result.
type Receipt struct {
	OrderID    int64       `json:"order_id"`
	TotalCents int64       `json:"total_cents"`
	Lines      []OrderLine `json:"-"`
}

type OrderWithLines struct {
	Order
	Lines []OrderLine `json:"lines"`
}
