package orders

import (
	"encoding/json"
	"time"
)

const EventOrderCreated = "OrderCreated"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type PlacedLine struct {
	ProductID  int64 `json:"product_id"`
	Quantity   int   `json:"quantity"`
	PriceCents int64 `json:"price_cents"`
}

type OrderCreatedPayload struct {
	OrderID    int64        `json:"order_id"`
	UserID     int64        `json:"user_id"`
	StoreID    int64        `json:"store_id"`
	Items      []PlacedLine `json:"items"`
	TotalCents int64        `json:"total_cents"`
}
