package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/marketgrid/storefront/internal/auth"
	kafkax "github.com/marketgrid/storefront/internal/kafka"
	"github.com/marketgrid/storefront/internal/orders"
	"github.com/marketgrid/storefront/internal/redisx"
	"github.com/marketgrid/storefront/internal/users"
)

// OrderPlacer is the checkout entry point; *orders.Repo is the production
// implementation.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID, storeID int64, items []orders.CartItem) (*orders.Receipt, error)
}

// OrderReader serves order lookups for customers and their history.
type OrderReader interface {
	GetWithLines(ctx context.Context, orderID int64) (orders.OrderWithLines, error)
	ListByUser(ctx context.Context, userID int64) ([]orders.Order, error)
}

// Publisher is satisfied by *kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Placer   OrderPlacer
	Reader   OrderReader
	Producer Publisher
	Redis    *redis.Client
	Service  string
}

type checkoutReq struct {
	StoreID int64             `json:"store_id"`
	Items   []orders.CartItem `json:"items"`
}

type checkoutResp struct {
	OrderID    int64 `json:"order_id"`
	TotalCents int64 `json:"total_cents"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/api/orders", h.checkout)
	r.Get("/api/orders/my", h.myOrders)
	r.Get("/api/orders/{id}", h.getOrder)
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}

	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Placer.PlaceOrder(ctx, id.UserID, req.StoreID, req.Items)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}

	if h.Redis != nil {
		statusKey := fmt.Sprintf(redisx.KeyOrderStatus, rec.OrderID)
		_ = h.Redis.Set(ctx, statusKey, `{"status":"new"}`, redisx.TTLStatusCache).Err()
	}

	h.publishCreated(r, id.UserID, req.StoreID, rec)

	writeJSON(w, http.StatusCreated, checkoutResp{OrderID: rec.OrderID, TotalCents: rec.TotalCents})
}

func (h *OrdersHandler) publishCreated(r *http.Request, userID, storeID int64, rec *orders.Receipt) {
	if h.Producer == nil {
		return
	}
	items := make([]orders.PlacedLine, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		items = append(items, orders.PlacedLine{ProductID: l.ProductID, Quantity: l.Quantity, PriceCents: l.PriceCents})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: strconv.FormatInt(rec.OrderID, 10),
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:    rec.OrderID,
			UserID:     userID,
			StoreID:    storeID,
			Items:      items,
			TotalCents: rec.TotalCents,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(rec.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Reader.ListByUser(ctx, id.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad order id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Reader.GetWithLines(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	// customers only see their own orders; staff see everything
	if o.UserID != id.UserID && id.RoleID == users.RoleCustomer {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, o)
}
