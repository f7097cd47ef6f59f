package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketgrid/storefront/internal/auth"
	"github.com/marketgrid/storefront/internal/orders"
)

type stubPlacer struct {
	gotUserID  int64
	gotStoreID int64
	gotItems   []orders.CartItem
	rec        *orders.Receipt
	err        error
}

func (s *stubPlacer) PlaceOrder(_ context.Context, userID, storeID int64, items []orders.CartItem) (*orders.Receipt, error) {
	s.gotUserID, s.gotStoreID, s.gotItems = userID, storeID, items
	if s.err != nil {
		return nil, s.err
	}
	return s.rec, nil
}

type stubReader struct {
	order orders.OrderWithLines
	list  []orders.Order
	err   error
}

func (s *stubReader) GetWithLines(context.Context, int64) (orders.OrderWithLines, error) {
	return s.order, s.err
}

func (s *stubReader) ListByUser(context.Context, int64) ([]orders.Order, error) {
	return s.list, s.err
}

type stubPublisher struct{ published int }

func (s *stubPublisher) Publish([]byte, []byte, ...kafkago.Header) { s.published++ }

func newOrdersRig(placer *stubPlacer, reader *stubReader) (*chi.Mux, *stubPublisher) {
	pub := &stubPublisher{}
	h := &OrdersHandler{Placer: placer, Reader: reader, Producer: pub, Service: "test"}
	r := chi.NewRouter()
	h.Register(r)
	return r, pub
}

func asUser(req *http.Request, userID, roleID int64) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: userID, RoleID: roleID}))
}

func TestCheckoutSuccess(t *testing.T) {
	placer := &stubPlacer{rec: &orders.Receipt{
		OrderID:    15,
		TotalCents: 250,
		Lines: []orders.OrderLine{
			{OrderID: 15, ProductID: 1, Quantity: 2, PriceCents: 100},
			{OrderID: 15, ProductID: 2, Quantity: 1, PriceCents: 50},
		},
	}}
	r, pub := newOrdersRig(placer, &stubReader{})

	body := `{"store_id":3,"items":[{"product_id":1,"quantity":2},{"product_id":2,"quantity":1}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), 42, 1)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp checkoutResp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(15), resp.OrderID)
	assert.Equal(t, int64(250), resp.TotalCents)
	assert.Equal(t, int64(42), placer.gotUserID)
	assert.Equal(t, int64(3), placer.gotStoreID)
	assert.Equal(t, 1, pub.published)
}

func TestCheckoutClientPricesDropped(t *testing.T) {
	placer := &stubPlacer{rec: &orders.Receipt{OrderID: 1, TotalCents: 100}}
	r, _ := newOrdersRig(placer, &stubReader{})

	// a tampering client sends its own prices; they never reach the service
	body := `{"store_id":1,"total_price":1,"items":[{"product_id":1,"quantity":1,"price_at_purchase":1}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), 42, 1)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, placer.gotItems, 1)
	assert.Equal(t, orders.CartItem{ProductID: 1, Quantity: 1}, placer.gotItems[0])
}

func TestCheckoutErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid input", &orders.InvalidInputError{Reason: "cart is empty"}, http.StatusBadRequest},
		{"insufficient stock", &orders.InsufficientStockError{Shortfalls: []orders.StockShortfall{
			{ProductID: 9, Requested: 3, Available: 2},
		}}, http.StatusConflict},
		{"storage failure", &orders.StorageError{Op: "commit", Err: errors.New("deadlock")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, pub := newOrdersRig(&stubPlacer{err: tc.err}, &stubReader{})
			body := `{"store_id":1,"items":[{"product_id":9,"quantity":3}]}`
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), 42, 1)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.code, rr.Code)
			assert.Equal(t, 0, pub.published, "declines publish nothing")

			var eb errorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &eb))
			assert.Equal(t, orders.KindOf(tc.err), eb.Kind)
			if tc.code == http.StatusConflict {
				require.Len(t, eb.Shortfalls, 1)
				assert.Equal(t, int64(9), eb.Shortfalls[0].ProductID)
				assert.Equal(t, 2, eb.Shortfalls[0].Available)
			}
		})
	}
}

func TestCheckoutRejectsBadJSON(t *testing.T) {
	r, _ := newOrdersRig(&stubPlacer{}, &stubReader{})
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{")), 42, 1)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckoutNeedsIdentity(t *testing.T) {
	r, _ := newOrdersRig(&stubPlacer{}, &stubReader{})
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"store_id":1,"items":[]}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetOrderHidesOthersFromCustomers(t *testing.T) {
	reader := &stubReader{order: orders.OrderWithLines{Order: orders.Order{ID: 5, UserID: 77}}}
	r, _ := newOrdersRig(&stubPlacer{}, reader)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders/5", nil), 42, 1)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// staff can see it
	req = asUser(httptest.NewRequest(http.MethodGet, "/api/orders/5", nil), 42, 3)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGetOrderNotFound(t *testing.T) {
	r, _ := newOrdersRig(&stubPlacer{}, &stubReader{err: orders.ErrNotFound})
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders/123", nil), 42, 1)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMyOrdersEmptyIsArray(t *testing.T) {
	r, _ := newOrdersRig(&stubPlacer{}, &stubReader{})
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders/my", nil), 42, 1)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}
