package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marketgrid/storefront/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error      string                  `json:"error"`
	Kind       orders.Kind             `json:"kind,omitempty"`
	Shortfalls []orders.StockShortfall `json:"shortfalls,omitempty"`
}

// writeCheckoutError maps the checkout taxonomy onto HTTP statuses:
// caller mistakes 400, declined carts 409, infrastructure faults 503
// (retryable, nothing was persisted).
func writeCheckoutError(w http.ResponseWriter, err error) {
	kind := orders.KindOf(err)
	body := errorBody{Error: err.Error(), Kind: kind}
	code := http.StatusServiceUnavailable
	switch kind {
	case orders.KindInvalidInput:
		code = http.StatusBadRequest
	case orders.KindInsufficientStock:
		code = http.StatusConflict
		var ise *orders.InsufficientStockError
		if errors.As(err, &ise) {
			body.Shortfalls = ise.Shortfalls
		}
	}
	writeJSON(w, code, body)
}
