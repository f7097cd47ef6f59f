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
	"github.com/redis/go-redis/v9"

	"github.com/marketgrid/storefront/internal/auth"
	"github.com/marketgrid/storefront/internal/catalog"
	"github.com/marketgrid/storefront/internal/orders"
	"github.com/marketgrid/storefront/internal/redisx"
)

// AdminCatalog is satisfied by *catalog.Repo.
type AdminCatalog interface {
	ListAllProducts(ctx context.Context) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
	CreateProduct(ctx context.Context, p catalog.Product) (int64, error)
	UpdateProduct(ctx context.Context, p catalog.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ListStock(ctx context.Context, storeID int64) ([]catalog.StockRow, error)
	SetStock(ctx context.Context, storeID, productID int64, quantity int) error
}

// AdminOrders is satisfied by *orders.Repo.
type AdminOrders interface {
	ListAll(ctx context.Context, limit int) ([]orders.Order, error)
	ListStatuses(ctx context.Context) ([]orders.StatusRow, error)
	UpdateStatus(ctx context.Context, orderID, statusID int64) error
}

type AdminHandler struct {
	Catalog AdminCatalog
	Orders  AdminOrders
	Redis   *redis.Client
}

// RegisterStaff mounts routes for managers and admins: stock and order
// management.
func (h *AdminHandler) RegisterStaff(r chi.Router) {
	r.Get("/api/admin/stock", h.listStock)
	r.Put("/api/admin/stock/{store}/{product}", h.setStock)
	r.Get("/api/admin/orders", h.listOrders)
	r.Get("/api/order-statuses", h.listStatuses)
	r.Patch("/api/admin/orders/{id}/status", h.updateStatus)
}

// RegisterAdmin mounts the product CRUD, admin role only.
func (h *AdminHandler) RegisterAdmin(r chi.Router) {
	r.Get("/api/admin/products", h.listProducts)
	r.Post("/api/admin/products", h.createProduct)
	r.Put("/api/admin/products/{id}", h.updateProduct)
	r.Delete("/api/admin/products/{id}", h.deleteProduct)
}

// storeScope resolves which store a staff request may touch. Managers are
// pinned to their own store regardless of the query parameter.
func storeScope(r *http.Request) (int64, error) {
	id, _ := auth.FromContext(r.Context())
	if id.StoreID != nil {
		return *id.StoreID, nil
	}
	storeID, err := strconv.ParseInt(r.URL.Query().Get("store_id"), 10, 64)
	if err != nil || storeID <= 0 {
		return 0, errors.New("store_id is required")
	}
	return storeID, nil
}

func (h *AdminHandler) listStock(w http.ResponseWriter, r *http.Request) {
	storeID, err := storeScope(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rowsOut, err := h.Catalog.ListStock(ctx, storeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rowsOut == nil {
		rowsOut = []catalog.StockRow{}
	}
	writeJSON(w, http.StatusOK, rowsOut)
}

type setStockReq struct {
	Quantity int `json:"quantity"`
}

func (h *AdminHandler) setStock(w http.ResponseWriter, r *http.Request) {
	storeID, err := strconv.ParseInt(chi.URLParam(r, "store"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad store id"})
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "product"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad product id"})
		return
	}
	id, _ := auth.FromContext(r.Context())
	if id.StoreID != nil && *id.StoreID != storeID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your store"})
		return
	}

	var req setStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must not be negative"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Catalog.SetStock(ctx, storeID, productID, req.Quantity); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.dropCatalogPages(ctx, storeID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AdminHandler) dropCatalogPages(ctx context.Context, storeID int64) {
	if h.Redis == nil {
		return
	}
	pattern := fmt.Sprintf(redisx.KeyCatalogStorePattern, storeID)
	_ = redisx.DeleteByPattern(ctx, h.Redis, pattern)
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.ListAll(ctx, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) listStatuses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.ListStatuses(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type statusReq struct {
	StatusID int64 `json:"status_id"`
}

func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad order id"})
		return
	}
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err = h.Orders.UpdateStatus(ctx, orderID, req.StatusID)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, orders.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "invalid status transition"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		if h.Redis != nil {
			_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

func (h *AdminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Catalog.ListAllProducts(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if list == nil {
		list = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, list)
}

type productReq struct {
	CategoryID  *int64 `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.PriceCents < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and non-negative price required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id, err := h.Catalog.CreateProduct(ctx, catalog.Product{
		CategoryID: req.CategoryID, Name: req.Name, Description: req.Description, PriceCents: req.PriceCents,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad product id"})
		return
	}
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.PriceCents < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and non-negative price required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err = h.Catalog.UpdateProduct(ctx, catalog.Product{
		ID: id, CategoryID: req.CategoryID, Name: req.Name, Description: req.Description, PriceCents: req.PriceCents,
	})
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err = h.Catalog.DeleteProduct(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
