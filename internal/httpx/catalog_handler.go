package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/marketgrid/storefront/internal/catalog"
	"github.com/marketgrid/storefront/internal/redisx"
)

// CatalogStore is satisfied by *catalog.Repo.
type CatalogStore interface {
	ListStores(ctx context.Context) ([]catalog.Store, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListProducts(ctx context.Context, f catalog.ProductFilter) ([]catalog.ListedProduct, error)
}

type CatalogHandler struct {
	Catalog CatalogStore
	Redis   *redis.Client
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/api/stores", h.listStores)
	r.Get("/api/categories", h.listCategories)
	r.Get("/api/products", h.listProducts)
}

func (h *CatalogHandler) listStores(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Catalog.ListStores(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	storeID, err := strconv.ParseInt(q.Get("store_id"), 10, 64)
	if err != nil || storeID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "store_id is required"})
		return
	}
	f := catalog.ProductFilter{
		StoreID: storeID,
		SortBy:  q.Get("sort_by"),
		Order:   q.Get("order"),
	}
	if cid, err := strconv.ParseInt(q.Get("category_id"), 10, 64); err == nil {
		f.CategoryID = cid
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cached page fast path; Postgres stays the source of truth
	key := fmt.Sprintf(redisx.KeyCatalogPage, f.StoreID, f.CategoryID, f.SortBy, f.Order)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	list, err := h.Catalog.ListProducts(ctx, f)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if list == nil {
		list = []catalog.ListedProduct{}
	}
	b, _ := json.Marshal(list)
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLCatalogPage).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
