package redisx

import "time"

const (
	// Order status cache: order:status:{order_id} -> {"status":"new"}
	KeyOrderStatus = "order:status:%d"

	// Cached catalog page: catalog:store:{store_id}:cat:{category_id}:{sort_by}:{order}
	KeyCatalogPage = "catalog:store:%d:cat:%d:%s:%s"

	// Pattern covering every cached page of one store.
	KeyCatalogStorePattern = "catalog:store:%d:*"

	// Consumer dedup: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLCatalogPage = 30 * time.Second
	TTLDedup       = 48 * time.Hour
)
