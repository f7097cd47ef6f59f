package catalog

// ProductFilter narrows and orders a store's catalog page.
type ProductFilter struct {
	StoreID    int64
	CategoryID int64  // 0 = all categories
	SortBy     string // "price" | "name"
	Order      string // "asc" | "desc"
}

var sortColumns = map[string]string{
	"price": "p.price_cents",
	"name":  "p.name",
}

// buildProductsQuery renders the catalog page query. Sort fields go through a
// whitelist, never into the SQL verbatim; unrecognized values are dropped,
// unrecognized order falls back to ascending.
func buildProductsQuery(f ProductFilter) (string, []any) {
	sql := `
		SELECT p.id, p.name, p.description, p.price_cents,
		       COALESCE(c.name, ''), sp.quantity
		FROM products p
		JOIN store_products sp ON p.id = sp.product_id
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE sp.store_id = $1 AND sp.quantity > 0`
	args := []any{f.StoreID}

	if f.CategoryID > 0 {
		sql += ` AND p.category_id = $2`
		args = append(args, f.CategoryID)
	}

	if col, ok := sortColumns[f.SortBy]; ok {
		dir := "ASC"
		if f.Order == "desc" {
			dir = "DESC"
		}
		sql += ` ORDER BY ` + col + ` ` + dir
	}
	return sql, args
}
