package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) ListStores(ctx context.Context) ([]Store, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, city, address FROM stores ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Store
	for rows.Next() {
		var s Store
		if err := rows.Scan(&s.ID, &s.City, &s.Address); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListProducts returns one store's purchasable catalog page.
func (r *Repo) ListProducts(ctx context.Context, f ProductFilter) ([]ListedProduct, error) {
	sql, args := buildProductsQuery(f)
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListedProduct
	for rows.Next() {
		var p ListedProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Category, &p.Quantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ListAllProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, category_id, name, description, price_cents, created_at, updated_at
		FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) CreateProduct(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(category_id, name, description, price_cents)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		p.CategoryID, p.Name, p.Description, p.PriceCents).Scan(&id)
	return id, err
}

func (r *Repo) UpdateProduct(ctx context.Context, p Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET category_id=$2, name=$3, description=$4, price_cents=$5, updated_at=now()
		WHERE id=$1`,
		p.ID, p.CategoryID, p.Name, p.Description, p.PriceCents)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListStock(ctx context.Context, storeID int64) ([]StockRow, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT sp.store_id, sp.product_id, p.name, sp.quantity
		FROM store_products sp JOIN products p ON p.id = sp.product_id
		WHERE sp.store_id = $1
		ORDER BY sp.product_id`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockRow
	for rows.Next() {
		var s StockRow
		if err := rows.Scan(&s.StoreID, &s.ProductID, &s.Product, &s.Quantity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetStock upserts a store's quantity on hand for one product.
func (r *Repo) SetStock(ctx context.Context, storeID, productID int64, quantity int) error {
	if quantity < 0 {
		return errors.New("quantity must not be negative")
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO store_products(store_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (store_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		storeID, productID, quantity)
	return err
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, category_id, name, description, price_cents, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}
