package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// PlaceOrder runs the checkout as one transaction. On any error the deferred
// rollback discards every write; rollback after commit is a no-op.
func (r *Repo) PlaceOrder(ctx context.Context, userID, storeID int64, items []CartItem) (*Receipt, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, &StorageError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec, err := placeOrder(ctx, &pgTx{tx: tx}, userID, storeID, items)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, &StorageError{Op: "commit", Err: err}
	}
	return rec, nil
}

// pgTx adapts a pgx transaction to the checkout Tx interface.
type pgTx struct{ tx pgx.Tx }

func (p *pgTx) StoreExists(ctx context.Context, storeID int64) (bool, error) {
	var one int
	err := p.tx.QueryRow(ctx, `SELECT 1 FROM stores WHERE id=$1`, storeID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *pgTx) StockForUpdate(ctx context.Context, storeID, productID int64) (int, bool, error) {
	var qty int
	err := p.tx.QueryRow(ctx, `
		SELECT quantity FROM store_products
		WHERE store_id=$1 AND product_id=$2
		FOR UPDATE`, storeID, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return qty, true, nil
}

func (p *pgTx) UnitPrice(ctx context.Context, productID int64) (int64, bool, error) {
	var cents int64
	err := p.tx.QueryRow(ctx, `SELECT price_cents FROM products WHERE id=$1`, productID).Scan(&cents)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return cents, true, nil
}

func (p *pgTx) InsertOrder(ctx context.Context, userID, storeID int64, status Status, totalCents int64) (int64, error) {
	var id int64
	err := p.tx.QueryRow(ctx, `
		INSERT INTO orders(user_id, store_id, status_id, total_cents)
		VALUES ($1, $2, (SELECT id FROM order_statuses WHERE name=$3), $4)
		RETURNING id`, userID, storeID, string(status), totalCents).Scan(&id)
	return id, err
}

func (p *pgTx) InsertLine(ctx context.Context, line OrderLine) error {
	_, err := p.tx.Exec(ctx, `
		INSERT INTO order_items(order_id, product_id, quantity, price_cents)
		VALUES ($1, $2, $3, $4)`,
		line.OrderID, line.ProductID, line.Quantity, line.PriceCents)
	return err
}

func (p *pgTx) DecrementStock(ctx context.Context, storeID, productID int64, qty int) error {
	ct, err := p.tx.Exec(ctx, `
		UPDATE store_products SET quantity = quantity - $3
		WHERE store_id=$1 AND product_id=$2`, storeID, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return errors.New("stock row vanished during checkout")
	}
	return nil
}

const orderColumns = `
	o.id, o.user_id, o.store_id, s.name, o.total_cents, o.created_at
	FROM orders o JOIN order_statuses s ON s.id = o.status_id`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	if err := row.Scan(&o.ID, &o.UserID, &o.StoreID, &status, &o.TotalCents, &o.CreatedAt); err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	return o, nil
}

func (r *Repo) Get(ctx context.Context, orderID int64) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` WHERE o.id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repo) Lines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT i.order_id, i.product_id, i.quantity, i.price_cents, p.name
		FROM order_items i JOIN products p ON p.id = i.product_id
		WHERE i.order_id=$1
		ORDER BY i.product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &l.PriceCents, &l.Product); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) GetWithLines(ctx context.Context, orderID int64) (OrderWithLines, error) {
	o, err := r.Get(ctx, orderID)
	if err != nil {
		return OrderWithLines{}, err
	}
	lines, err := r.Lines(ctx, orderID)
	if err != nil {
		return OrderWithLines{}, err
	}
	return OrderWithLines{Order: o, Lines: lines}, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` WHERE o.user_id=$1 ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *Repo) ListAll(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` ORDER BY o.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type StatusRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (r *Repo) ListStatuses(ctx context.Context) ([]StatusRow, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name FROM order_statuses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusRow
	for rows.Next() {
		var s StatusRow
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateStatus moves an order along the lifecycle. The current row is locked
// so two admins racing on the same order serialize, then the transition is
// checked against the state machine.
func (r *Repo) UpdateStatus(ctx context.Context, orderID, statusID int64) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, `
		SELECT s.name FROM orders o JOIN order_statuses s ON s.id = o.status_id
		WHERE o.id=$1 FOR UPDATE OF o`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var next string
	err = tx.QueryRow(ctx, `SELECT name FROM order_statuses WHERE id=$1`, statusID).Scan(&next)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvalidTransition
	}
	if err != nil {
		return err
	}

	if !CanTransition(Status(current), Status(next)) {
		return ErrInvalidTransition
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status_id=$2 WHERE id=$1`, orderID, statusID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
