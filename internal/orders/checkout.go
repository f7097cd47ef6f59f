package orders

import (
	"context"
	"fmt"
	"sort"
)

// Tx is the transactional slice of the catalog store checkout runs against.
// All calls on one Tx belong to a single atomic unit: either every write is
// committed or none is. StockForUpdate must hold an exclusive lock on the
// stock row until the unit commits or rolls back.
type Tx interface {
	StoreExists(ctx context.Context, storeID int64) (bool, error)
	StockForUpdate(ctx context.Context, storeID, productID int64) (qty int, found bool, err error)
	UnitPrice(ctx context.Context, productID int64) (cents int64, found bool, err error)
	InsertOrder(ctx context.Context, userID, storeID int64, status Status, totalCents int64) (int64, error)
	InsertLine(ctx context.Context, line OrderLine) error
	DecrementStock(ctx context.Context, storeID, productID int64, qty int) error
}

// normalizeCart validates quantities, merges duplicate product lines and
// sorts by product ID. The sort fixes the lock acquisition order, so two
// concurrent checkouts over overlapping products cannot deadlock on each
// other's rows.
func normalizeCart(items []CartItem) ([]CartItem, error) {
	if len(items) == 0 {
		return nil, &InvalidInputError{Reason: "cart is empty"}
	}
	merged := make(map[int64]int, len(items))
	for _, it := range items {
		if it.ProductID <= 0 {
			return nil, &InvalidInputError{Reason: fmt.Sprintf("bad product id %d", it.ProductID)}
		}
		if it.Quantity <= 0 {
			return nil, &InvalidInputError{Reason: fmt.Sprintf("quantity %d for product %d", it.Quantity, it.ProductID)}
		}
		merged[it.ProductID] += it.Quantity
	}
	out := make([]CartItem, 0, len(merged))
	for id, qty := range merged {
		out = append(out, CartItem{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// placeOrder executes the checkout steps inside tx. The caller owns the
// transaction: commit on nil error, roll back otherwise.
func placeOrder(ctx context.Context, tx Tx, userID, storeID int64, items []CartItem) (*Receipt, error) {
	lines, err := normalizeCart(items)
	if err != nil {
		return nil, err
	}

	known, err := tx.StoreExists(ctx, storeID)
	if err != nil {
		return nil, &StorageError{Op: "store lookup", Err: err}
	}
	if !known {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("unknown store %d", storeID)}
	}

	// Lock every stock row up front, in product-ID order, and collect all
	// shortfalls so the caller sees the whole cart's problems at once.
	var shortfalls []StockShortfall
	for _, it := range lines {
		qty, found, err := tx.StockForUpdate(ctx, storeID, it.ProductID)
		if err != nil {
			return nil, &StorageError{Op: "stock lock", Err: err}
		}
		if !found {
			shortfalls = append(shortfalls, StockShortfall{ProductID: it.ProductID, Requested: it.Quantity, Available: 0})
			continue
		}
		if qty < it.Quantity {
			shortfalls = append(shortfalls, StockShortfall{ProductID: it.ProductID, Requested: it.Quantity, Available: qty})
		}
	}
	if len(shortfalls) > 0 {
		return nil, &InsufficientStockError{Shortfalls: shortfalls}
	}

	// Capture unit prices now. The persisted line price is fixed at this
	// moment and never trusted from client input.
	prices := make(map[int64]int64, len(lines))
	var total int64
	for _, it := range lines {
		cents, found, err := tx.UnitPrice(ctx, it.ProductID)
		if err != nil {
			return nil, &StorageError{Op: "price lookup", Err: err}
		}
		if !found {
			return nil, &InvalidInputError{Reason: fmt.Sprintf("unknown product %d", it.ProductID)}
		}
		prices[it.ProductID] = cents
		total += cents * int64(it.Quantity)
	}

	orderID, err := tx.InsertOrder(ctx, userID, storeID, StatusNew, total)
	if err != nil {
		return nil, &StorageError{Op: "insert order", Err: err}
	}
	rec := &Receipt{OrderID: orderID, TotalCents: total}
	for _, it := range lines {
		line := OrderLine{OrderID: orderID, ProductID: it.ProductID, Quantity: it.Quantity, PriceCents: prices[it.ProductID]}
		if err := tx.InsertLine(ctx, line); err != nil {
			return nil, &StorageError{Op: "insert line", Err: err}
		}
		if err := tx.DecrementStock(ctx, storeID, it.ProductID, it.Quantity); err != nil {
			return nil, &StorageError{Op: "decrement stock", Err: err}
		}
		rec.Lines = append(rec.Lines, line)
	}
	return rec, nil
}
