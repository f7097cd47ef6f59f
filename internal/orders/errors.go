package orders

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies checkout failures so callers know whether a retry of the
// identical cart can help.
type Kind string

const (
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindStorageFailure    Kind = "STORAGE_FAILURE"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return "invalid input: " + e.Reason }

// StockShortfall reports one cart line the store could not cover.
type StockShortfall struct {
	ProductID int64 `json:"product_id"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}

type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("product %d: requested %d, available %d", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// StorageError wraps infrastructure faults (connect, lock timeout, deadlock
// victim, commit). Nothing was persisted, so an identical resubmit is safe.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

func KindOf(err error) Kind {
	var in *InvalidInputError
	if errors.As(err, &in) {
		return KindInvalidInput
	}
	var is *InsufficientStockError
	if errors.As(err, &is) {
		return KindInsufficientStock
	}
	return KindStorageFailure
}
