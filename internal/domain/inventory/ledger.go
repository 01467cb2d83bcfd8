// Package inventory owns per-product available quantity. The ledger exposes
// reservation as a single atomic check-and-decrement so no caller can race
// between checking stock and claiming it.
package inventory

import (
	"context"
	"fmt"
)

// InsufficientStockError indicates the requested quantity exceeded the
// available stock at the moment of the reservation attempt.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %s", e.ProductID)
}

// Ledger is the reservation contract. Reserve atomically verifies
// available >= qty and decrements in the same operation; two concurrent
// reservations can never together take stock below zero. Release restores
// quantity and is the compensating action for a reservation that must be
// unwound.
type Ledger interface {
	Reserve(ctx context.Context, productID string, qty int) error
	Release(ctx context.Context, productID string, qty int) error
}
