package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stridekart/fulfillment/internal/domain/inventory"
)

const (
	// The WHERE clause makes check and decrement one atomic statement: the
	// row is locked for the update, so concurrent reservations serialize and
	// stock can never go below zero.
	reserveStockSQL = `UPDATE products SET stock_quantity = stock_quantity - $2
		WHERE id = $1 AND stock_quantity >= $2`

	releaseStockSQL = `UPDATE products SET stock_quantity = stock_quantity + $2
		WHERE id = $1`
)

var _ inventory.Ledger = (*InventoryLedger)(nil)

// InventoryLedger implements inventory.Ledger on the products table.
type InventoryLedger struct {
	pool *pgxpool.Pool
}

// NewInventoryLedger returns an InventoryLedger that uses the given pool.
func NewInventoryLedger(pool *pgxpool.Pool) *InventoryLedger {
	return &InventoryLedger{pool: pool}
}

// Reserve atomically checks and decrements available stock.
func (l *InventoryLedger) Reserve(ctx context.Context, productID string, qty int) error {
	tag, err := l.pool.Exec(ctx, reserveStockSQL, productID, qty)
	if err != nil {
		return fmt.Errorf("reserving %d of product %q: %w", qty, productID, err)
	}
	if tag.RowsAffected() == 0 {
		return &inventory.InsufficientStockError{ProductID: productID}
	}
	return nil
}

// Release restores previously reserved stock.
func (l *InventoryLedger) Release(ctx context.Context, productID string, qty int) error {
	if _, err := l.pool.Exec(ctx, releaseStockSQL, productID, qty); err != nil {
		return fmt.Errorf("releasing %d of product %q: %w", qty, productID, err)
	}
	return nil
}
