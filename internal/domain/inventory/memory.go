package inventory

import (
	"context"
	"sync"
)

var _ Ledger = (*MemoryLedger)(nil)

// MemoryLedger is an in-process Ledger guarded by a single mutex. It backs
// unit tests and the in-memory development mode; production deployments use
// the PostgreSQL-backed ledger.
type MemoryLedger struct {
	mu    sync.Mutex
	stock map[string]int
}

// NewMemoryLedger creates a ledger with the given initial stock levels.
func NewMemoryLedger(stock map[string]int) *MemoryLedger {
	s := make(map[string]int, len(stock))
	for id, qty := range stock {
		s[id] = qty
	}
	return &MemoryLedger{stock: s}
}

// Reserve decrements available stock if at least qty units remain.
func (l *MemoryLedger) Reserve(_ context.Context, productID string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stock[productID] < qty {
		return &InsufficientStockError{ProductID: productID}
	}
	l.stock[productID] -= qty
	return nil
}

// Release returns qty units to the available stock.
func (l *MemoryLedger) Release(_ context.Context, productID string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stock[productID] += qty
	return nil
}

// Available returns the current stock level for productID.
func (l *MemoryLedger) Available(productID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.stock[productID]
}
