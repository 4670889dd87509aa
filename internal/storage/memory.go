package storage

import (
	"context"
	"sync"

	"finledger/internal/core"
)

// MemoryGateway keeps the mirror in process memory. Useful as a default
// backend and for tests; optionally fails on demand to exercise the
// write-through error path.
type MemoryGateway struct {
	mu       sync.Mutex
	txs      []core.Transaction
	currency string

	// FailSaves makes every Save/SaveCurrency return this error when set.
	FailSaves error
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{}
}

func (g *MemoryGateway) Close() error { return nil }

func (g *MemoryGateway) Load(ctx context.Context) ([]core.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]core.Transaction(nil), g.txs...), nil
}

func (g *MemoryGateway) Save(ctx context.Context, txs []core.Transaction) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailSaves != nil {
		return g.FailSaves
	}
	g.txs = append([]core.Transaction(nil), txs...)
	return nil
}

func (g *MemoryGateway) LoadCurrency(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currency, nil
}

func (g *MemoryGateway) SaveCurrency(ctx context.Context, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailSaves != nil {
		return g.FailSaves
	}
	g.currency = code
	return nil
}
