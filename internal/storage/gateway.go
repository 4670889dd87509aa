// Package storage provides the persistence gateway the ledger mirrors
// itself into. The store in memory is always authoritative; gateways hold a
// best-effort mirror with no transactional guarantee towards the caller.
package storage

import (
	"context"

	"finledger/internal/core"
)

// Gateway is the outbound port for ledger persistence.
//
// Load returns an empty sequence when nothing has been stored yet or the
// stored data is corrupt; corruption is swallowed, not surfaced. Save
// replaces the mirrored sequence wholesale. The currency preference is
// stored independently of the transaction list.
type Gateway interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Save(ctx context.Context, txs []core.Transaction) error
	LoadCurrency(ctx context.Context) (string, error)
	SaveCurrency(ctx context.Context, code string) error
	Close() error
}

// SnapshotWriter is implemented by gateways that can also keep point-in-time
// backup snapshots of the ledger. The backup worker depends on it.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, payload []byte) (id int64, err error)
	ListSnapshots(ctx context.Context, limit int) ([]SnapshotInfo, error)
	ReadSnapshot(ctx context.Context, id int64) ([]byte, error)
}

// SnapshotInfo describes one stored backup snapshot.
type SnapshotInfo struct {
	ID        int64  `json:"id"`
	CreatedAt string `json:"createdAt"`
	SizeBytes int64  `json:"sizeBytes"`
}
