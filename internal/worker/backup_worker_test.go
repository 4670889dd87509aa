package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/core"
	"finledger/internal/storage"
)

type fakeSnapshotWriter struct {
	payloads [][]byte
	failWith error
}

func (f *fakeSnapshotWriter) WriteSnapshot(ctx context.Context, payload []byte) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.payloads = append(f.payloads, payload)
	return int64(len(f.payloads)), nil
}

func (f *fakeSnapshotWriter) ListSnapshots(ctx context.Context, limit int) ([]storage.SnapshotInfo, error) {
	return nil, nil
}

func (f *fakeSnapshotWriter) ReadSnapshot(ctx context.Context, id int64) ([]byte, error) {
	return nil, nil
}

func TestSnapshotStoresCurrentLedger(t *testing.T) {
	gw := storage.NewMemoryGateway()
	ctx := context.Background()
	err := gw.Save(ctx, []core.Transaction{
		{ID: "a", Description: "Salary", Amount: core.Money{Cents: 100000},
			Category: "salario", Type: core.Income, Date: core.NewDate(2026, 8, 1)},
	})
	if err != nil {
		t.Fatalf("seed gateway: %v", err)
	}

	snaps := &fakeSnapshotWriter{}
	w := NewBackupWorker(gw, snaps, nil)

	if err := w.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snaps.payloads) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snaps.payloads))
	}

	var txs []core.Transaction
	if err := json.Unmarshal(snaps.payloads[0], &txs); err != nil {
		t.Fatalf("snapshot payload not valid JSON: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "a" {
		t.Fatalf("snapshot content mismatch: %+v", txs)
	}
}

func TestHandleChangeDebounces(t *testing.T) {
	gw := storage.NewMemoryGateway()
	snaps := &fakeSnapshotWriter{}
	w := NewBackupWorker(gw, snaps, nil)

	ctx := context.Background()
	msg := amqp.NewChangeMessage("added", "tx-1", 1, time.Now())

	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("first HandleChange: %v", err)
	}
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("second HandleChange: %v", err)
	}
	if len(snaps.payloads) != 1 {
		t.Fatalf("got %d snapshots, want 1 (second change inside debounce window)", len(snaps.payloads))
	}
}

func TestHandleChangePropagatesSnapshotError(t *testing.T) {
	gw := storage.NewMemoryGateway()
	snaps := &fakeSnapshotWriter{failWith: errors.New("disk full")}
	w := NewBackupWorker(gw, snaps, nil)

	msg := amqp.NewChangeMessage("added", "tx-1", 1, time.Now())
	if err := w.HandleChange(context.Background(), msg); err == nil {
		t.Fatal("expected error from failing snapshot writer")
	}
}
