// Package worker writes ledger snapshots in the background, triggered by
// ledger-change messages and a cron schedule.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/export"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// DebounceWindow batches change bursts: a snapshot is taken at most once per
// window no matter how many changes arrive.
const DebounceWindow = 30 * time.Second

// BackupWorker reads the current ledger from the gateway and stores a JSON
// snapshot through the snapshot writer.
type BackupWorker struct {
	gateway   storage.Gateway
	snapshots storage.SnapshotWriter
	log       *log.Logger

	mu       sync.Mutex
	lastSnap time.Time
}

func NewBackupWorker(gateway storage.Gateway, snapshots storage.SnapshotWriter, logger *log.Logger) *BackupWorker {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentWorker})
	}
	return &BackupWorker{
		gateway:   gateway,
		snapshots: snapshots,
		log:       logger,
	}
}

// HandleChange processes one ledger-change message. Changes inside the
// debounce window are acknowledged without a new snapshot.
func (w *BackupWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.mu.Lock()
	if time.Since(w.lastSnap) < DebounceWindow {
		w.mu.Unlock()
		w.log.DebugContext(ctx, "Change inside debounce window, skipping snapshot",
			"action", msg.Action, log.FieldTransaction, msg.ID)
		return nil
	}
	w.lastSnap = time.Now()
	w.mu.Unlock()

	if err := w.Snapshot(ctx); err != nil {
		return fmt.Errorf("snapshot after %s: %w", msg.Action, err)
	}
	return nil
}

// Snapshot reads the full ledger and stores one snapshot.
func (w *BackupWorker) Snapshot(ctx context.Context) error {
	txs, err := w.gateway.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, txs); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	id, err := w.snapshots.WriteSnapshot(ctx, buf.Bytes())
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	w.log.InfoContext(ctx, "Ledger snapshot stored",
		"snapshot_id", id, log.FieldCount, len(txs))
	return nil
}

// ScheduledSnapshot is the cron entry point. Errors are logged, not
// propagated; the schedule keeps running.
func (w *BackupWorker) ScheduledSnapshot(ctx context.Context) {
	if err := w.Snapshot(ctx); err != nil {
		w.log.ErrorContext(ctx, "Scheduled snapshot failed", log.FieldError, err)
		return
	}
	w.mu.Lock()
	w.lastSnap = time.Now()
	w.mu.Unlock()
}
