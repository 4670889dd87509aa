package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"finledger/internal/core"
	"finledger/internal/log"
)

const currencyKey = "currency"

// SQLiteGateway mirrors the ledger into a SQLite database. Save replaces
// the whole transaction table in one database transaction so a partial
// mirror is never observable.
type SQLiteGateway struct {
	db  *sql.DB
	log *log.Logger
}

// NewSQLiteGateway opens (and migrates) the database at dbPath.
func NewSQLiteGateway(dbPath string, logger *log.Logger) (*SQLiteGateway, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentStorage})
	}

	return &SQLiteGateway{db: db, log: logger}, nil
}

func (g *SQLiteGateway) Close() error {
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}

// Load returns the mirrored sequence in stored order (newest-first). Rows
// that fail to scan are skipped rather than failing the load; a corrupt
// mirror degrades to whatever is readable, and an empty mirror to nil.
func (g *SQLiteGateway) Load(ctx context.Context) ([]core.Transaction, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, category, type, date, timestamp_ms
		 FROM transactions ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			tx      core.Transaction
			cents   int64
			typ     string
			dateStr string
		)
		if err := rows.Scan(&tx.ID, &tx.Description, &cents, &typ, &dateStr, &tx.Timestamp); err != nil {
			g.log.WarnContext(ctx, "Skipping unreadable transaction row", log.FieldError, err)
			continue
		}
		date, err := core.ParseDate(dateStr)
		if err != nil {
			g.log.WarnContext(ctx, "Skipping transaction with bad date", "date", dateStr)
			continue
		}
		tx.Amount = core.Money{Cents: cents}
		tx.Type = core.TxType(typ)
		tx.Date = date
		txs = append(txs, tx.NormalizeSign())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// Save mirrors the full sequence, replacing whatever was stored before.
func (g *SQLiteGateway) Save(ctx context.Context, txs []core.Transaction) error {
	dbTx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO transactions (id, position, description, amount_cents, category, type, date, timestamp_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, tx := range txs {
		_, err := stmt.ExecContext(ctx,
			tx.ID, i, tx.Description, tx.Amount.Cents,
			tx.Category, string(tx.Type), tx.Date.String(), tx.Timestamp)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	g.log.DebugContext(ctx, "Ledger mirrored to SQLite", log.FieldCount, len(txs))
	return nil
}

func (g *SQLiteGateway) LoadCurrency(ctx context.Context) (string, error) {
	var code string
	err := g.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, currencyKey).Scan(&code)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load currency: %w", err)
	}
	return code, nil
}

func (g *SQLiteGateway) SaveCurrency(ctx context.Context, code string) error {
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		currencyKey, code)
	if err != nil {
		return fmt.Errorf("save currency: %w", err)
	}
	return nil
}

// WriteSnapshot stores a point-in-time backup payload and returns its id.
func (g *SQLiteGateway) WriteSnapshot(ctx context.Context, payload []byte) (int64, error) {
	res, err := g.db.ExecContext(ctx,
		`INSERT INTO snapshots (created_at, payload) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339), payload)
	if err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}
	g.log.InfoContext(ctx, "Snapshot written", "snapshot_id", id, "bytes", len(payload))
	return id, nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (g *SQLiteGateway) ListSnapshots(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, created_at, length(payload) FROM snapshots
		 ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.CreatedAt, &info.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// ReadSnapshot returns the payload of one snapshot.
func (g *SQLiteGateway) ReadSnapshot(ctx context.Context, id int64) ([]byte, error) {
	var payload []byte
	err := g.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %d: %w", id, err)
	}
	return payload, nil
}
