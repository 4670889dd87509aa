package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"finledger/internal/core"
	"finledger/internal/log"
)

const (
	ledgerFile   = "transactions.json"
	settingsFile = "settings.json"
)

type fileSettings struct {
	Currency string `json:"currency"`
}

// FileGateway mirrors the ledger into JSON files under a data directory,
// the closest server-side equivalent of the browser's local storage.
type FileGateway struct {
	dir string
	log *log.Logger
}

// NewFileGateway creates the data directory if needed.
func NewFileGateway(dir string, logger *log.Logger) (*FileGateway, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentStorage})
	}
	return &FileGateway{dir: dir, log: logger}, nil
}

func (g *FileGateway) Close() error { return nil }

// Load reads the mirrored sequence. A missing or corrupt file loads as an
// empty ledger; corruption is logged and swallowed.
func (g *FileGateway) Load(ctx context.Context) ([]core.Transaction, error) {
	data, err := os.ReadFile(filepath.Join(g.dir, ledgerFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	var txs []core.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		g.log.WarnContext(ctx, "Corrupt ledger file, starting empty", log.FieldError, err)
		return nil, nil
	}
	for i := range txs {
		txs[i] = txs[i].NormalizeSign()
	}
	return txs, nil
}

// Save replaces the mirrored sequence. The write goes through a temp file
// and rename so a crash cannot leave a half-written mirror.
func (g *FileGateway) Save(ctx context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	data, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return g.writeAtomic(ledgerFile, data)
}

func (g *FileGateway) LoadCurrency(ctx context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(g.dir, settingsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read settings file: %w", err)
	}
	var s fileSettings
	if err := json.Unmarshal(data, &s); err != nil {
		g.log.WarnContext(ctx, "Corrupt settings file, using defaults", log.FieldError, err)
		return "", nil
	}
	return s.Currency, nil
}

func (g *FileGateway) SaveCurrency(ctx context.Context, code string) error {
	data, err := json.Marshal(fileSettings{Currency: code})
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return g.writeAtomic(settingsFile, data)
}

func (g *FileGateway) writeAtomic(name string, data []byte) error {
	target := filepath.Join(g.dir, name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
