// Package backend selects and constructs the persistence gateway from
// configuration.
package backend

import (
	"fmt"

	"finledger/internal/log"
	"finledger/internal/storage"
)

const (
	SQLiteBackend Type = "sqlite"
	FileBackend   Type = "file"
	MemoryBackend Type = "memory"
)

// Type names a persistence backend.
type Type string

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, FileBackend, MemoryBackend:
		return true
	}
	return false
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{SQLiteBackend, FileBackend, MemoryBackend}
}

// Config carries what each backend needs to come up.
type Config struct {
	Type Type

	// SQLite backend.
	DBPath string

	// File backend.
	DataDir string
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case SQLiteBackend:
		if c.DBPath == "" {
			return fmt.Errorf("database path is required for sqlite backend")
		}
	case FileBackend:
		if c.DataDir == "" {
			return fmt.Errorf("data directory is required for file backend")
		}
	}
	return nil
}

// Result bundles the gateway with an optional snapshot writer. Snapshots is
// nil for backends without snapshot support.
type Result struct {
	Gateway   storage.Gateway
	Snapshots storage.SnapshotWriter
}

// New constructs the configured gateway.
func New(cfg Config, logger *log.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentBackend})
	}

	switch cfg.Type {
	case SQLiteBackend:
		gw, err := storage.NewSQLiteGateway(cfg.DBPath, logger.WithComponent(log.ComponentStorage))
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.DBPath)
		return &Result{Gateway: gw, Snapshots: gw}, nil

	case FileBackend:
		gw, err := storage.NewFileGateway(cfg.DataDir, logger.WithComponent(log.ComponentStorage))
		if err != nil {
			return nil, fmt.Errorf("initialize file backend: %w", err)
		}
		logger.Info("Initialized file backend", "data_dir", cfg.DataDir)
		return &Result{Gateway: gw}, nil

	case MemoryBackend:
		logger.Info("Initialized memory backend")
		return &Result{Gateway: storage.NewMemoryGateway()}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
