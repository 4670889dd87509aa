// Package export moves the ledger across the process boundary: JSON
// round-trips, plus one-way CSV and XLSX reports.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"finledger/internal/core"
)

// ErrNotArray rejects an import whose top-level value is not a JSON array.
var ErrNotArray = errors.New("export: import payload must be a JSON array")

// MaxImportBytes caps how much an import reader may produce.
const MaxImportBytes = 10 << 20

// JSONFilename returns the dated download name, e.g.
// finledger-export-2026-08-31.json.
func JSONFilename(now time.Time) string {
	return fmt.Sprintf("finledger-export-%s.json", now.Format("2006-01-02"))
}

// WriteJSON renders the sequence as a 2-space indented JSON array. An empty
// sequence exports as [].
func WriteJSON(w io.Writer, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txs); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// ReadJSON parses an import payload. The top-level value must be an array;
// anything else fails before any record is produced.
func ReadJSON(r io.Reader) ([]core.Transaction, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportBytes))
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}

	trimmed := bytes.TrimLeftFunc(data, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var txs []core.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("parse import: %w", err)
	}
	return txs, nil
}
