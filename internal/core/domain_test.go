package core

import (
	"encoding/json"
	"testing"
)

func TestNormalizeSign(t *testing.T) {
	exp := Transaction{Amount: Money{Cents: 5000}, Type: Expense}.NormalizeSign()
	if exp.Amount.Cents != -5000 {
		t.Fatalf("expense: expected -5000, got %d", exp.Amount.Cents)
	}
	inc := Transaction{Amount: Money{Cents: -5000}, Type: Income}.NormalizeSign()
	if inc.Amount.Cents != 5000 {
		t.Fatalf("income: expected 5000, got %d", inc.Amount.Cents)
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2026, 8, 31)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2026-08-31"` {
		t.Fatalf("expected quoted date, got %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", back, d)
	}
	if err := json.Unmarshal([]byte(`"31-08-2026"`), &back); err == nil {
		t.Fatalf("expected error for wrong layout")
	}
}

func TestMonthKey(t *testing.T) {
	if got := NewDate(2026, 3, 5).MonthKey(); got != "2026-03" {
		t.Fatalf("expected 2026-03, got %s", got)
	}
}

func TestTransactionJSONShape(t *testing.T) {
	tx := Transaction{
		ID:          "abc",
		Description: "Salary",
		Amount:      Money{Cents: 200000},
		Category:    "salario",
		Type:        Income,
		Date:        NewDate(2026, 8, 1),
		Timestamp:   1756710000000,
	}
	b, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"abc","description":"Salary","amount":2000,"category":"salario","type":"income","date":"2026-08-01","timestamp":1756710000000}`
	if string(b) != want {
		t.Fatalf("unexpected JSON:\n got %s\nwant %s", b, want)
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		m    Money
		code string
		out  string
	}{
		{Money{Cents: 123456789}, "EUR", "€1,234,567.89"},
		{Money{Cents: -5050}, "USD", "-$50.50"},
		{Money{Cents: 123450}, "JPY", "¥1,235"},
		{Money{Cents: 123450}, "XXX", "€1,234.50"}, // unknown code falls back
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.m, tc.code); got != tc.out {
			t.Fatalf("FormatCurrency(%d, %s) = %s, want %s", tc.m.Cents, tc.code, got, tc.out)
		}
	}
}
