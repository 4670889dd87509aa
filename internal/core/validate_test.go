package core

import (
	"strings"
	"testing"
)

func validPayload() Payload {
	return Payload{
		Description: "Groceries",
		Amount:      "50",
		Category:    "comida",
		Type:        "expense",
		Date:        "2026-08-15",
	}
}

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"  plain  ", "plain"},
		{"<b>bold</b>", "bold"},
		{"<script>alert(1)</script>ok", "ok"},
		{"click onclick=\"evil()\" here", "click  here"},
		{"javascript:alert(1)", "alert(1)"},
		{"tab\tand\x00null", "tabandnull"},
	}
	for _, tc := range cases {
		if got := SanitizeText(tc.in); got != tc.out {
			t.Fatalf("SanitizeText(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestValidateAcceptsCleanPayload(t *testing.T) {
	today := NewDate(2026, 8, 31)
	if errs := Validate(Sanitize(validPayload()), today); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	today := NewDate(2026, 8, 31)
	p := Payload{
		Description: "",
		Amount:      "nope",
		Category:    "",
		Type:        "transfer",
		Date:        "31/08/2026",
	}
	errs := Validate(p, today)
	if len(errs) != 5 {
		t.Fatalf("expected 5 field errors, got %d: %v", len(errs), errs)
	}
	for _, field := range []string{"description", "amount", "category", "type", "date"} {
		if _, ok := errs[field]; !ok {
			t.Fatalf("expected error for field %s", field)
		}
	}
}

func TestValidateAmountBounds(t *testing.T) {
	today := NewDate(2026, 8, 31)
	cases := []struct {
		amount string
		ok     bool
	}{
		{"0", false},
		{"-10", false},
		{"1000000", true},
		{"1000000.01", false},
		{"0.01", true},
	}
	for _, tc := range cases {
		p := validPayload()
		p.Amount = tc.amount
		errs := Validate(p, today)
		if tc.ok && errs != nil {
			t.Fatalf("amount %s: expected ok, got %v", tc.amount, errs)
		}
		if !tc.ok && errs["amount"] == "" {
			t.Fatalf("amount %s: expected amount error, got %v", tc.amount, errs)
		}
	}
}

func TestValidateDateWindow(t *testing.T) {
	today := NewDate(2026, 8, 31)
	cases := []struct {
		date string
		ok   bool
	}{
		{"2026-08-31", true},  // today
		{"2025-08-31", true},  // exactly 365 days back
		{"2025-08-30", false}, // 366 days back
		{"2026-09-01", false}, // tomorrow
	}
	for _, tc := range cases {
		p := validPayload()
		p.Date = tc.date
		errs := Validate(p, today)
		if tc.ok && errs != nil {
			t.Fatalf("date %s: expected ok, got %v", tc.date, errs)
		}
		if !tc.ok && errs["date"] == "" {
			t.Fatalf("date %s: expected date error, got %v", tc.date, errs)
		}
	}
}

func TestValidateLengthLimits(t *testing.T) {
	today := NewDate(2026, 8, 31)

	p := validPayload()
	p.Description = strings.Repeat("x", 101)
	if errs := Validate(p, today); errs["description"] == "" {
		t.Fatalf("expected description error, got %v", errs)
	}

	p = validPayload()
	p.Category = strings.Repeat("c", 51)
	if errs := Validate(p, today); errs["category"] == "" {
		t.Fatalf("expected category error, got %v", errs)
	}
}

func TestValidateLengthLimitsCountCharacters(t *testing.T) {
	today := NewDate(2026, 8, 31)

	// Multibyte text within the character limit must pass even though its
	// byte length exceeds it.
	p := validPayload()
	p.Description = strings.Repeat("ñ", 60)
	if errs := Validate(p, today); errs != nil {
		t.Fatalf("60-character description rejected: %v", errs)
	}

	p = validPayload()
	p.Description = strings.Repeat("ñ", 100)
	if errs := Validate(p, today); errs != nil {
		t.Fatalf("100-character description rejected: %v", errs)
	}

	p = validPayload()
	p.Description = strings.Repeat("ñ", 101)
	if errs := Validate(p, today); errs["description"] == "" {
		t.Fatalf("expected description error, got %v", errs)
	}

	p = validPayload()
	p.Category = strings.Repeat("é", 50)
	if errs := Validate(p, today); errs != nil {
		t.Fatalf("50-character category rejected: %v", errs)
	}

	p = validPayload()
	p.Category = strings.Repeat("é", 51)
	if errs := Validate(p, today); errs["category"] == "" {
		t.Fatalf("expected category error, got %v", errs)
	}
}

func TestFieldErrorsError(t *testing.T) {
	errs := FieldErrors{"amount": "bad", "date": "bad"}
	msg := errs.Error()
	if !strings.Contains(msg, "amount") || !strings.Contains(msg, "date") {
		t.Fatalf("unexpected message: %s", msg)
	}
}
