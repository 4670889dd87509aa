// Package core holds the transaction data model and the parsing and
// validation rules everything else is built on.
//
// Money is kept as int64 cents; float64 only appears at display and
// JSON boundaries.
package core

import (
	"strconv"
	"strings"
)

// MaxAmountCents is the inclusive upper bound for a single transaction
// magnitude (1,000,000.00 in the ledger's unit currency).
const MaxAmountCents int64 = 100_000_000

// Money is an amount in cents. Sign carries meaning at the ledger level:
// income is positive, expense negative.
type Money struct {
	Cents int64
}

// ParseDecimalToCents converts a decimal string to positive cents with
// half-up rounding on the third decimal place. Both dot (12.34) and comma
// (12,34) separators are accepted. Zero, negative and non-numeric input
// return ErrInvalidAmount; magnitudes above MaxAmountCents return
// ErrAmountTooLarge.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	cents, err := decimalToCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	if cents > MaxAmountCents {
		return 0, ErrAmountTooLarge
	}
	return cents, nil
}

// decimalToCents converts an unsigned plain decimal string to cents exactly,
// with half-up rounding on the third decimal place. No float64 on the way:
// repeating binary fractions like 0.615 must still round to 62, not 61.
func decimalToCents(s string) (int64, error) {
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		// Digits only at this point, so the parse can only overflow.
		return 0, ErrAmountTooLarge
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrAmountTooLarge
	}
	// First two fractional digits, then half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Abs returns the unsigned amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Float returns the unit-currency value as a float64 for display and
// serialization. Use cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// DecimalString renders the amount as a plain decimal like "-12.50".
func (m Money) DecimalString() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// MarshalJSON emits a plain decimal number so exported ledgers keep the
// conventional {"amount": -12.5} shape.
func (m Money) MarshalJSON() ([]byte, error) {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	frac := cents % 100
	switch {
	case frac == 0:
		return []byte(sign + whole), nil
	case frac%10 == 0:
		return []byte(sign + whole + "." + strconv.FormatInt(frac/10, 10)), nil
	default:
		return []byte(sign + whole + "." + pad2(frac)), nil
	}
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings. The
// same exact parser as ParseDecimalToCents is used, without the positivity
// and magnitude bounds: signs and zero are legal in stored ledgers.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		m.Cents = 0
		return nil
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	cents, err := decimalToCents(s)
	if err != nil {
		return err
	}
	if neg {
		cents = -cents
	}
	m.Cents = cents
	return nil
}
