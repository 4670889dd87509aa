package core

import (
	"errors"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

type (
	// TxType distinguishes money coming in from money going out.
	TxType string

	// Date is a calendar date without a time component.
	Date struct {
		time.Time
	}

	// Transaction is one ledger entry. Amounts are stored signed:
	// positive for income, negative for expense.
	Transaction struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Category    string `json:"category"`
		Type        TxType `json:"type"`
		Date        Date   `json:"date"`
		// Timestamp is the creation instant in Unix milliseconds. Used for
		// insertion-order tie-breaking and display only.
		Timestamp int64 `json:"timestamp"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrDateOutOfRange   = errors.New("date outside trailing year")
)

// IsValid reports whether the type is one of the two known values.
func (t TxType) IsValid() bool {
	return t == Income || t == Expense
}

// Sign returns +1 for income and -1 for expense.
func (t TxType) Sign() int64 {
	if t == Expense {
		return -1
	}
	return 1
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates an instant to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket the date falls into.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NormalizeSign forces the stored amount sign to agree with the type.
// The external boundary supplies unsigned magnitudes; the ledger stores
// income positive and expense negative.
func (tx Transaction) NormalizeSign() Transaction {
	mag := tx.Amount.Abs()
	tx.Amount = Money{Cents: mag.Cents * tx.Type.Sign()}
	return tx
}

// Magnitude returns the unsigned amount.
func (tx Transaction) Magnitude() Money {
	return tx.Amount.Abs()
}
