// Package analytics computes read-only projections over a ledger snapshot.
// Every function here is pure: no storage, no clocks except where a
// reference date is passed in explicitly.
package analytics

import (
	"sort"
	"strings"

	"finledger/internal/core"
)

const (
	FilterAll = "all"

	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Filter is a pure view predicate over the ledger. The three clauses are
// AND-combined; "all" (or empty) disables a clause.
type Filter struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Search   string `json:"search"`
}

// DefaultFilter passes every transaction through.
func DefaultFilter() Filter {
	return Filter{Type: FilterAll, Category: FilterAll, Search: ""}
}

// IsDefault reports whether the filter is a no-op.
func (f Filter) IsDefault() bool {
	return (f.Type == FilterAll || f.Type == "") &&
		(f.Category == FilterAll || f.Category == "") &&
		f.Search == ""
}

// Matches applies the type, category and case-insensitive search clauses.
func (f Filter) Matches(tx core.Transaction) bool {
	if f.Type != "" && f.Type != FilterAll && string(tx.Type) != f.Type {
		return false
	}
	if f.Category != "" && f.Category != FilterAll && tx.Category != f.Category {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(tx.Description), q) &&
			!strings.Contains(strings.ToLower(tx.Category), q) {
			return false
		}
	}
	return true
}

// Summary aggregates the whole input slice. Totals are unsigned magnitudes;
// Balance is income minus expense.
type Summary struct {
	TotalIncome      core.Money `json:"totalIncome"`
	TotalExpense     core.Money `json:"totalExpense"`
	Balance          core.Money `json:"balance"`
	SavingsRate      float64    `json:"savingsRate"`
	ExpenseRatio     float64    `json:"expenseRatio"`
	TransactionCount int        `json:"transactionCount"`
	AvgTransaction   core.Money `json:"avgTransaction"`
}

// CategoryAnalysis is one row of the per-category breakdown.
type CategoryAnalysis struct {
	Category  string     `json:"category"`
	Income    core.Money `json:"income"`
	Expense   core.Money `json:"expense"`
	Total     core.Money `json:"total"`
	Count     int        `json:"count"`
	AvgAmount core.Money `json:"avgAmount"`
}

// MonthlyTrend is one YYYY-MM bucket. Months with no transactions do not
// appear.
type MonthlyTrend struct {
	Month   string     `json:"month"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Balance core.Money `json:"balance"`
}

// PeriodStats summarizes the transactions dated within a trailing window.
type PeriodStats struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Balance core.Money `json:"balance"`
	Count   int        `json:"count"`
	Period  string     `json:"period"`
}

// FilteredView applies the filter, preserving the input order (newest-first
// as maintained by the ledger).
func FilteredView(txs []core.Transaction, f Filter) []core.Transaction {
	if f.IsDefault() {
		return append([]core.Transaction(nil), txs...)
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// ComputeSummary produces the headline totals for the given transactions.
// Callers choose the scope explicitly: pass the full ledger for a global
// summary or a FilteredView result for a filtered one.
func ComputeSummary(txs []core.Transaction) Summary {
	var income, expense int64
	for _, tx := range txs {
		if tx.Type == core.Income {
			income += tx.Magnitude().Cents
		} else {
			expense += tx.Magnitude().Cents
		}
	}
	s := Summary{
		TotalIncome:      core.Money{Cents: income},
		TotalExpense:     core.Money{Cents: expense},
		Balance:          core.Money{Cents: income - expense},
		TransactionCount: len(txs),
	}
	if income > 0 {
		s.SavingsRate = float64(income-expense) / float64(income) * 100
		s.ExpenseRatio = float64(expense) / float64(income) * 100
	}
	if len(txs) > 0 {
		s.AvgTransaction = core.Money{Cents: (income + expense) / int64(len(txs))}
	}
	return s
}

// CategoryBreakdown returns one row per distinct category, sorted by total
// descending (category name ascending on ties).
func CategoryBreakdown(txs []core.Transaction) []CategoryAnalysis {
	byCat := map[string]*CategoryAnalysis{}
	order := []string{}
	for _, tx := range txs {
		row, ok := byCat[tx.Category]
		if !ok {
			row = &CategoryAnalysis{Category: tx.Category}
			byCat[tx.Category] = row
			order = append(order, tx.Category)
		}
		mag := tx.Magnitude().Cents
		if tx.Type == core.Income {
			row.Income.Cents += mag
		} else {
			row.Expense.Cents += mag
		}
		row.Total.Cents += mag
		row.Count++
	}
	out := make([]CategoryAnalysis, 0, len(order))
	for _, cat := range order {
		row := byCat[cat]
		if row.Count > 0 {
			row.AvgAmount = core.Money{Cents: row.Total.Cents / int64(row.Count)}
		}
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlyTrends buckets by the YYYY-MM prefix of the date, ascending by
// month key. No gap filling: absent months simply do not appear.
func MonthlyTrends(txs []core.Transaction) []MonthlyTrend {
	byMonth := map[string]*MonthlyTrend{}
	for _, tx := range txs {
		key := tx.Date.MonthKey()
		row, ok := byMonth[key]
		if !ok {
			row = &MonthlyTrend{Month: key}
			byMonth[key] = row
		}
		if tx.Type == core.Income {
			row.Income.Cents += tx.Magnitude().Cents
		} else {
			row.Expense.Cents += tx.Magnitude().Cents
		}
	}
	out := make([]MonthlyTrend, 0, len(byMonth))
	for _, row := range byMonth {
		row.Balance = core.Money{Cents: row.Income.Cents - row.Expense.Cents}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// UniqueCategories returns the distinct category values present, in
// first-observed order.
func UniqueCategories(txs []core.Transaction) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tx := range txs {
		if _, ok := seen[tx.Category]; ok {
			continue
		}
		seen[tx.Category] = struct{}{}
		out = append(out, tx.Category)
	}
	return out
}

// StatsByPeriod summarizes transactions dated on or after the start of the
// trailing week, month or year, measured from the given reference date.
func StatsByPeriod(txs []core.Transaction, period string, today core.Date) PeriodStats {
	var start core.Date
	switch period {
	case PeriodWeek:
		start = core.Date{Time: today.AddDate(0, 0, -7)}
	case PeriodYear:
		start = core.Date{Time: today.AddDate(-1, 0, 0)}
	default:
		period = PeriodMonth
		start = core.Date{Time: today.AddDate(0, -1, 0)}
	}
	stats := PeriodStats{Period: period}
	for _, tx := range txs {
		if tx.Date.Before(start.Time) {
			continue
		}
		if tx.Type == core.Income {
			stats.Income.Cents += tx.Magnitude().Cents
		} else {
			stats.Expense.Cents += tx.Magnitude().Cents
		}
		stats.Count++
	}
	stats.Balance = core.Money{Cents: stats.Income.Cents - stats.Expense.Cents}
	return stats
}
