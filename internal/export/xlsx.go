package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"finledger/internal/analytics"
	"finledger/internal/core"
)

// XLSXFilename returns the dated download name for the workbook.
func XLSXFilename(now time.Time) string {
	return fmt.Sprintf("finledger-export-%s.xlsx", now.Format("2006-01-02"))
}

// WriteXLSX renders a workbook with one sheet of transactions and one of
// summary figures. Amounts are written as floats in major units.
func WriteXLSX(w io.Writer, txs []core.Transaction, summary analytics.Summary, currency string) error {
	f := excelize.NewFile()
	defer f.Close()

	const txSheet = "Transactions"
	if err := f.SetSheetName("Sheet1", txSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"ID", "Description", "Amount", "Category", "Type", "Date"}
	if err := f.SetSheetRow(txSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, tx := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		row := []any{tx.ID, tx.Description, tx.Amount.Float(), tx.Category, string(tx.Type), tx.Date.String()}
		if err := f.SetSheetRow(txSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	const sumSheet = "Summary"
	if _, err := f.NewSheet(sumSheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	rows := [][]any{
		{"Currency", currency},
		{"Total income", summary.TotalIncome.Float()},
		{"Total expenses", summary.TotalExpense.Float()},
		{"Balance", summary.Balance.Float()},
		{"Transactions", summary.TransactionCount},
		{"Savings rate %", summary.SavingsRate},
		{"Expense ratio %", summary.ExpenseRatio},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sumSheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
