package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"

	"finledger/internal/analytics"
	"finledger/internal/backend"
	"finledger/internal/config"
	"finledger/internal/core"
	"finledger/internal/export"
	applog "finledger/internal/log"
)

type Params struct {
	File     string `descr:"Read the ledger from an exported JSON file instead of the configured backend"`
	Currency string `descr:"Currency code for formatting (defaults to the stored preference)"`
	JSON     bool   `descr:"Emit JSON instead of tables"`
	Xlsx     string `descr:"Also write an XLSX report to this path"`
}

func main() {
	_ = godotenv.Load()

	boa.NewCmdT[Params]("finledger-report").
		WithShort("Print summary and category reports for the transaction ledger").
		WithLong("Reads the ledger from the configured storage backend (or an exported JSON file) and prints income, expense and per-category figures.").
		WithRunFunc(func(params *Params) {
			txs, currency, err := loadLedger(params)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if params.Currency != "" {
				currency = params.Currency
			}
			if currency == "" {
				currency = core.DefaultCurrency
			}

			summary := analytics.ComputeSummary(txs)
			breakdown := analytics.CategoryBreakdown(txs)
			trends := analytics.MonthlyTrends(txs)

			if params.JSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(map[string]any{
					"currency":  currency,
					"summary":   summary,
					"breakdown": breakdown,
					"monthly":   trends,
				})
			} else {
				printSummary(summary, currency, len(txs))
				printBreakdown(breakdown, currency)
				printTrends(trends, currency)
			}

			if params.Xlsx != "" {
				if err := writeXLSXReport(params.Xlsx, txs, summary, currency); err != nil {
					fmt.Fprintf(os.Stderr, "Error writing XLSX: %v\n", err)
					os.Exit(1)
				}
				fmt.Printf("XLSX report written to %s\n", params.Xlsx)
			}
		}).
		Run()
}

func loadLedger(params *Params) ([]core.Transaction, string, error) {
	if params.File != "" {
		f, err := os.Open(params.File)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", params.File, err)
		}
		defer f.Close()
		txs, err := export.ReadJSON(f)
		if err != nil {
			return nil, "", fmt.Errorf("parse %s: %w", params.File, err)
		}
		return txs, "", nil
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel("error"),
		Component: applog.ComponentReport,
	})

	result, err := backend.New(backend.Config{
		Type:    backend.Type(cfg.DataBackend),
		DBPath:  cfg.DBPath,
		DataDir: cfg.DataDir,
	}, logger)
	if err != nil {
		return nil, "", err
	}
	defer result.Gateway.Close()

	ctx := context.Background()
	txs, err := result.Gateway.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	currency, err := result.Gateway.LoadCurrency(ctx)
	if err != nil {
		return nil, "", err
	}
	return txs, currency, nil
}

func printSummary(s analytics.Summary, currency string, count int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Summary")
	t.AppendRows([]table.Row{
		{"Transactions", count},
		{"Total income", core.FormatCurrency(s.TotalIncome, currency)},
		{"Total expenses", core.FormatCurrency(s.TotalExpense, currency)},
		{"Balance", core.FormatCurrency(s.Balance, currency)},
		{"Savings rate", fmt.Sprintf("%.1f%%", s.SavingsRate)},
		{"Expense ratio", fmt.Sprintf("%.1f%%", s.ExpenseRatio)},
		{"Avg transaction", core.FormatCurrency(s.AvgTransaction, currency)},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
	fmt.Println()
}

func printBreakdown(rows []analytics.CategoryAnalysis, currency string) {
	if len(rows) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("By category")
	t.AppendHeader(table.Row{"Category", "Income", "Expense", "Total", "Count", "Avg"})
	for _, row := range rows {
		t.AppendRow(table.Row{
			core.CategoryName(row.Category),
			core.FormatCurrency(row.Income, currency),
			core.FormatCurrency(row.Expense, currency),
			core.FormatCurrency(row.Total, currency),
			row.Count,
			core.FormatCurrency(row.AvgAmount, currency),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
	fmt.Println()
}

func printTrends(rows []analytics.MonthlyTrend, currency string) {
	if len(rows) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Monthly")
	t.AppendHeader(table.Row{"Month", "Income", "Expense", "Balance"})
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Month,
			core.FormatCurrency(row.Income, currency),
			core.FormatCurrency(row.Expense, currency),
			core.FormatCurrency(row.Balance, currency),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	fmt.Println()
}

func writeXLSXReport(path string, txs []core.Transaction, summary analytics.Summary, currency string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteXLSX(f, txs, summary, currency)
}
