package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"finledger/internal/core"
)

var csvHeader = []string{"id", "description", "amount", "category", "type", "date", "timestamp"}

// CSVFilename returns the dated download name for the CSV report.
func CSVFilename(now time.Time) string {
	return fmt.Sprintf("finledger-export-%s.csv", now.Format("2006-01-02"))
}

// WriteCSV renders the sequence as a CSV report with a header row. Amounts
// are decimal strings with the stored sign.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		record := []string{
			tx.ID,
			tx.Description,
			tx.Amount.DecimalString(),
			tx.Category,
			string(tx.Type),
			tx.Date.String(),
			strconv.FormatInt(tx.Timestamp, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
