package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/bookkeep/internal/models"
	"github.com/shopspring/decimal"
)

// Totals aggregates a record set for the summary export.
type Totals struct {
	Count    int
	MoneyIn  decimal.Decimal
	MoneyOut decimal.Decimal
	Net      decimal.Decimal
	First    time.Time
	Last     time.Time
}

// Tally computes totals over the records. MoneyOut is reported as a positive
// magnitude; Net is MoneyIn minus MoneyOut.
func Tally(records []models.TransactionRecord) Totals {
	var t Totals
	for _, rec := range records {
		t.Count++
		if rec.Amount.IsNegative() {
			t.MoneyOut = t.MoneyOut.Add(rec.Amount.Neg())
		} else {
			t.MoneyIn = t.MoneyIn.Add(rec.Amount)
		}
		if t.First.IsZero() || rec.Date.Before(t.First) {
			t.First = rec.Date
		}
		if rec.Date.After(t.Last) {
			t.Last = rec.Date
		}
	}
	t.Net = t.MoneyIn.Sub(t.MoneyOut)
	return t
}

// WriteSummary writes the totals as metric,value rows.
func (w *CSVWriter) WriteSummary(out io.Writer, t Totals) error {
	writer := csv.NewWriter(out)

	rows := [][]string{
		{"metric", "value"},
		{"transactions", strconv.Itoa(t.Count)},
		{"money_in", t.MoneyIn.StringFixed(2)},
		{"money_out", t.MoneyOut.StringFixed(2)},
		{"net", t.Net.StringFixed(2)},
		{"first_date", isoOrEmpty(t.First)},
		{"last_date", isoOrEmpty(t.Last)},
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSummaryFile writes the totals next to an already written transactions
// CSV, deriving the name from it: out/tx.csv gets out/tx_summary.csv. The
// derived name tracks any collision suffix the transactions file received.
func (w *CSVWriter) WriteSummaryFile(csvPath string, t Totals) (string, error) {
	path := SummaryPathFor(csvPath)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.WriteSummary(f, t); err != nil {
		return "", err
	}
	return path, f.Sync()
}

// SummaryPathFor maps a transactions CSV path to its summary path.
func SummaryPathFor(csvPath string) string {
	return strings.TrimSuffix(csvPath, ".csv") + "_summary.csv"
}

func isoOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}
