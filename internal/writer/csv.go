package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/insightdelivered/bookkeep/internal/models"
)

// Header is the fixed column layout of every transactions CSV. Consumers key
// on these names, so the layout never varies with the input.
var Header = []string{"date", "time", "status", "type", "description", "amount", "balance"}

// maxNameAttempts bounds the suffix scan so a pathological directory cannot
// spin forever.
const maxNameAttempts = 10000

// CSVWriter writes transaction records to CSV format.
type CSVWriter struct{}

// WriteToFile writes records to a CSV file at the given path, replacing any
// existing file. Use WriteToDir to get collision-safe naming instead.
func (w *CSVWriter) WriteToFile(path string, records []models.TransactionRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, records); err != nil {
		return err
	}
	return f.Sync()
}

// WriteToDir writes records into dir under the first free name in the
// sequence base.csv, base_1.csv, base_2.csv, ... and returns the path it
// used. Existing files are never touched.
func (w *CSVWriter) WriteToDir(dir, base string, records []models.TransactionRecord) (string, error) {
	f, path, err := NextFreePath(dir, base, ".csv")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := w.Write(f, records); err != nil {
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("failed to flush %q: %w", path, err)
	}
	return path, nil
}

// Write writes the fixed header and one row per record, in input order.
func (w *CSVWriter) Write(out io.Writer, records []models.TransactionRecord) error {
	writer := csv.NewWriter(out)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		balance := ""
		if rec.Balance.Valid {
			balance = rec.Balance.Decimal.StringFixed(2)
		}
		row := []string{
			rec.DateISO(),
			rec.Time,
			rec.Status,
			rec.Type,
			rec.Description,
			rec.Amount.StringFixed(2),
			balance,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// NextFreePath opens the first unused file in dir named base+ext, then
// base_1+ext, base_2+ext, and so on. Creation is exclusive, so concurrent
// writers cannot land on the same name; gaps in the sequence are filled.
func NextFreePath(dir, base, ext string) (*os.File, string, error) {
	for i := 0; i <= maxNameAttempts; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("failed to create output file %q: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("no free name for %s%s in %q after %d attempts", base, ext, dir, maxNameAttempts)
}
