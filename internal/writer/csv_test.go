package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/insightdelivered/bookkeep/internal/models"
	"github.com/shopspring/decimal"
)

func testRecord(t *testing.T, date, amount, balance string) models.TransactionRecord {
	t.Helper()
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		t.Fatal(err)
	}
	rec := models.TransactionRecord{
		Date:        d,
		Time:        "10:00",
		Status:      "Successful",
		Type:        "Payment",
		Description: "Kedai Runcit",
		Amount:      decimal.RequireFromString(amount),
	}
	if balance != "" {
		rec.Balance = decimal.NullDecimal{Decimal: decimal.RequireFromString(balance), Valid: true}
	}
	return rec
}

func TestCSVWriter_Write(t *testing.T) {
	records := []models.TransactionRecord{
		testRecord(t, "2024-01-01", "-12.5", "340"),
		testRecord(t, "2024-01-02", "100", ""),
	}

	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.Write(&buf, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	if lines[0] != "date,time,status,type,description,amount,balance" {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[1] != "2024-01-01,10:00,Successful,Payment,Kedai Runcit,-12.50,340.00" {
		t.Errorf("row 1: got %q", lines[1])
	}
	// Absent balance stays an empty cell, never 0.00.
	if lines[2] != "2024-01-02,10:00,Successful,Payment,Kedai Runcit,100.00," {
		t.Errorf("row 2: got %q", lines[2])
	}
}

func TestCSVWriter_WriteQuotesCommas(t *testing.T) {
	rec := testRecord(t, "2024-01-01", "-1", "")
	rec.Description = "Nasi Lemak, extra sambal"

	var buf bytes.Buffer
	if err := (&CSVWriter{}).Write(&buf, []models.TransactionRecord{rec}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"Nasi Lemak, extra sambal"`) {
		t.Errorf("description with comma not quoted: %q", buf.String())
	}
}

func TestCSVWriter_WriteToDir_Increments(t *testing.T) {
	dir := t.TempDir()
	w := &CSVWriter{}
	records := []models.TransactionRecord{testRecord(t, "2024-01-01", "-1", "")}

	want := []string{"transactions.csv", "transactions_1.csv", "transactions_2.csv"}
	for _, name := range want {
		path, err := w.WriteToDir(dir, "transactions", records)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Base(path) != name {
			t.Errorf("got %q, want %q", filepath.Base(path), name)
		}
	}

	// All three files exist with content.
	for _, name := range want {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if !strings.HasPrefix(string(data), "date,time,") {
			t.Errorf("%s: missing header", name)
		}
	}
}

func TestCSVWriter_WriteToDir_FillsGaps(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"transactions.csv", "transactions_2.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("existing"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	path, err := (&CSVWriter{}).WriteToDir(dir, "transactions", []models.TransactionRecord{
		testRecord(t, "2024-01-01", "-1", ""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "transactions_1.csv" {
		t.Errorf("got %q, want transactions_1.csv", filepath.Base(path))
	}

	// The existing files were not touched.
	data, err := os.ReadFile(filepath.Join(dir, "transactions.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "existing" {
		t.Errorf("transactions.csv was overwritten: %q", data)
	}
}

func TestNextFreePath_BadDir(t *testing.T) {
	_, _, err := NextFreePath(filepath.Join(t.TempDir(), "missing"), "out", ".csv")
	if err == nil {
		t.Error("expected an error for a missing directory")
	}
}
