package api

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/bookkeep/internal/buildinfo"
	"github.com/insightdelivered/bookkeep/internal/extractor"
	"github.com/insightdelivered/bookkeep/internal/models"
	"github.com/insightdelivered/bookkeep/internal/parser"
	"github.com/insightdelivered/bookkeep/internal/writer"
)

// PasswordSource supplies candidate passwords for protected uploads. The
// serve command wires the vault in; nil means only passwords sent with the
// request are tried.
var PasswordSource models.PasswordLookup

// Rules drives parsing for all requests; nil means the built-in tables.
var Rules *parser.Ruleset

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success      bool                       `json:"success"`
	Error        string                     `json:"error,omitempty"`
	Transactions []models.TransactionRecord `json:"transactions"`
	CSV          string                     `json:"csv,omitempty"`
	Summary      *models.ExtractSummary     `json:"summary,omitempty"`
	MoneyIn      string                     `json:"moneyIn,omitempty"`
	MoneyOut     string                     `json:"moneyOut,omitempty"`
	Count        int                        `json:"count"`
	Unlocked     bool                       `json:"unlocked"`
	RawText      string                     `json:"rawText,omitempty"`
	Version      string                     `json:"version,omitempty"`
}

// HandleHealth reports liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": buildinfo.Version,
		"engine":  "fiber",
	})
}

// HandleConvert accepts a multipart PDF upload and returns the extracted
// records plus the CSV rendering. Form fields: "file" holds the PDF,
// "passwords" optional newline-separated candidates tried before the
// configured source, "categories" optional comma-separated vault categories,
// "debug" set to "true" echoes the recovered text for diagnosing rules.
func HandleConvert(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "no file uploaded, use form field 'file'")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "only PDF files are supported")
	}

	// Request-supplied candidates are tried first, then the configured
	// source.
	var candidates []string
	for _, pw := range strings.Split(c.FormValue("passwords"), "\n") {
		if pw = strings.TrimSpace(pw); pw != "" {
			candidates = append(candidates, pw)
		}
	}
	if PasswordSource != nil {
		var categories []string
		for _, cat := range strings.Split(c.FormValue("categories"), ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				categories = append(categories, cat)
			}
		}
		candidates = append(candidates, PasswordSource(categories...)...)
	}

	tmpDir, err := os.MkdirTemp("", "bookkeep-upload-")
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "could not stage the upload")
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, "upload.pdf")
	if err := c.SaveFile(fileHeader, tmpPath); err != nil {
		return writeError(c, fiber.StatusInternalServerError, "could not save the upload")
	}

	doc, err := extractor.Open(tmpPath, candidates)
	if err != nil {
		if errors.Is(err, extractor.ErrBadPassword) {
			return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("could not read PDF: %v", err))
	}
	defer doc.Close()

	pages, err := doc.Text()
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("text recovery failed: %v", err))
	}

	records, summary, err := parser.NewExtractor(Rules).ExtractPages(pages)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("no transactions extracted: %v", err))
	}

	var csvBuf bytes.Buffer
	if err := (&writer.CSVWriter{}).Write(&csvBuf, records); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV rendering failed: %v", err))
	}

	// nil marshals to JSON null, not [].
	if records == nil {
		records = []models.TransactionRecord{}
	}

	totals := writer.Tally(records)
	resp := ConvertResponse{
		Success:      true,
		Transactions: records,
		CSV:          csvBuf.String(),
		Summary:      &summary,
		MoneyIn:      totals.MoneyIn.StringFixed(2),
		MoneyOut:     totals.MoneyOut.StringFixed(2),
		Count:        len(records),
		Unlocked:     doc.Password != "",
		Version:      buildinfo.Version,
	}
	if c.FormValue("debug") == "true" {
		resp.RawText = strings.Join(pages, "\n--- PAGE BREAK ---\n")
	}
	return c.JSON(resp)
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success:      false,
		Error:        msg,
		Transactions: []models.TransactionRecord{},
	})
}
