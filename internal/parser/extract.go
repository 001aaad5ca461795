package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/insightdelivered/bookkeep/internal/models"
)

// DefaultMaxTextBytes bounds how much recovered text one document may carry.
// Statements run a few hundred KB at most; anything bigger is not a
// statement.
const DefaultMaxTextBytes = 8 << 20

// Extractor runs the full pipeline over one document's recovered text:
// classify lines, assemble groups, parse fields. A failed group is counted
// and logged, never fatal; the rest of the document still parses.
type Extractor struct {
	// Rules drives all matching. Nil means DefaultRuleset.
	Rules *Ruleset
	// MaxBytes overrides DefaultMaxTextBytes when positive.
	MaxBytes int
	// Log receives per-group diagnostics. Nil means slog.Default.
	Log *slog.Logger
}

func NewExtractor(rules *Ruleset) *Extractor {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Extractor{Rules: rules}
}

// ExtractText splits a document's text into lines and extracts records.
func (e *Extractor) ExtractText(text string) ([]models.TransactionRecord, models.ExtractSummary, error) {
	return e.ExtractLines(strings.Split(text, "\n"))
}

// ExtractPages extracts records from per-page text, preserving page order.
// Line numbers in errors count across the whole document.
func (e *Extractor) ExtractPages(pages []string) ([]models.TransactionRecord, models.ExtractSummary, error) {
	var lines []string
	for _, page := range pages {
		lines = append(lines, strings.Split(page, "\n")...)
	}
	return e.ExtractLines(lines)
}

// ExtractLines runs the pipeline over ordered lines. It returns the records
// that parsed and a summary of what did not. The error is non-nil only for
// document-level failures: input over the size bound, or input with no
// transaction lines at all.
func (e *Extractor) ExtractLines(lines []string) ([]models.TransactionRecord, models.ExtractSummary, error) {
	var summary models.ExtractSummary

	size := 0
	for _, l := range lines {
		size += len(l) + 1
	}
	max := e.MaxBytes
	if max <= 0 {
		max = DefaultMaxTextBytes
	}
	if size > max {
		return nil, summary, &models.ParseError{
			Code:   models.CodeInputTooLarge,
			Detail: fmt.Sprintf("document text is %d bytes, limit is %d", size, max),
		}
	}

	groups := Assemble(lines, NewClassifier(e.Rules))
	if len(groups) == 0 {
		return nil, summary, &models.ParseError{
			Code:   models.CodeEmptyInput,
			Detail: "no transaction lines found",
		}
	}

	fp := NewFieldParser(e.Rules)
	records := make([]models.TransactionRecord, 0, len(groups))
	for _, g := range groups {
		rec, perr := fp.Parse(g)
		if perr != nil {
			summary.Record(perr)
			e.log().Warn("skipping transaction group",
				"code", string(perr.Code),
				"line", perr.Line,
				"detail", perr.Detail)
			continue
		}
		if rec.SignConflict {
			summary.Flagged++
			e.log().Warn("sign conflict, keeping symbol sign",
				"line", g.Line,
				"type", rec.Type,
				"description", rec.Description)
		}
		records = append(records, rec)
		summary.Parsed++
	}
	return records, summary, nil
}

func (e *Extractor) log() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}
