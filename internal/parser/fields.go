package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/bookkeep/internal/models"
	"github.com/shopspring/decimal"
)

// FieldParser turns one assembled group into a transaction record. Parsing
// is pure: no state survives between calls, and the same group always yields
// the same record.
type FieldParser struct {
	rules *Ruleset
}

func NewFieldParser(rules *Ruleset) *FieldParser {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &FieldParser{rules: rules}
}

// Parse extracts the record fields from a group. The date comes off the head
// of the START line, an optional time token follows it, the trailing numeric
// run supplies amount and balance, and the remaining tokens are scanned
// against the rule tables for status and type. Whatever no rule claims
// becomes the description.
func (p *FieldParser) Parse(g Group) (models.TransactionRecord, *models.ParseError) {
	dateStr, rest, ok := splitDate(g.Start, p.rules.StartPatterns)
	if !ok {
		return models.TransactionRecord{}, &models.ParseError{
			Code:   models.CodeMissingDate,
			Line:   g.Line,
			Raw:    g.Start,
			Detail: "no date at start of line",
		}
	}
	date, ok := parseDate(dateStr)
	if !ok {
		return models.TransactionRecord{}, &models.ParseError{
			Code:   models.CodeMissingDate,
			Line:   g.Line,
			Raw:    g.Start,
			Detail: fmt.Sprintf("unparseable date %q", dateStr),
		}
	}

	tokens := strings.Fields(rest)
	timeStr, tokens := popTime(tokens)
	for _, cont := range g.Continuations {
		tokens = append(tokens, strings.Fields(cont)...)
	}

	amountTok, balanceTok, body := splitTrailingNumerics(tokens)

	rec := models.TransactionRecord{Date: date, Time: timeStr}
	var desc []string
	for i := 0; i < len(body); {
		if rec.Type == "" {
			if rule, n := p.rules.matchType(body[i:]); n > 0 {
				rec.Type = rule.Value
				i += n
				continue
			}
		}
		if rec.Status == "" && p.rules.isStatus(body[i]) {
			rec.Status = body[i]
			i++
			continue
		}
		desc = append(desc, body[i])
		i++
	}
	rec.Description = strings.Join(desc, " ")

	if amountTok == "" {
		return models.TransactionRecord{}, &models.ParseError{
			Code:   models.CodeInvalidAmount,
			Line:   g.Line,
			Raw:    g.Start,
			Detail: "no numeric amount token in group",
		}
	}
	amount, symbol, err := parseMoney(amountTok)
	if err != nil {
		return models.TransactionRecord{}, &models.ParseError{
			Code:   models.CodeInvalidAmount,
			Line:   g.Line,
			Raw:    g.Start,
			Detail: err.Error(),
		}
	}

	// An explicit symbol on the amount is authoritative. Keyword inference
	// only fills in when the token was unsigned; a disagreement between the
	// two is kept on the record for review, never silently resolved.
	keyword := p.rules.keywordSign(rec.Type + " " + rec.Description)
	switch {
	case symbol != 0:
		if keyword != 0 && keyword != symbol {
			rec.SignConflict = true
		}
	case keyword < 0:
		amount = amount.Neg()
	}
	rec.Amount = amount

	if balanceTok != "" {
		balance, _, err := parseMoney(balanceTok)
		if err != nil {
			return models.TransactionRecord{}, &models.ParseError{
				Code:   models.CodeInvalidAmount,
				Line:   g.Line,
				Raw:    g.Start,
				Detail: "balance: " + err.Error(),
			}
		}
		rec.Balance = decimal.NullDecimal{Decimal: balance, Valid: true}
	}
	return rec, nil
}

// splitTrailingNumerics peels the run of numeric-looking tokens off the end
// of the group. Two or more trailing numerics mean amount then balance, in
// that order; exactly one means amount only. Numerics beyond the last two
// belong to the description (reference numbers and the like). A bare "-" or
// "+" token immediately before the amount is its detached sign.
func splitTrailingNumerics(tokens []string) (amount, balance string, body []string) {
	i := len(tokens)
	for i > 0 && isNumericToken(tokens[i-1]) {
		i--
	}
	run := tokens[i:]
	body = tokens[:i]

	switch len(run) {
	case 0:
		return "", "", body
	case 1:
		amount = run[0]
	default:
		amount = run[len(run)-2]
		balance = run[len(run)-1]
		body = append(body, run[:len(run)-2]...)
	}
	if len(run) <= 2 && len(body) > 0 {
		switch last := body[len(body)-1]; last {
		case "-", "+":
			amount = last + amount
			body = body[:len(body)-1]
		}
	}
	return amount, balance, body
}
