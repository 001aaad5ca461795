package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// HH:MM or HH:MM:SS, optionally followed by a separate AM/PM token.
	timePattern     = regexp.MustCompile(`^\d{1,2}:\d{2}(?::\d{2})?$`)
	meridiemPattern = regexp.MustCompile(`^(?i:AM|PM)$`)

	// A token that looks like money: optional sign, optional currency
	// prefix, digits with thousand separators, optional fraction.
	numericTokenPattern = regexp.MustCompile(`^[+-]?(?:RM|MYR|£|\$|€)?\d[\d,]*(?:\.\d+)?$`)

	// Bare page markers like "Page 3", "Page 3 of 7" or "3 / 7".
	pageMarkerPattern = regexp.MustCompile(`(?i)^(?:page\s+\d+(?:\s+of\s+\d+)?|\d+\s*/\s*\d+)$`)
)

// dateLayouts cover the date forms the start patterns recognize. Day-first
// for the slash and dash forms, which is how the statements print them.
var dateLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"2006-01-02",
	"2-1-2006",
	"2-1-06",
	"2 Jan 2006",
	"2 Jan 06",
	"2-Jan-2006",
	"2-Jan-06",
}

// normalizeLine strips the Unicode debris PDF extraction leaves behind:
// zero-width spaces, non-breaking spaces, and stray control characters.
func normalizeLine(line string) string {
	line = strings.ReplaceAll(line, "​", "")
	line = strings.ReplaceAll(line, " ", " ")
	line = strings.ReplaceAll(line, "\uFEFF", "")
	line = strings.ReplaceAll(line, "\t", " ")
	return strings.TrimSpace(line)
}

// splitDate finds a date at the head of the line (match offset < 3) and
// returns the date text and the remainder of the line.
func splitDate(line string, patterns []*regexp.Regexp) (date, rest string, ok bool) {
	for _, re := range patterns {
		loc := re.FindStringIndex(line)
		if loc != nil && loc[0] < 3 {
			return line[loc[0]:loc[1]], strings.TrimSpace(line[loc[1]:]), true
		}
	}
	return "", "", false
}

// parseDate tries each known layout against a date string. Runs of
// whitespace are collapsed first so "15  Jan  2024" still parses.
func parseDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// popTime takes a leading time token (plus a separate AM/PM token if one
// follows) off the token list.
func popTime(tokens []string) (string, []string) {
	if len(tokens) == 0 || !timePattern.MatchString(tokens[0]) {
		return "", tokens
	}
	tt := tokens[0]
	tokens = tokens[1:]
	if len(tokens) > 0 && meridiemPattern.MatchString(tokens[0]) {
		tt += " " + strings.ToUpper(tokens[0])
		tokens = tokens[1:]
	}
	return tt, tokens
}

func isNumericToken(tok string) bool {
	return numericTokenPattern.MatchString(tok)
}

// parseMoney converts a numeric-looking token to a decimal. It returns the
// explicit sign carried by the token (-1, +1, or 0 for unsigned) and rejects
// values with more than two fractional digits.
func parseMoney(tok string) (decimal.Decimal, int, error) {
	s := tok
	sign := 0
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		sign = 1
		s = s[1:]
	}
	for _, prefix := range []string{"RM", "MYR", "£", "$", "€"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, 0, fmt.Errorf("amount %q is not a number", tok)
	}
	if d.Exponent() < -2 {
		return decimal.Decimal{}, 0, fmt.Errorf("amount %q has more than two decimal places", tok)
	}
	if sign == -1 {
		d = d.Neg()
	}
	return d, sign, nil
}
