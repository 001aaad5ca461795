package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date form used on every output surface.
const DateLayout = "2006-01-02"

// TransactionRecord is one parsed statement entry. Records are assembled once
// by the extraction pipeline and read-only afterwards; output order always
// matches their order of appearance in the source text.
type TransactionRecord struct {
	Date        time.Time
	Time        string
	Status      string
	Type        string
	Description string
	Amount      decimal.Decimal
	// Balance is the running balance after the transaction. Absent when the
	// statement does not print one; absence is distinct from zero.
	Balance decimal.NullDecimal
	// SignConflict marks records where an explicit +/- symbol disagreed with
	// a sign keyword in the surrounding text. The symbol wins; the flag is
	// kept so callers can route the record for review.
	SignConflict bool
}

// DateISO returns the record date in ISO-8601 form.
func (r TransactionRecord) DateISO() string {
	return r.Date.Format(DateLayout)
}

// MarshalJSON emits the ISO date and omits an absent balance entirely,
// so JSON consumers never see a fake zero.
func (r TransactionRecord) MarshalJSON() ([]byte, error) {
	v := struct {
		Date         string           `json:"date"`
		Time         string           `json:"time,omitempty"`
		Status       string           `json:"status,omitempty"`
		Type         string           `json:"type,omitempty"`
		Description  string           `json:"description"`
		Amount       decimal.Decimal  `json:"amount"`
		Balance      *decimal.Decimal `json:"balance,omitempty"`
		SignConflict bool             `json:"signConflict,omitempty"`
	}{
		Date:         r.DateISO(),
		Time:         r.Time,
		Status:       r.Status,
		Type:         r.Type,
		Description:  r.Description,
		Amount:       r.Amount,
		SignConflict: r.SignConflict,
	}
	if r.Balance.Valid {
		v.Balance = &r.Balance.Decimal
	}
	return json.Marshal(v)
}

// PasswordLookup resolves candidate passwords for the unlock step. The
// extractor only iterates the returned candidates in order; what the category
// names mean is the implementation's business.
type PasswordLookup func(categories ...string) []string
