package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ruleset holds the matching tables the extraction pipeline runs on. All
// recognition is data-driven: line classification consults the start patterns
// and noise tables, field parsing consults the status vocabulary, the ordered
// type rules, and the sign keyword lists. Rules are evaluated in the order
// they appear; first match wins.
type Ruleset struct {
	// StartPatterns identify transaction START lines. A pattern marks a line
	// when its match begins within the first 3 bytes, which tolerates stray
	// characters PDF extraction sometimes puts before the date.
	StartPatterns []*regexp.Regexp
	// NoisePhrases mark boilerplate lines by case-insensitive substring.
	NoisePhrases []string
	// ColumnWords detect column-title repeats: a non-START line containing
	// three or more of these is noise.
	ColumnWords []string
	// Statuses is the status vocabulary, matched case-insensitively against
	// single tokens; the token is stored as it appeared.
	Statuses []string
	// TypeRules map runs of consecutive tokens to a transaction type. Keep
	// longer matches first so "DuitNow QR TNGD" beats "DuitNow QR".
	TypeRules []TypeRule
	// CreditKeywords and DebitKeywords infer the amount sign from context
	// when the amount token carries no explicit symbol.
	CreditKeywords []string
	DebitKeywords  []string
}

// TypeRule matches 1..n consecutive tokens (case-insensitive) and emits
// Value as the record's type. A two-token rule whose value joins the tokens
// with an underscore reassembles type labels that PDF extraction split.
type TypeRule struct {
	Match []string
	Value string
}

// DefaultRuleset returns the built-in tables for TNG-style e-wallet
// statements.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		StartPatterns: compilePatterns(defaultStartPatterns),
		NoisePhrases: []string{
			"opening balance",
			"closing balance",
			"balance brought forward",
			"statement period",
			"statement of account",
			"transaction history",
			"member id",
			"account no",
			"total paid in",
			"total paid out",
			"generated on",
			"computer generated",
			"continued",
		},
		ColumnWords: []string{
			"date", "time", "status", "type", "description",
			"amount", "balance", "reference",
		},
		Statuses: []string{
			"Successful", "Success", "Failed", "Pending",
			"Cancelled", "Reversed", "Processing",
		},
		TypeRules: []TypeRule{
			{Match: []string{"GO+", "Daily", "Earnings"}, Value: "GO+ Daily Earnings"},
			{Match: []string{"DuitNow", "QR", "TNGD"}, Value: "DuitNow QR TNGD"},
			{Match: []string{"GO+", "Cash", "In"}, Value: "GO+ Cash In"},
			{Match: []string{"eWallet", "Cash", "Out"}, Value: "eWallet Cash Out"},
			{Match: []string{"Transfer", "to", "Wallet"}, Value: "Transfer to Wallet"},
			{Match: []string{"Receive", "from", "Wallet"}, Value: "Receive from Wallet"},
			{Match: []string{"DUITNOW", "RECEIVEFROM"}, Value: "DUITNOW_RECEIVEFROM"},
			{Match: []string{"DUITNOW", "TRANSFERTO"}, Value: "DUITNOW_TRANSFERTO"},
			{Match: []string{"Payment", "Cancelled"}, Value: "Payment Cancelled"},
			{Match: []string{"DuitNow", "QR"}, Value: "DuitNow QR"},
			{Match: []string{"Reload"}, Value: "Reload"},
			{Match: []string{"Payment"}, Value: "Payment"},
		},
		CreditKeywords: []string{
			"received", "receive from", "refund", "reversal",
			"earnings", "cash in", "cashback",
		},
		DebitKeywords: []string{
			"paid", "charged", "payment to", "transfer to",
			"cash out", "withdrawal",
		},
	}
}

// defaultStartPatterns cover the date forms seen at the head of transaction
// lines: slash and dash day-first dates, ISO dates, and "15 Jan 2024" text
// dates.
var defaultStartPatterns = []string{
	`\d{1,2}/\d{1,2}/\d{2,4}\b`,
	`\d{4}-\d{2}-\d{2}\b`,
	`\d{1,2}-\d{1,2}-\d{2,4}\b`,
	`(?i)\d{1,2}[ -](?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[ -]\d{2,4}\b`,
}

func compilePatterns(exprs []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// matchType returns the first type rule matching the head of tokens, and the
// number of tokens it consumed. Zero means no rule matched.
func (rs *Ruleset) matchType(tokens []string) (TypeRule, int) {
	for _, rule := range rs.TypeRules {
		n := len(rule.Match)
		if n == 0 || n > len(tokens) {
			continue
		}
		matched := true
		for j, want := range rule.Match {
			if !strings.EqualFold(tokens[j], want) {
				matched = false
				break
			}
		}
		if matched {
			return rule, n
		}
	}
	return TypeRule{}, 0
}

func (rs *Ruleset) isStatus(tok string) bool {
	for _, s := range rs.Statuses {
		if strings.EqualFold(tok, s) {
			return true
		}
	}
	return false
}

// keywordSign infers the amount sign from the type and description text:
// +1 credit, -1 debit, 0 when no keyword (or both kinds) matched.
func (rs *Ruleset) keywordSign(text string) int {
	lower := strings.ToLower(text)
	credit := containsAnyPhrase(lower, rs.CreditKeywords)
	debit := containsAnyPhrase(lower, rs.DebitKeywords)
	switch {
	case credit && !debit:
		return 1
	case debit && !credit:
		return -1
	}
	return 0
}

func containsAnyPhrase(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// rulesetFile is the YAML form of a Ruleset. Sections left empty inherit the
// built-in defaults, so a file can override just the tables it cares about.
type rulesetFile struct {
	StartPatterns  []string       `yaml:"start_patterns"`
	NoisePhrases   []string       `yaml:"noise_phrases"`
	ColumnWords    []string       `yaml:"column_words"`
	Statuses       []string       `yaml:"statuses"`
	Types          []typeRuleFile `yaml:"types"`
	CreditKeywords []string       `yaml:"credit_keywords"`
	DebitKeywords  []string       `yaml:"debit_keywords"`
}

type typeRuleFile struct {
	// Match is the space-separated token sequence to recognize.
	Match string `yaml:"match"`
	// Value is the emitted type; defaults to Match when omitted.
	Value string `yaml:"value,omitempty"`
}

// LoadRuleset reads a YAML ruleset file and merges it over the defaults.
func LoadRuleset(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset: %w", err)
	}
	var rf rulesetFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing ruleset: %w", err)
	}

	rs := DefaultRuleset()
	if len(rf.StartPatterns) > 0 {
		pats := make([]*regexp.Regexp, 0, len(rf.StartPatterns))
		for _, e := range rf.StartPatterns {
			re, err := regexp.Compile(e)
			if err != nil {
				return nil, fmt.Errorf("bad start pattern %q: %w", e, err)
			}
			pats = append(pats, re)
		}
		rs.StartPatterns = pats
	}
	if len(rf.NoisePhrases) > 0 {
		rs.NoisePhrases = lowerAll(rf.NoisePhrases)
	}
	if len(rf.ColumnWords) > 0 {
		rs.ColumnWords = lowerAll(rf.ColumnWords)
	}
	if len(rf.Statuses) > 0 {
		rs.Statuses = rf.Statuses
	}
	if len(rf.Types) > 0 {
		rules := make([]TypeRule, 0, len(rf.Types))
		for _, t := range rf.Types {
			match := strings.Fields(t.Match)
			if len(match) == 0 {
				return nil, fmt.Errorf("type rule with empty match")
			}
			value := t.Value
			if value == "" {
				value = t.Match
			}
			rules = append(rules, TypeRule{Match: match, Value: value})
		}
		rs.TypeRules = rules
	}
	if len(rf.CreditKeywords) > 0 {
		rs.CreditKeywords = lowerAll(rf.CreditKeywords)
	}
	if len(rf.DebitKeywords) > 0 {
		rs.DebitKeywords = lowerAll(rf.DebitKeywords)
	}
	return rs, nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
