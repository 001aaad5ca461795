package parser

import "strings"

// LineClass is the role a raw text line plays in a statement.
type LineClass int

const (
	// LineNoise lines carry no transaction data: blanks, boilerplate,
	// repeated column titles, page markers.
	LineNoise LineClass = iota
	// LineStart opens a new transaction: a date appears at the head of
	// the line.
	LineStart
	// LineContinuation is overflow text belonging to the preceding START.
	LineContinuation
)

func (c LineClass) String() string {
	switch c {
	case LineStart:
		return "start"
	case LineContinuation:
		return "continuation"
	default:
		return "noise"
	}
}

// Classifier assigns a class to each line using the ruleset tables. It keeps
// no state between lines, so the same line always gets the same class.
type Classifier struct {
	rules *Ruleset
}

func NewClassifier(rules *Ruleset) *Classifier {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Classifier{rules: rules}
}

// Classify normalizes the line and decides its class. A date at the head of
// the line wins over the noise tables, so a transaction whose description
// happens to contain a boilerplate phrase is still a START.
func (c *Classifier) Classify(raw string) LineClass {
	line := normalizeLine(raw)
	if line == "" {
		return LineNoise
	}
	if _, _, ok := splitDate(line, c.rules.StartPatterns); ok {
		return LineStart
	}
	if c.isNoise(line) {
		return LineNoise
	}
	return LineContinuation
}

func (c *Classifier) isNoise(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range c.rules.NoisePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	// Column-title repeats at page breaks mention several column names at
	// once; ordinary descriptions mention at most a couple.
	hits := 0
	for _, w := range c.rules.ColumnWords {
		if strings.Contains(lower, w) {
			hits++
			if hits >= 3 {
				return true
			}
		}
	}
	return pageMarkerPattern.MatchString(line)
}
