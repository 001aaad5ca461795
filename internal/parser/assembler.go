package parser

// Group is one transaction's worth of raw text: a START line plus the
// CONTINUATION lines that followed it, in source order.
type Group struct {
	// Start is the normalized START line.
	Start string
	// Continuations are the normalized overflow lines, in order.
	Continuations []string
	// Line is the 1-based line number of Start in the input, for error
	// reporting.
	Line int
}

// Assemble walks the lines once and folds them into groups. Noise lines are
// dropped, each START opens a new group, and continuations attach to the
// most recent START. Continuations seen before any START have nothing to
// attach to and are discarded.
func Assemble(lines []string, c *Classifier) []Group {
	if c == nil {
		c = NewClassifier(nil)
	}
	var groups []Group
	var cur *Group
	for i, raw := range lines {
		switch c.Classify(raw) {
		case LineNoise:
			continue
		case LineStart:
			if cur != nil {
				groups = append(groups, *cur)
			}
			cur = &Group{Start: normalizeLine(raw), Line: i + 1}
		case LineContinuation:
			if cur == nil {
				continue
			}
			cur.Continuations = append(cur.Continuations, normalizeLine(raw))
		}
	}
	if cur != nil {
		groups = append(groups, *cur)
	}
	return groups
}
