package models

// ExtractSummary reports the outcome of extracting one document.
type ExtractSummary struct {
	Parsed  int           `json:"parsed"`
	Failed  int           `json:"failed"`
	Flagged int           `json:"flagged"`
	Errors  []*ParseError `json:"errors,omitempty"`
}

// Record notes a per-group failure.
func (s *ExtractSummary) Record(err *ParseError) {
	s.Failed++
	s.Errors = append(s.Errors, err)
}
