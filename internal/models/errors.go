package models

import "fmt"

// ParseCode identifies a class of extraction failure.
type ParseCode string

const (
	// CodeMissingDate: the group's first line carried no parseable date.
	CodeMissingDate ParseCode = "MISSING_DATE"
	// CodeInvalidAmount: no amount token, or one that is not a decimal with
	// at most 2 fractional digits.
	CodeInvalidAmount ParseCode = "INVALID_AMOUNT"
	// CodeEmptyInput: the whole document produced zero transaction groups.
	CodeEmptyInput ParseCode = "EMPTY_INPUT"
	// CodeInputTooLarge: document text exceeds the configured size bound.
	CodeInputTooLarge ParseCode = "INPUT_TOO_LARGE"
	// CodeIOError: the CSV (or text) output could not be written.
	CodeIOError ParseCode = "IO_ERROR"
)

// ParseError describes why a line group, or a whole document, was rejected.
type ParseError struct {
	Code ParseCode `json:"code"`
	// Line is the 1-based source line of the group's START line;
	// 0 for document-level errors.
	Line   int    `json:"line,omitempty"`
	Raw    string `json:"raw,omitempty"`
	Detail string `json:"detail"`
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d: %s", e.Code, e.Line, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Is makes errors.Is match on the code, so callers can test against a bare
// &ParseError{Code: ...} sentinel.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Code == e.Code
}
