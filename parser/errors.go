package parser

import (
	"fmt"
)

// Reason is a machine-readable code describing why a document failed to parse.
type Reason string

const (
	ReasonMissingSection Reason = "missing-section"
	ReasonMissingColumn  Reason = "missing-column"
	ReasonMissingDate    Reason = "missing-date"
	ReasonInvalidDate    Reason = "invalid-date"
	ReasonInvalidNumber  Reason = "invalid-number"
	ReasonMissingField   Reason = "missing-field"
	ReasonUnknownAction  Reason = "unknown-action"
	ReasonMalformedRow   Reason = "malformed-row"
)

// Position is a location in a document.
type Position struct {
	Filename string
	Line     int // Line number (1-indexed), 0 when the error is not tied to a line
}

// String returns a human-readable representation of the position.
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d", p.Filename, p.Line)
	}
	return fmt.Sprintf("line %d", p.Line)
}

// ParseError represents a document that does not match any recognised row or
// table shape, or a recognised field that is not a valid number or date.
type ParseError struct {
	Filename   string
	Line       int
	Text       string // Offending raw line
	Reason     Reason
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.GetPosition(), e.Reason, e.Message)
}

func (e *ParseError) GetPosition() Position {
	return Position{Filename: e.Filename, Line: e.Line}
}

func (e *ParseError) GetLine() int {
	return e.Line
}

func (e *ParseError) GetReason() Reason {
	return e.Reason
}

func (e *ParseError) GetText() string {
	return e.Text
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// newParseError creates a parse error for a line of a document.
func newParseError(filename string, line int, text string, reason Reason, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Filename: filename,
		Line:     line,
		Text:     text,
		Reason:   reason,
		Message:  fmt.Sprintf(format, args...),
	}
}
