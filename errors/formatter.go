// Package errors renders pipeline, parser and ledger errors for different
// consumers. Domain error types stay in their own packages; this package only
// handles presentation.
//
//   - TextFormatter: the error message followed by the offending document lines
//   - JSONFormatter: structured JSON for scripts and other tools
package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/parser"
	"github.com/robinvdvleuten/holdings/pipeline"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

type lineError interface {
	error
	GetLine() int
}

type textError interface {
	GetText() string
}

// TextFormatter formats errors for command-line output.
type TextFormatter struct {
	source []byte
}

// TextFormatterOption configures a TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource sets the document text, so errors show the surrounding lines
// rather than only the offending one.
func WithSource(source []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.source = source
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error. Errors located on a document line are
// followed by that line, indented.
func (tf *TextFormatter) Format(err error) string {
	if err == nil {
		return ""
	}

	line, text := locate(err)
	if line <= 0 {
		return err.Error()
	}

	if tf.source != nil {
		return tf.formatWithSourceContext(line, err.Error())
	}
	if text != "" {
		return err.Error() + "\n\n   " + text + "\n"
	}
	return err.Error()
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// formatWithSourceContext shows two lines before and one line after the
// failing line, marking the failing one.
func (tf *TextFormatter) formatWithSourceContext(line int, message string) string {
	var buf bytes.Buffer

	buf.WriteString(message)
	buf.WriteString("\n\n")

	source := strings.ReplaceAll(string(tf.source), "\r\n", "\n")
	lines := strings.Split(source, "\n")

	start := max(line-3, 0)
	end := min(line, len(lines)-1)

	for i := start; i <= end; i++ {
		marker := "   "
		if i == line-1 {
			marker = " > "
		}
		buf.WriteString(marker)
		buf.WriteString(lines[i])
		buf.WriteByte('\n')
	}

	return buf.String()
}

// locate finds the first document line in the error chain, and its raw text.
func locate(err error) (int, string) {
	var le lineError
	if !stderrors.As(err, &le) {
		return 0, ""
	}

	var text string
	if te, ok := le.(textError); ok {
		text = te.GetText()
	}
	return le.GetLine(), text
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string                 `json:"type"`
	Message  string                 `json:"message"`
	Position *PositionJSON          `json:"position,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// PositionJSON represents a document position in JSON format.
type PositionJSON struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line"`
	Text     string `json:"text,omitempty"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.toJSON(err))
	}
	return result
}

func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    typeName(err),
		Message: err.Error(),
		Details: make(map[string]interface{}),
	}

	var (
		parseErr *parser.ParseError
		rowErr   *pipeline.RowError
		aliasErr *pipeline.AliasResolutionError
	)
	switch {
	case stderrors.As(err, &parseErr):
		errJSON.Position = &PositionJSON{Filename: parseErr.Filename, Line: parseErr.Line, Text: parseErr.Text}
		errJSON.Details["reason"] = string(parseErr.Reason)
	case stderrors.As(err, &rowErr):
		errJSON.Position = &PositionJSON{Filename: rowErr.Filename, Line: rowErr.Line, Text: rowErr.Text}
	case stderrors.As(err, &aliasErr):
		errJSON.Position = &PositionJSON{Filename: aliasErr.Filename, Line: aliasErr.Line}
		errJSON.Details["symbol"] = aliasErr.Symbol
	}

	var (
		oversold *ledger.OversoldError
		invalid  *ledger.ValidationError
	)
	switch {
	case stderrors.As(err, &oversold):
		errJSON.Details["symbol"] = oversold.Symbol
		errJSON.Details["date"] = oversold.Date.String()
		errJSON.Details["requested"] = oversold.Requested.String()
		errJSON.Details["available"] = oversold.Available.String()
	case stderrors.As(err, &invalid):
		if invalid.Symbol != "" {
			errJSON.Details["symbol"] = invalid.Symbol
		}
		if !invalid.Date.IsZero() {
			errJSON.Details["date"] = invalid.Date.String()
		}
		errJSON.Details["field"] = invalid.Field
	}

	return errJSON
}

// typeName names the most specific known error in the chain.
func typeName(err error) string {
	for _, target := range []interface{}{
		new(*ledger.OversoldError),
		new(*ledger.ValidationError),
		new(*pipeline.AliasResolutionError),
		new(*parser.ParseError),
		new(*pipeline.RowError),
	} {
		if stderrors.As(err, target) {
			return strings.TrimPrefix(fmt.Sprintf("%T", target), "*")
		}
	}
	return fmt.Sprintf("%T", err)
}
