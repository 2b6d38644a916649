// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles colours CLI output. Colours are dropped automatically when the writer
// is not a terminal.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a new Styles instance for the given writer.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

func (s *Styles) fg(text, color string) termenv.Style {
	return s.output.String(text).Foreground(s.output.Color(color))
}

// Success returns a styled success string (green + bold).
func (s *Styles) Success(text string) string {
	return s.fg(text, "2").Bold().String()
}

// Error returns a styled error string (red + bold).
func (s *Styles) Error(text string) string {
	return s.fg(text, "1").Bold().String()
}

// Warning returns a styled warning (yellow + bold).
func (s *Styles) Warning(text string) string {
	return s.fg(text, "3").Bold().String()
}

// FilePath returns a styled document path (cyan).
func (s *Styles) FilePath(text string) string {
	return s.fg(text, "6").String()
}

// Symbol returns a styled ticker symbol (yellow).
func (s *Styles) Symbol(text string) string {
	return s.fg(text, "3").String()
}

// Account returns a styled account name (blue).
func (s *Styles) Account(text string) string {
	return s.fg(text, "4").String()
}

// Amount returns a styled amount (magenta).
func (s *Styles) Amount(text string) string {
	return s.fg(text, "5").String()
}

// Signed colours a gain green and a loss red.
func (s *Styles) Signed(text string, negative bool) string {
	if negative {
		return s.fg(text, "1").String()
	}
	return s.fg(text, "2").String()
}

// Keyword returns a styled keyword (bold).
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim returns dimmed text for secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Output returns the underlying termenv Output.
func (s *Styles) Output() *termenv.Output {
	return s.output
}
