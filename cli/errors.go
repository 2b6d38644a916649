package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/holdings/errors"
)

var (
	errMarkerStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	formatter *errors.TextFormatter
}

// NewErrorRenderer creates a renderer with source content for context. A nil
// source shows only the offending line when the error carries it.
func NewErrorRenderer(source []byte) *ErrorRenderer {
	var opts []errors.TextFormatterOption
	if source != nil {
		opts = append(opts, errors.WithSource(source))
	}
	return &ErrorRenderer{formatter: errors.NewTextFormatter(opts...)}
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	plain := r.formatter.Format(err)

	message, context, found := strings.Cut(plain, "\n\n")
	if !found {
		return errorStyle.Render(plain)
	}

	var buf strings.Builder
	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	for _, line := range strings.Split(strings.TrimSuffix(context, "\n"), "\n") {
		if rest, ok := strings.CutPrefix(line, " > "); ok {
			buf.WriteString(errMarkerStyle.Render(" > "))
			buf.WriteString(rest)
		} else {
			buf.WriteString(errContextStyle.Render(line))
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}
