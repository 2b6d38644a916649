package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/holdings/parser"
	"github.com/robinvdvleuten/holdings/pipeline"
)

func TestErrorRenderer_RenderWithSourceContext(t *testing.T) {
	source := "Run Date,Action,Symbol,Quantity,Price,Amount\n" +
		"01/02/2024,YOU BOUGHT AAA,AAA,10,10,-100\n" +
		"01/03/2024,SOMETHING ODD,AAA,,,\n" +
		"01/04/2024,DIVIDEND RECEIVED AAA,AAA,,,4.50\n"

	parseErr := &parser.ParseError{
		Filename: "history.csv",
		Line:     3,
		Text:     "01/03/2024,SOMETHING ODD,AAA,,,",
		Reason:   parser.ReasonUnknownAction,
		Message:  `unknown action "SOMETHING ODD"`,
	}

	output := NewErrorRenderer([]byte(source)).Render(parseErr)

	assert.Contains(t, output, "history.csv:3: unknown-action")
	assert.Contains(t, output, "YOU BOUGHT AAA")
	assert.Contains(t, output, "DIVIDEND RECEIVED AAA")

	lines := strings.Split(output, "\n")
	foundMarker := false
	for _, line := range lines {
		if strings.HasPrefix(line, " > ") && strings.Contains(line, "SOMETHING ODD") {
			foundMarker = true
			break
		}
	}
	assert.True(t, foundMarker, "expected the failing line to be marked")
}

func TestErrorRenderer_RenderRowText(t *testing.T) {
	err := &pipeline.RowError{
		Filename: "history.csv",
		Line:     2,
		Text:     "01/02/2024,YOU SOLD AAA,AAA,-5,10,50",
		Err:      errors.New("cannot sell"),
	}

	output := NewErrorRenderer(nil).Render(err)
	assert.Contains(t, output, "history.csv:2: cannot sell")
	assert.Contains(t, output, "   01/02/2024,YOU SOLD AAA,AAA,-5,10,50")
}

func TestErrorRenderer_RenderPlain(t *testing.T) {
	output := NewErrorRenderer(nil).Render(errors.New("no statement document"))
	assert.Contains(t, output, "no statement document")
	assert.False(t, strings.Contains(output, "\n\n"))
}

func TestErrorRenderer_RenderAll(t *testing.T) {
	r := NewErrorRenderer(nil)
	assert.Equal(t, "", r.RenderAll(nil))

	output := r.RenderAll([]error{errors.New("first"), errors.New("second")})
	assert.Contains(t, output, "first")
	assert.Contains(t, output, "second")
	assert.Equal(t, 2, len(strings.Split(output, "\n\n")))
}
