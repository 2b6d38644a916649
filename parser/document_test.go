package parser

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestDocumentLinesBetween(t *testing.T) {
	doc := NewDocument("doc.csv", []byte("\ufeffintro\r\nRun Date,Action\r\n01/02/2024,X\r\n\r\ntrailer\r\n"))

	assert.Equal(t, "intro", doc.Lines()[0])

	section, ok := doc.LinesBetween("Run Date", "", 0)
	assert.True(t, ok)
	assert.Equal(t, 1, section.Start)
	assert.Equal(t, []string{"Run Date,Action", "01/02/2024,X"}, section.Lines)
	assert.Equal(t, 3, section.LineNumber(1))

	_, ok = doc.LinesBetween("Missing", "", 0)
	assert.False(t, ok)

	t.Run("RunsToEndOfDocument", func(t *testing.T) {
		section, ok := doc.LinesBetween("trailer", "Subtotal of", 0)
		assert.True(t, ok)
		assert.Equal(t, []string{"trailer", ""}, section.Lines)
	})
}

func TestDocumentFindLine(t *testing.T) {
	doc := NewDocument("doc.csv", []byte("a\n  b\n\nb"))

	idx, ok := doc.FindLine("b", 0)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = doc.FindLine("b", 2)
	assert.True(t, ok)
	assert.Equal(t, 3, idx)

	idx, ok = doc.FindLine("", 0)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = doc.FindLine("c", 0)
	assert.False(t, ok)
}

func TestParseErrorFormat(t *testing.T) {
	err := newParseError("history.csv", 4, "bad", ReasonInvalidDate, "invalid date %q", "x")
	assert.Equal(t, `history.csv:4: invalid-date: invalid date "x"`, err.Error())

	err = newParseError("", 2, "bad", ReasonMissingField, "missing")
	assert.Equal(t, "line 2: missing-field: missing", err.Error())
}
