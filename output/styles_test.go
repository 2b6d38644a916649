package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestStylesKeepText(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	tests := []struct {
		name  string
		style func(string) string
		text  string
	}{
		{"Success", styles.Success, "check passed"},
		{"Error", styles.Error, "oversold"},
		{"Warning", styles.Warning, "skipped"},
		{"FilePath", styles.FilePath, "/statements/Statement-01312024.csv"},
		{"Symbol", styles.Symbol, "AAPL"},
		{"Account", styles.Account, "brokerage"},
		{"Amount", styles.Amount, "$1,200.00"},
		{"Keyword", styles.Keyword, "applied"},
		{"Dim", styles.Dim, "2024-01-31"},
		{"Gain", func(s string) string { return styles.Signed(s, false) }, "$56.00"},
		{"Loss", func(s string) string { return styles.Signed(s, true) }, "-$12.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.Contains(tt.style(tt.text), tt.text))
		})
	}
}

func TestStylesPlainWriter(t *testing.T) {
	// A bytes.Buffer is not a terminal, so no escape sequences are emitted.
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	assert.Equal(t, "AAPL", styles.Symbol("AAPL"))
	assert.NotZero(t, styles.Output())
}
