package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/holdings/ledger"
)

// parseNumber parses a broker-formatted number: thousands separators, a leading
// currency sign and accounting-style parentheses for negatives are accepted. The
// boolean is false when the field is empty or a placeholder such as "--".
func parseNumber(s string) (decimal.Decimal, bool, error) {
	s = strings.TrimSpace(s)
	if isBlank(s) {
		return decimal.Zero, false, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-$") {
		negative = !negative
		s = s[2:]
	}
	s = strings.TrimPrefix(s, "$")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, err
	}
	if negative {
		d = d.Neg()
	}
	return d, true, nil
}

// isBlank reports whether a field carries no value.
func isBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "--", "n/a", "not applicable":
		return true
	}
	return false
}

var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"Jan-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/06",
}

// parseDate parses the date formats found in broker exports.
func parseDate(s string) (ledger.Date, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ledger.DateFromTime(t), true
		}
	}
	return ledger.Date{}, false
}
