package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind classifies a Generation.
type Kind string

const (
	KindDividend         Kind = "dividend"
	KindInterest         Kind = "interest"
	KindLongTermCapGain  Kind = "long-term-cap-gain"
	KindShortTermCapGain Kind = "short-term-cap-gain"
	KindRoyaltyPayment   Kind = "royalty-payment"
	KindReturnOfCapital  Kind = "return-of-capital"
	KindForeignTax       Kind = "foreign-tax"
	KindFee              Kind = "fee"
	// Zero-impact kinds are kept for traceability only.
	KindTransfer Kind = "transfer"
	KindOther    Kind = "other"
)

var validKinds = map[Kind]bool{
	KindDividend:         true,
	KindInterest:         true,
	KindLongTermCapGain:  true,
	KindShortTermCapGain: true,
	KindRoyaltyPayment:   true,
	KindReturnOfCapital:  true,
	KindForeignTax:       true,
	KindFee:              true,
	KindTransfer:         true,
	KindOther:            true,
}

// IsValid reports whether k is a known generation kind.
func (k Kind) IsValid() bool {
	return validKinds[k]
}

// IsZeroImpact reports whether generations of this kind carry no amount.
func (k Kind) IsZeroImpact() bool {
	return k == KindTransfer || k == KindOther
}

// Generation is a cash-generating event not tied to a change in share quantity.
type Generation struct {
	ID     int             `json:"id"`
	Date   Date            `json:"date"`
	Kind   Kind            `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	// CostBasis is the open cost basis of the position on Date, captured when the
	// generation is recorded.
	CostBasis decimal.Decimal `json:"cost_basis"`
	Note      string          `json:"note,omitempty"`
}

// ParseAmount parses a signed decimal amount such as "-4.50" or "1,234.56".
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	if cleaned == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "empty amount"}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Message: fmt.Sprintf("%q is not a decimal", s)}
	}
	return d, nil
}
