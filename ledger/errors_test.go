package ledger

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "WithField",
			err:  newValidationError("AAA", MustDate("2024-01-02"), "quantity", "must be positive, got %s", "-1"),
			want: "2024-01-02: AAA: invalid quantity: must be positive, got -1",
		},
		{
			name: "WithoutField",
			err:  newValidationError("AAA", MustDate("2024-01-02"), "", "unknown generation kind"),
			want: "2024-01-02: AAA: unknown generation kind",
		},
		{
			name: "WithoutSymbol",
			err:  newValidationError("", MustDate("2024-01-02"), "ratio", "must be positive"),
			want: "2024-01-02: invalid ratio: must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}

	err := newValidationError("BBB", MustDate("2024-03-01"), "price", "must not be negative")
	assert.Equal(t, "BBB", err.GetSymbol())
	assert.Equal(t, MustDate("2024-03-01"), err.GetDate())
	assert.Equal(t, "price", err.GetField())
}

func TestOversoldError(t *testing.T) {
	ps := NewPositionSet(MustDate("2024-01-01"))
	_, err := ps.RecordPurchase("AAA", Action{
		Date:     MustDate("2024-01-01"),
		Quantity: decimal.NewFromInt(5),
		Price:    decimal.NewFromInt(10),
	})
	assert.NoError(t, err)

	_, err = ps.RecordSale("AAA", SaleRequest{
		Date:     MustDate("2024-02-01"),
		Quantity: decimal.NewFromInt(8),
		Price:    decimal.NewFromInt(12),
	})

	var oversold *OversoldError
	assert.True(t, errors.As(err, &oversold))
	assert.EqualError(t, oversold, "2024-02-01: cannot sell 8 of AAA, only 5 open")
	assert.Equal(t, "AAA", oversold.GetSymbol())
	assert.Equal(t, MustDate("2024-02-01"), oversold.GetDate())
	assert.True(t, decimal.NewFromInt(3).Equal(oversold.Shortfall()))
}
