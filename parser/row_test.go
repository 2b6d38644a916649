package parser

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/holdings/ledger"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		action   string
		expected RowKind
	}{
		{"YOU BOUGHT APPLE INC (AAPL) (Cash)", RowBuy},
		{"You bought VANGUARD INDEX FDS (VOO) (Cash)", RowBuy},
		{"YOU SOLD APPLE INC (AAPL) (Cash)", RowSell},
		{"REINVESTMENT APPLE INC (AAPL) (Cash)", RowReinvestment},
		{"REINVESTMENT CASH", RowIgnored},
		{"INTEREST EARNED CASH RESERVES", RowCashInterest},
		{"INTEREST EARNED US TREASURY", RowInterest},
		{"MUNI TAXABLE INT", RowInterest},
		{"DIVIDEND RECEIVED APPLE INC", RowDividend},
		{"DIVIDEND ADJUSTMENT", RowDividend},
		{"LONG-TERM CAP GAIN VANGUARD", RowLongTermCapGain},
		{"SHORT-TERM CAP GAIN VANGUARD", RowShortTermCapGain},
		{"ROYALTY TR PYMT", RowRoyaltyPayment},
		{"RETURN OF CAPITAL", RowReturnOfCapital},
		{"FOREIGN TAX PAID", RowForeignTax},
		{"FEE CHARGED", RowFee},
		{"Electronic Funds Transfer Received", RowTransfer},
		{"Transfer in from brokerage", RowTransfer},
		{"REVERSE SPLIT R/S FROM 12345X100#REOR", RowSplit},
		{"REVERSE SPLIT R/S TO 67890Y200#REOR", RowIgnored},
		{"MERGER MER FROM OLDCO#REOR", RowSplit},
		{"MERGER MER PAYOUT #REOR", RowMergerPayout},
		{"IN LIEU OF FRX SHARE LEU PAYOUT 12345X100#REOR", RowSplitPayout},
		{"REDEMPTION PAYOUT #REOR", RowRedemption},
		{"DISTRIBUTION NEWCO", RowDistribution},
		{"  YOU BOUGHT padded  ", RowBuy},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			kind, ok := Classify(tt.action)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, kind)
		})
	}

	_, ok := Classify("JOURNALED")
	assert.False(t, ok)
}

func TestRowKindRank(t *testing.T) {
	assert.True(t, RowBuy.rank() < RowSell.rank())
	assert.True(t, RowSell.rank() < RowLongTermCapGain.rank())
	assert.True(t, RowLongTermCapGain.rank() < RowDividend.rank())
	assert.True(t, RowDividend.rank() < RowReinvestment.rank())
}

func TestRowKindGenerationKind(t *testing.T) {
	kind, ok := RowCashInterest.GenerationKind()
	assert.True(t, ok)
	assert.Equal(t, ledger.KindInterest, kind)

	kind, ok = RowFee.GenerationKind()
	assert.True(t, ok)
	assert.Equal(t, ledger.KindFee, kind)

	_, ok = RowBuy.GenerationKind()
	assert.False(t, ok)
}

func TestFromSymbol(t *testing.T) {
	tests := []struct {
		action   string
		expected string
	}{
		{"REVERSE SPLIT R/S FROM 12345X100#REOR M005", "12345X100"},
		{"MERGER MER FROM oldco#REOR", "OLDCO"},
		{"IN LIEU OF FRX SHARE LEU PAYOUT 12345X100#REOR", "12345X100"},
		{"MERGER MER PAYOUT #REOR", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			assert.Equal(t, tt.expected, fromSymbol(tt.action))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		present  bool
		wantErr  bool
	}{
		{input: "1,234.50", expected: "1234.5", present: true},
		{input: "$12.00", expected: "12", present: true},
		{input: "-$3", expected: "-3", present: true},
		{input: "(4.25)", expected: "-4.25", present: true},
		{input: "+7", expected: "7", present: true},
		{input: "--", expected: "0"},
		{input: "", expected: "0"},
		{input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, ok, err := parseNumber(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.expected, d.String())
		})
	}
}
