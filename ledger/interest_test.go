package ledger

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestInterest(t *testing.T) {
	ps := NewPositionSet(Date{})
	buy(t, &ps, "AAA", "2024-01-01", "10", "10")
	sale := sell(t, &ps, "AAA", "2024-12-31", "10", "11")

	// 10 profit on 100 held 365 days
	rate, ok := Interest(sale, nil).Value()
	assert.True(t, ok)
	assert.Equal(t, "0.1", rate.String())
	assert.Equal(t, "10.00%", Interest(sale, nil).String())

	cfg, err := ConfigFromDaysPerYear("730")
	assert.NoError(t, err)
	assert.Equal(t, "0.2", Interest(sale, cfg).Decimal().String())
}

func TestInterestUndefined(t *testing.T) {
	t.Run("SameDaySale", func(t *testing.T) {
		ps := NewPositionSet(Date{})
		buy(t, &ps, "AAA", "2024-01-01", "10", "10")
		sale := sell(t, &ps, "AAA", "2024-01-01", "10", "11")
		assert.False(t, Interest(sale, nil).IsDefined())
		assert.Equal(t, "n/a", Interest(sale, nil).String())
	})

	t.Run("ZeroCost", func(t *testing.T) {
		ps := NewPositionSet(Date{})
		buy(t, &ps, "AAA", "2024-01-01", "10", "0")
		sale := sell(t, &ps, "AAA", "2024-06-01", "10", "11")
		assert.False(t, Interest(sale, nil).IsDefined())
	})

	t.Run("NoSales", func(t *testing.T) {
		assert.False(t, AverageInterest(nil, nil).IsDefined())
	})
}

func TestAverageInterestWeightsByDollarDays(t *testing.T) {
	ps := NewPositionSet(Date{})
	buy(t, &ps, "AAA", "2024-01-01", "10", "10")
	buy(t, &ps, "AAA", "2024-01-01", "10", "10")
	first := sell(t, &ps, "AAA", "2024-12-31", "10", "11")  // +10 over 100*365
	second := sell(t, &ps, "AAA", "2024-07-02", "10", "10") // 0 over 100*183

	rate := AverageInterest([]Sale{first, second}, nil).Decimal()
	expected := dec("10").Mul(dec("365")).Div(dec("100").Mul(dec("548")))
	assert.True(t, rate.Equal(expected))
}

func TestAverageGenerationInterest(t *testing.T) {
	ps := NewPositionSet(Date{})
	buy(t, &ps, "AAA", "2024-01-01", "10", "10")
	gen, err := ps.RecordGeneration("AAA", Generation{Date: MustDate("2024-03-31"), Kind: KindDividend, Amount: dec("4.50")})
	assert.NoError(t, err)

	rate := AverageGenerationInterest(90, []Generation{gen}, nil)
	value, ok := rate.Value()
	assert.True(t, ok)
	assert.True(t, value.IsPositive())

	// 4.50 / 100 * 365 / 90
	expected := dec("4.50").Div(dec("100")).Mul(dec("365")).Div(dec("90"))
	assert.Equal(t, expected.Round(10).String(), value.Round(10).String())

	// Proportional to 365/90: doubling the period halves the rate.
	half := AverageGenerationInterest(180, []Generation{gen}, nil).Decimal()
	assert.Equal(t, value.Div(dec("2")).Round(10).String(), half.Round(10).String())

	t.Run("Undefined", func(t *testing.T) {
		assert.False(t, AverageGenerationInterest(0, []Generation{gen}, nil).IsDefined())
		assert.False(t, AverageGenerationInterest(90, nil, nil).IsDefined())

		unbacked := Generation{Date: MustDate("2024-03-31"), Kind: KindInterest, Amount: dec("1")}
		assert.False(t, AverageGenerationInterest(90, []Generation{unbacked}, nil).IsDefined())

		transfer := Generation{Date: MustDate("2024-03-31"), Kind: KindTransfer, CostBasis: dec("100")}
		assert.False(t, AverageGenerationInterest(90, []Generation{transfer}, nil).IsDefined())
	})
}

func TestPotentialInterest(t *testing.T) {
	lot := OpenLot{ActionID: 1, Date: MustDate("2024-01-01"), Quantity: dec("10"), UnitCost: dec("10")}

	rate := PotentialInterest(lot, MustDate("2024-12-31"), dec("12"), nil)
	assert.Equal(t, "0.2", rate.Decimal().String())

	loss := PotentialInterest(lot, MustDate("2024-12-31"), dec("9"), nil)
	assert.Equal(t, "-0.1", loss.Decimal().String())

	assert.False(t, PotentialInterest(lot, MustDate("2024-01-01"), dec("12"), nil).IsDefined())
	assert.False(t, PotentialInterest(lot, MustDate("2023-12-01"), dec("12"), nil).IsDefined())
}

func TestAveragePotentialInterest(t *testing.T) {
	asOf := MustDate("2024-12-31")
	lots := []OpenLot{
		{ActionID: 1, Date: MustDate("2024-01-01"), Quantity: dec("30"), UnitCost: dec("10")}, // 0.2
		{ActionID: 2, Date: MustDate("2024-01-01"), Quantity: dec("10"), UnitCost: dec("12")}, // 0
		{ActionID: 3, Date: asOf, Quantity: dec("100"), UnitCost: dec("1")},                   // undefined, ignored
	}

	rate := AveragePotentialInterest(asOf, dec("12"), lots, nil)
	assert.Equal(t, "0.15", rate.Decimal().String())

	assert.False(t, AveragePotentialInterest(asOf, dec("12"), nil, nil).IsDefined())
}

func TestRateJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Rate `json:"a"`
		B Rate `json:"b"`
	}{A: RateOf(decimal.RequireFromString("0.125")), B: Undefined()})
	assert.NoError(t, err)
	assert.Equal(t, `{"a":"0.125","b":null}`, string(data))

	var decoded struct {
		A Rate `json:"a"`
		B Rate `json:"b"`
	}
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "0.125", decoded.A.Decimal().String())
	assert.False(t, decoded.B.IsDefined())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: "4.50", expected: "4.5"},
		{input: " -1,234.56 ", expected: "-1234.56"},
		{input: "$12", expected: "12"},
		{input: "", wantErr: true},
		{input: "n/a", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			amount, err := ParseAmount(tt.input)
			if tt.wantErr {
				var validation *ValidationError
				assert.True(t, errors.As(err, &validation))
				assert.Equal(t, "amount", validation.Field)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, amount.String())
		})
	}
}
