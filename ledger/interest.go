package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Rate is an annualised return. A rate is undefined when it has no meaningful value,
// for instance when the principal or the holding period is zero.
type Rate struct {
	value   decimal.Decimal
	defined bool
}

// Undefined returns the undefined rate.
func Undefined() Rate {
	return Rate{}
}

// RateOf returns a defined rate.
func RateOf(value decimal.Decimal) Rate {
	return Rate{value: value, defined: true}
}

// Value returns the rate and whether it is defined.
func (r Rate) Value() (decimal.Decimal, bool) {
	return r.value, r.defined
}

// IsDefined reports whether the rate has a value.
func (r Rate) IsDefined() bool {
	return r.defined
}

// Decimal returns the value, or zero when undefined.
func (r Rate) Decimal() decimal.Decimal {
	if !r.defined {
		return decimal.Zero
	}
	return r.value
}

// String formats the rate as a percentage with two decimals, or "n/a".
func (r Rate) String() string {
	if !r.defined {
		return "n/a"
	}
	return r.value.Shift(2).StringFixed(2) + "%"
}

// MarshalJSON encodes a defined rate as a decimal string and an undefined one as null.
func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.value.String())
}

// UnmarshalJSON accepts null or a decimal string.
func (r *Rate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Undefined()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*r = RateOf(v)
	return nil
}

// annualise returns profit / base * daysPerYear, where base is already expressed in
// money-days.
func annualise(profit, base decimal.Decimal, cfg *Config) Rate {
	if !base.IsPositive() {
		return Undefined()
	}
	return RateOf(profit.Mul(cfg.daysPerYear()).Div(base))
}

// Interest returns the annualised return of one sale: its profit over the cost of
// each consumed lot weighted by the days that lot was held.
func Interest(sale Sale, cfg *Config) Rate {
	return annualise(sale.Profit(), sale.dollarDays(), cfg)
}

// AverageInterest returns the annualised return over every lot consumed by the
// given sales.
func AverageInterest(sales []Sale, cfg *Config) Rate {
	profit := decimal.Zero
	base := decimal.Zero
	for _, s := range sales {
		profit = profit.Add(s.Profit())
		base = base.Add(s.dollarDays())
	}
	return annualise(profit, base, cfg)
}

// AverageGenerationInterest returns the annualised yield of the generations over a
// holding period of daysHeld days: total amount over the mean cost basis the
// generations were paid on. Zero-impact generations are ignored.
func AverageGenerationInterest(daysHeld int, generations []Generation, cfg *Config) Rate {
	if daysHeld <= 0 {
		return Undefined()
	}

	var n int64
	amount := decimal.Zero
	basis := decimal.Zero
	for _, g := range generations {
		if g.Kind.IsZeroImpact() {
			continue
		}
		n++
		amount = amount.Add(g.Amount)
		basis = basis.Add(g.CostBasis)
	}
	if n == 0 {
		return Undefined()
	}

	meanBasis := basis.Div(decimal.NewFromInt(n))
	return annualise(amount, meanBasis.Mul(decimal.NewFromInt(int64(daysHeld))), cfg)
}

// PotentialInterest returns the annualised return an open lot would realise if it
// were sold at price on asOf.
func PotentialInterest(lot OpenLot, asOf Date, price decimal.Decimal, cfg *Config) Rate {
	days := lot.Date.DaysUntil(asOf)
	if days <= 0 {
		return Undefined()
	}

	cost := lot.CostBasis()
	profit := price.Mul(lot.Quantity).Sub(cost)
	return annualise(profit, cost.Mul(decimal.NewFromInt(int64(days))), cfg)
}

// AveragePotentialInterest returns the open-quantity weighted mean of the defined
// potential interest of each lot.
func AveragePotentialInterest(asOf Date, price decimal.Decimal, lots []OpenLot, cfg *Config) Rate {
	weighted := decimal.Zero
	total := decimal.Zero
	for _, l := range lots {
		rate, ok := PotentialInterest(l, asOf, price, cfg).Value()
		if !ok {
			continue
		}
		weighted = weighted.Add(rate.Mul(l.Quantity))
		total = total.Add(l.Quantity)
	}
	if !total.IsPositive() {
		return Undefined()
	}
	return RateOf(weighted.Div(total))
}
