// Package report answers read-only questions about a ledger: which symbols are
// held, which lots are open, what was realized and what the open lots would
// return at a given price.
package report

import (
	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/holdings/ledger"
)

// Summary is the realized picture of one position.
type Summary struct {
	Symbol        string
	OpenQuantity  decimal.Decimal
	OpenCostBasis decimal.Decimal

	Sales    int
	Proceeds decimal.Decimal
	Profit   decimal.Decimal
	Interest ledger.Rate

	Generations        int
	Generated          decimal.Decimal
	GenerationInterest ledger.Rate
}

// Projection is the unrealized picture of one position at a caller supplied price.
type Projection struct {
	Symbol      string
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	CostBasis   decimal.Decimal
	MarketValue decimal.Decimal
	Unrealized  decimal.Decimal
	Interest    ledger.Rate
}

// Symbols returns every symbol in the set, sorted.
func Symbols(ps ledger.PositionSet) []string {
	return ps.Symbols()
}

// Lots returns the open lots of symbol dated on or before asOf. A zero asOf
// returns every open lot.
func Lots(ps ledger.PositionSet, symbol string, asOf ledger.Date) []ledger.OpenLot {
	p, ok := ps.Position(symbol)
	if !ok {
		return nil
	}
	if asOf.IsZero() {
		return p.OpenLots()
	}
	return p.OpenLotsAsOf(asOf)
}

// Summarize returns one Summary per symbol in symbol order. Generation interest
// is measured from the first purchase to the date of the set.
func Summarize(ps ledger.PositionSet, cfg *ledger.Config) []Summary {
	summaries := make([]Summary, 0, ps.Len())
	for _, symbol := range ps.Symbols() {
		p, _ := ps.Position(symbol)
		summaries = append(summaries, summarize(symbol, p, ps.Date, cfg))
	}
	return summaries
}

func summarize(symbol string, p *ledger.Position, date ledger.Date, cfg *ledger.Config) Summary {
	sales := p.Sales()
	generations := p.Generations()

	s := Summary{
		Symbol:        symbol,
		OpenQuantity:  p.OpenQuantity(),
		OpenCostBasis: p.OpenCostBasis(),
		Sales:         len(sales),
		Proceeds:      decimal.Zero,
		Profit:        decimal.Zero,
		Interest:      ledger.AverageInterest(sales, cfg),
		Generated:     decimal.Zero,
	}

	for _, sale := range sales {
		s.Proceeds = s.Proceeds.Add(sale.Proceeds())
		s.Profit = s.Profit.Add(sale.Profit())
	}

	for _, g := range generations {
		if g.Kind.IsZeroImpact() {
			continue
		}
		s.Generations++
		s.Generated = s.Generated.Add(g.Amount)
	}

	days := 0
	if first, ok := p.FirstPurchase(); ok {
		days = first.DaysUntil(date)
	}
	s.GenerationInterest = ledger.AverageGenerationInterest(days, generations, cfg)

	return s
}

// Total adds up the money columns of summaries. Rates are not additive and are
// left undefined.
func Total(summaries []Summary) Summary {
	total := Summary{
		Symbol:        "TOTAL",
		OpenQuantity:  decimal.Zero,
		OpenCostBasis: decimal.Zero,
		Proceeds:      decimal.Zero,
		Profit:        decimal.Zero,
		Generated:     decimal.Zero,
	}
	for _, s := range summaries {
		total.OpenCostBasis = total.OpenCostBasis.Add(s.OpenCostBasis)
		total.Sales += s.Sales
		total.Proceeds = total.Proceeds.Add(s.Proceeds)
		total.Profit = total.Profit.Add(s.Profit)
		total.Generations += s.Generations
		total.Generated = total.Generated.Add(s.Generated)
	}
	return total
}

// Project values the lots open on asOf at prices. Symbols without a price, and
// priced symbols with nothing open, are left out.
func Project(ps ledger.PositionSet, asOf ledger.Date, prices map[string]decimal.Decimal, cfg *ledger.Config) []Projection {
	symbols := maps.Keys(prices)
	slices.Sort(symbols)

	projections := make([]Projection, 0, len(symbols))
	for _, symbol := range symbols {
		lots := Lots(ps, symbol, asOf)
		if len(lots) == 0 {
			continue
		}

		price := prices[symbol]
		p := Projection{
			Symbol:    symbol,
			Price:     price,
			Quantity:  decimal.Zero,
			CostBasis: decimal.Zero,
			Interest:  ledger.AveragePotentialInterest(asOf, price, lots, cfg),
		}
		for _, lot := range lots {
			p.Quantity = p.Quantity.Add(lot.Quantity)
			p.CostBasis = p.CostBasis.Add(lot.CostBasis())
		}
		p.MarketValue = price.Mul(p.Quantity)
		p.Unrealized = p.MarketValue.Sub(p.CostBasis)

		projections = append(projections, p)
	}
	return projections
}
