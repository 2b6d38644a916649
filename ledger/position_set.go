package ledger

import (
	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// CashSymbol is the pseudo symbol used for rows that do not name a security.
const CashSymbol = "CASH"

// PositionSet maps symbols to positions for one holding account, plus the
// high-water statement date the set reflects.
//
// A PositionSet copied by value shares its positions with the original. Mutating
// methods must only be called on a set obtained from Clone or NewPositionSet.
type PositionSet struct {
	positions map[string]*Position

	// sources counts the document rows merged into the set, by row key.
	sources map[string]int

	// Date is the latest statement or activity date merged into the set.
	Date Date
}

// NewPositionSet creates an empty set as of date.
func NewPositionSet(date Date) PositionSet {
	return PositionSet{
		positions: make(map[string]*Position),
		Date:      date,
	}
}

// Clone returns a deep copy that can be mutated without affecting ps.
func (ps PositionSet) Clone() PositionSet {
	c := NewPositionSet(ps.Date)
	for symbol, p := range ps.positions {
		c.positions[symbol] = p.clone()
	}
	if len(ps.sources) > 0 {
		c.sources = maps.Clone(ps.sources)
	}
	return c
}

// MarkSource records that one more row with key was merged into the set.
func (ps *PositionSet) MarkSource(key string) {
	if key == "" {
		return
	}
	if ps.sources == nil {
		ps.sources = make(map[string]int)
	}
	ps.sources[key]++
}

// Sources returns how many rows with key were merged into the set.
func (ps PositionSet) Sources(key string) int {
	return ps.sources[key]
}

// LatestTrade returns the date of the newest purchase, sale or split of symbol.
func (ps PositionSet) LatestTrade(symbol string) (Date, bool) {
	p, ok := ps.positions[symbol]
	if !ok {
		return Date{}, false
	}

	var latest Date
	found := false
	see := func(d Date) {
		if !found || d.After(latest) {
			latest, found = d, true
		}
	}
	for _, a := range p.actions {
		see(a.Date)
	}
	for _, s := range p.sales {
		see(s.Date)
	}
	for _, s := range p.splits {
		see(s.Date)
	}
	return latest, found
}

// LatestGeneration returns the date of the newest generation of symbol.
func (ps PositionSet) LatestGeneration(symbol string) (Date, bool) {
	p, ok := ps.positions[symbol]
	if !ok || len(p.generations) == 0 {
		return Date{}, false
	}

	latest := p.generations[0].Date
	for _, g := range p.generations[1:] {
		latest = maxDate(latest, g.Date)
	}
	return latest, true
}

// Symbols returns every symbol in sorted order.
func (ps PositionSet) Symbols() []string {
	symbols := maps.Keys(ps.positions)
	slices.Sort(symbols)
	return symbols
}

// Len returns the number of positions.
func (ps PositionSet) Len() int {
	return len(ps.positions)
}

// Has reports whether a position exists for symbol.
func (ps PositionSet) Has(symbol string) bool {
	_, ok := ps.positions[symbol]
	return ok
}

// Position returns a copy of the position for symbol.
func (ps PositionSet) Position(symbol string) (*Position, bool) {
	p, ok := ps.positions[symbol]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// Advance moves the high-water date forward. Earlier dates are ignored.
func (ps *PositionSet) Advance(date Date) {
	ps.Date = maxDate(ps.Date, date)
}

// RecordPurchase records a purchase, creating the position when absent.
func (ps *PositionSet) RecordPurchase(symbol string, action Action) (Action, error) {
	p := ps.ensure(symbol)
	a, err := p.RecordPurchase(action)
	if err != nil {
		ps.dropIfEmpty(symbol)
		return Action{}, err
	}
	return a, nil
}

// OffsetCash books amount against the cash position at a unit price of one. A
// positive amount adds a cash lot; a negative amount sells from the cash lots and
// fails with an OversoldError when they do not cover it.
func (ps *PositionSet) OffsetCash(date Date, amount decimal.Decimal) error {
	switch amount.Sign() {
	case 1:
		_, err := ps.RecordPurchase(CashSymbol, Action{Date: date, Quantity: amount, Price: decimal.NewFromInt(1)})
		return err
	case -1:
		_, err := ps.RecordSale(CashSymbol, SaleRequest{Date: date, Quantity: amount.Neg(), Price: decimal.NewFromInt(1)})
		return err
	}
	return nil
}

// RecordSale records a sale against the position for symbol.
func (ps *PositionSet) RecordSale(symbol string, req SaleRequest) (Sale, error) {
	p, ok := ps.positions[symbol]
	if !ok {
		if !req.Quantity.IsPositive() {
			return Sale{}, newValidationError(symbol, req.Date, "quantity",
				"sale quantity must be positive, got %s", req.Quantity.String())
		}
		return Sale{}, &OversoldError{
			Symbol:    symbol,
			Date:      req.Date,
			Requested: req.Quantity,
			Available: decimal.Zero,
		}
	}
	return p.RecordSale(req)
}

// RecordGeneration records a generation, creating the position when absent.
func (ps *PositionSet) RecordGeneration(symbol string, gen Generation) (Generation, error) {
	p := ps.ensure(symbol)
	g, err := p.RecordGeneration(gen)
	if err != nil {
		ps.dropIfEmpty(symbol)
		return Generation{}, err
	}
	return g, nil
}

// RecordSplit applies a split or merger: the open quantity of from becomes
// newQuantity and the position is re-keyed to to.
func (ps *PositionSet) RecordSplit(date Date, from, to string, newQuantity decimal.Decimal) (Split, error) {
	p, ok := ps.positions[from]
	if !ok {
		return Split{}, newValidationError(from, date, "symbol", "no position to split into %s", to)
	}
	if !newQuantity.IsPositive() {
		return Split{}, newValidationError(from, date, "quantity",
			"split quantity must be positive, got %s", newQuantity.String())
	}
	if to != from {
		if _, exists := ps.positions[to]; exists {
			return Split{}, newValidationError(to, date, "symbol",
				"cannot split %s into existing position %s", from, to)
		}
	}

	split, err := p.RecordSplit(date, newQuantity, from)
	if err != nil {
		return Split{}, err
	}

	if to != from {
		delete(ps.positions, from)
		p.Symbol = to
		ps.positions[to] = p
	}

	return split, nil
}

// RecordDistribution applies a stock distribution of newShares as a split.
func (ps *PositionSet) RecordDistribution(date Date, symbol string, newShares decimal.Decimal) (Split, error) {
	p, ok := ps.positions[symbol]
	if !ok {
		return Split{}, newValidationError(symbol, date, "symbol", "no position to distribute into")
	}

	open := p.OpenQuantity()
	if !open.IsPositive() {
		return Split{}, newValidationError(symbol, date, "quantity", "no open quantity to distribute into")
	}

	return p.RecordSplit(date, open.Add(newShares), "")
}

func (ps *PositionSet) ensure(symbol string) *Position {
	if ps.positions == nil {
		ps.positions = make(map[string]*Position)
	}
	p, ok := ps.positions[symbol]
	if !ok {
		p = NewPosition(symbol)
		ps.positions[symbol] = p
	}
	return p
}

// dropIfEmpty removes a position created by a record call that then failed.
func (ps *PositionSet) dropIfEmpty(symbol string) {
	if p, ok := ps.positions[symbol]; ok && p.IsEmpty() {
		delete(ps.positions, symbol)
	}
}
