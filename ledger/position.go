package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type entryKind uint8

const (
	entryAction entryKind = iota
	entrySale
	entryGeneration
	entrySplit
)

// entry points at one record of a position in record order.
type entry struct {
	kind  entryKind
	index int
}

// Position aggregates every action, sale, generation and split for one symbol. The
// logs are append-only; the open quantity of each lot is derived by replaying them.
type Position struct {
	Symbol string

	actions     []Action
	sales       []Sale
	generations []Generation
	splits      []Split
	entries     []entry
	nextID      int

	// inv caches the replayed inventory. nil until first needed.
	inv *inventory
}

// NewPosition creates an empty position.
func NewPosition(symbol string) *Position {
	return &Position{Symbol: symbol}
}

// RecordPurchase appends a purchase lot.
func (p *Position) RecordPurchase(action Action) (Action, error) {
	if !action.Quantity.IsPositive() {
		return Action{}, newValidationError(p.Symbol, action.Date, "quantity",
			"purchase quantity must be positive, got %s", action.Quantity.String())
	}
	if action.Price.IsNegative() {
		return Action{}, newValidationError(p.Symbol, action.Date, "price",
			"purchase price must not be negative, got %s", action.Price.String())
	}

	inv := p.inventory()

	action.ID = p.next()
	p.entries = append(p.entries, entry{kind: entryAction, index: len(p.actions)})
	p.actions = append(p.actions, action)
	inv.add(action)

	return action, nil
}

// RecordSale matches the requested quantity against open lots dated on or before
// the sale, oldest first, and appends the resulting sale.
func (p *Position) RecordSale(req SaleRequest) (Sale, error) {
	if !req.Quantity.IsPositive() {
		return Sale{}, newValidationError(p.Symbol, req.Date, "quantity",
			"sale quantity must be positive, got %s", req.Quantity.String())
	}
	if req.Price.IsNegative() {
		return Sale{}, newValidationError(p.Symbol, req.Date, "price",
			"sale price must not be negative, got %s", req.Price.String())
	}

	inv := p.inventory()
	lots := inv.openAsOf(&req.Date)

	available := quantity(lots)
	if available.LessThan(req.Quantity) {
		return Sale{}, &OversoldError{
			Symbol:    p.Symbol,
			Date:      req.Date,
			Requested: req.Quantity,
			Available: available,
		}
	}

	sale := Sale{
		ID:       p.next(),
		Date:     req.Date,
		Quantity: req.Quantity,
		Price:    req.Price,
		Lots:     inv.reduceFIFO(lots, req.Quantity),
	}
	p.entries = append(p.entries, entry{kind: entrySale, index: len(p.sales)})
	p.sales = append(p.sales, sale)

	return sale.clone(), nil
}

// RecordGeneration appends a cash-generating event. Zero-impact kinds are stored
// with a zero amount.
func (p *Position) RecordGeneration(gen Generation) (Generation, error) {
	if !gen.Kind.IsValid() {
		return Generation{}, newValidationError(p.Symbol, gen.Date, "kind",
			"unknown generation kind %q", string(gen.Kind))
	}
	if gen.Kind.IsZeroImpact() {
		gen.Amount = decimal.Zero
	}

	inv := p.inventory()
	gen.CostBasis = costBasis(inv.openAsOf(&gen.Date))

	gen.ID = p.next()
	p.entries = append(p.entries, entry{kind: entryGeneration, index: len(p.generations)})
	p.generations = append(p.generations, gen)

	return gen, nil
}

// RecordSplit rescales the open lots so that the open quantity becomes exactly
// newQuantity.
func (p *Position) RecordSplit(date Date, newQuantity decimal.Decimal, fromSymbol string) (Split, error) {
	if !newQuantity.IsPositive() {
		return Split{}, newValidationError(p.Symbol, date, "quantity",
			"split quantity must be positive, got %s", newQuantity.String())
	}

	inv := p.inventory()
	if !quantity(inv.openAsOf(nil)).IsPositive() {
		return Split{}, newValidationError(p.Symbol, date, "quantity", "no open quantity to split")
	}
	before := inv.split(newQuantity)

	split := Split{
		ID:          p.next(),
		Date:        date,
		Quantity:    before,
		NewQuantity: newQuantity,
		FromSymbol:  fromSymbol,
	}
	p.entries = append(p.entries, entry{kind: entrySplit, index: len(p.splits)})
	p.splits = append(p.splits, split)

	return split, nil
}

// OpenLots returns every open lot in FIFO order.
func (p *Position) OpenLots() []OpenLot {
	return snapshots(p.inventory().openAsOf(nil))
}

// OpenLotsAsOf returns the open lots dated on or before date in FIFO order.
func (p *Position) OpenLotsAsOf(date Date) []OpenLot {
	return snapshots(p.inventory().openAsOf(&date))
}

// OpenQuantity returns the total open quantity.
func (p *Position) OpenQuantity() decimal.Decimal {
	return quantity(p.inventory().openAsOf(nil))
}

// OpenCostBasis returns the cost basis of every open lot.
func (p *Position) OpenCostBasis() decimal.Decimal {
	return costBasis(p.inventory().openAsOf(nil))
}

// Remaining returns the open quantity of a single action.
func (p *Position) Remaining(actionID int) (decimal.Decimal, bool) {
	l, ok := p.inventory().byID[actionID]
	if !ok {
		return decimal.Zero, false
	}
	return l.remaining, true
}

// Actions returns a copy of the purchase log.
func (p *Position) Actions() []Action {
	return append([]Action(nil), p.actions...)
}

// Sales returns a copy of the sale log.
func (p *Position) Sales() []Sale {
	sales := make([]Sale, len(p.sales))
	for i, s := range p.sales {
		sales[i] = s.clone()
	}
	return sales
}

// Generations returns a copy of the generation log.
func (p *Position) Generations() []Generation {
	return append([]Generation(nil), p.generations...)
}

// Splits returns a copy of the split log.
func (p *Position) Splits() []Split {
	return append([]Split(nil), p.splits...)
}

// FirstPurchase returns the date of the earliest action.
func (p *Position) FirstPurchase() (Date, bool) {
	if len(p.actions) == 0 {
		return Date{}, false
	}
	first := p.actions[0].Date
	for _, a := range p.actions[1:] {
		if a.Date.Before(first) {
			first = a.Date
		}
	}
	return first, true
}

// IsEmpty reports whether nothing was ever recorded.
func (p *Position) IsEmpty() bool {
	return len(p.entries) == 0
}

func (p *Position) next() int {
	p.nextID++
	return p.nextID
}

// inventory returns the cached inventory, replaying the logs when needed.
func (p *Position) inventory() *inventory {
	if p.inv != nil {
		return p.inv
	}

	inv, err := p.replay()
	if err != nil {
		// Record methods keep the logs consistent and decoding validates them,
		// so this only fires on a bug.
		panic(fmt.Sprintf("position %s cannot be replayed: %v", p.Symbol, err))
	}
	p.inv = inv
	return inv
}

// replay rebuilds the remaining-quantity table from the logs.
func (p *Position) replay() (*inventory, error) {
	inv := newInventory()

	for _, e := range p.entries {
		switch e.kind {
		case entryAction:
			inv.add(p.actions[e.index])
		case entrySale:
			for _, c := range p.sales[e.index].Lots {
				if err := inv.consume(c.ActionID, c.Quantity); err != nil {
					return nil, fmt.Errorf("sale %d: %w", p.sales[e.index].ID, err)
				}
			}
		case entrySplit:
			split := p.splits[e.index]
			if before := inv.split(split.NewQuantity); !before.Equal(split.Quantity) {
				return nil, fmt.Errorf("split %d: open quantity is %s, recorded %s",
					split.ID, before.String(), split.Quantity.String())
			}
		case entryGeneration:
			// Generations do not change lots
		}
	}

	return inv, nil
}

// clone returns a deep copy that shares no storage with p.
func (p *Position) clone() *Position {
	c := &Position{
		Symbol:      p.Symbol,
		actions:     append([]Action(nil), p.actions...),
		sales:       p.Sales(),
		generations: append([]Generation(nil), p.generations...),
		splits:      append([]Split(nil), p.splits...),
		entries:     append([]entry(nil), p.entries...),
		nextID:      p.nextID,
	}
	return c
}

func snapshots(lots []*lot) []OpenLot {
	out := make([]OpenLot, 0, len(lots))
	for _, l := range lots {
		out = append(out, l.snapshot())
	}
	return out
}
