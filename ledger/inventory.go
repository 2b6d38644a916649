package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// inventory is the remaining-quantity table of a position, keyed by action ID. It is
// derived state: replaying the position's actions, sales and splits in record order
// always rebuilds the same table.
type inventory struct {
	// Lots in record order
	lots []*lot
	byID map[int]*lot
}

func newInventory() *inventory {
	return &inventory{
		byID: make(map[int]*lot),
	}
}

// add opens a new lot for an action.
func (inv *inventory) add(action Action) {
	l := newLot(action)
	inv.lots = append(inv.lots, l)
	inv.byID[action.ID] = l
}

// consume reduces the lot of the given action. Consuming more than is open means
// the sale log and the action log disagree.
func (inv *inventory) consume(actionID int, quantity decimal.Decimal) error {
	l, ok := inv.byID[actionID]
	if !ok {
		return fmt.Errorf("lot not found: action %d", actionID)
	}
	if l.remaining.LessThan(quantity) {
		return fmt.Errorf("insufficient amount in lot %d: have %s, need %s",
			actionID, l.remaining.String(), quantity.String())
	}
	l.remaining = l.remaining.Sub(quantity)
	return nil
}

// split rescales every open lot so that their total becomes newQuantity. Lots
// are scaled proportionally in FIFO order and the newest lot takes whatever is
// left, so the total is exact even when the ratio does not divide evenly. It
// returns the open quantity before the split.
func (inv *inventory) split(newQuantity decimal.Decimal) decimal.Decimal {
	open := inv.openAsOf(nil)
	before := quantity(open)
	if !before.IsPositive() {
		return before
	}

	scaled := decimal.Zero
	for i, l := range open {
		cost := l.remaining.Mul(l.unitCost)
		if i == len(open)-1 {
			l.remaining = newQuantity.Sub(scaled)
		} else {
			l.remaining = l.remaining.Mul(newQuantity).Div(before)
			scaled = scaled.Add(l.remaining)
		}
		if l.remaining.IsPositive() {
			l.unitCost = cost.Div(l.remaining)
		}
	}

	return before
}

// openAsOf returns the open lots dated on or before date in FIFO order: oldest
// action date first, ties broken by action ID (insertion order).
func (inv *inventory) openAsOf(date *Date) []*lot {
	var open []*lot
	for _, l := range inv.lots {
		if !l.open() {
			continue
		}
		if date != nil && l.action.Date.After(*date) {
			continue
		}
		open = append(open, l)
	}

	sort.SliceStable(open, func(i, j int) bool {
		if !open[i].action.Date.Equal(open[j].action.Date) {
			return open[i].action.Date.Before(open[j].action.Date)
		}
		return open[i].action.ID < open[j].action.ID
	})

	return open
}

// quantity sums the remaining quantity of the given lots.
func quantity(lots []*lot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.remaining)
	}
	return total
}

// costBasis sums the open cost basis of the given lots.
func costBasis(lots []*lot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.remaining.Mul(l.unitCost))
	}
	return total
}

// reduceFIFO matches quantity against lots in the given order and returns the
// consumed pairs. The caller has already checked that enough is open.
func (inv *inventory) reduceFIFO(lots []*lot, amount decimal.Decimal) []ConsumedLot {
	var consumed []ConsumedLot
	left := amount

	for _, l := range lots {
		if !left.IsPositive() {
			break
		}

		take := decimal.Min(l.remaining, left)
		consumed = append(consumed, ConsumedLot{
			ActionID:     l.action.ID,
			PurchaseDate: l.action.Date,
			Quantity:     take,
			UnitCost:     l.unitCost,
		})

		l.remaining = l.remaining.Sub(take)
		left = left.Sub(take)
	}

	return consumed
}
