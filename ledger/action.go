package ledger

import (
	"github.com/shopspring/decimal"
)

// Action is one purchase lot. Actions are immutable once recorded; how much of a
// lot is still open is derived from the sales recorded after it.
type Action struct {
	ID       int             `json:"id"`
	Date     Date            `json:"date"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// CostBasis returns quantity * price.
func (a Action) CostBasis() decimal.Decimal {
	return a.Quantity.Mul(a.Price)
}

// ConsumedLot records how much of one Action a Sale took, at the lot's unit cost at
// the time of the sale.
type ConsumedLot struct {
	ActionID     int             `json:"action_id"`
	PurchaseDate Date            `json:"purchase_date"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// CostBasis returns the cost of the consumed quantity.
func (c ConsumedLot) CostBasis() decimal.Decimal {
	return c.Quantity.Mul(c.UnitCost)
}

// SaleRequest describes a sale before lots have been matched against it.
type SaleRequest struct {
	Date     Date
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// Sale is one sale event closing quantity against one or more prior Actions.
type Sale struct {
	ID       int             `json:"id"`
	Date     Date            `json:"date"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Lots     []ConsumedLot   `json:"lots"`
}

// Proceeds returns quantity * unit price.
func (s Sale) Proceeds() decimal.Decimal {
	return s.Quantity.Mul(s.Price)
}

// CostBasis returns the cost of every consumed lot.
func (s Sale) CostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range s.Lots {
		total = total.Add(lot.CostBasis())
	}
	return total
}

// Profit returns proceeds minus the cost basis of the consumed lots.
func (s Sale) Profit() decimal.Decimal {
	return s.Proceeds().Sub(s.CostBasis())
}

// Profit is the free-function form of Sale.Profit.
func Profit(s Sale) decimal.Decimal {
	return s.Profit()
}

// dollarDays returns sum(cost * days held) over the consumed lots.
func (s Sale) dollarDays() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range s.Lots {
		days := lot.PurchaseDate.DaysUntil(s.Date)
		if days <= 0 {
			continue
		}
		total = total.Add(lot.CostBasis().Mul(decimal.NewFromInt(int64(days))))
	}
	return total
}

func (s Sale) clone() Sale {
	c := s
	c.Lots = append([]ConsumedLot(nil), s.Lots...)
	return c
}

// Split rescales the lots open at the time it is recorded so that their total
// quantity goes from Quantity to exactly NewQuantity. Each lot keeps its cost
// basis; its unit cost follows the new quantity.
type Split struct {
	ID          int             `json:"id"`
	Date        Date            `json:"date"`
	Quantity    decimal.Decimal `json:"quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	FromSymbol  string          `json:"from_symbol,omitempty"`
}
