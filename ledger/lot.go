package ledger

import (
	"github.com/shopspring/decimal"
)

// OpenLot is the open remainder of one Action.
type OpenLot struct {
	ActionID int             `json:"action_id"`
	Date     Date            `json:"date"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// CostBasis returns the cost of the open quantity.
func (l OpenLot) CostBasis() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// lot tracks the remaining quantity of an action while replaying a position.
type lot struct {
	action    Action
	remaining decimal.Decimal
	unitCost  decimal.Decimal
}

func newLot(action Action) *lot {
	return &lot{
		action:    action,
		remaining: action.Quantity,
		unitCost:  action.Price,
	}
}

func (l *lot) open() bool {
	return l.remaining.IsPositive()
}

func (l *lot) snapshot() OpenLot {
	return OpenLot{
		ActionID: l.action.ID,
		Date:     l.action.Date,
		Quantity: l.remaining,
		UnitCost: l.unitCost,
	}
}
