// Package ledger provides the lot-level ledger of a holding account: which purchase
// lots remain open, which sales closed which lots at what gain, and which dividends,
// interest payments and fees occurred.
//
// The ledger is organised as a PositionSet mapping each symbol to a Position. A
// Position keeps append-only logs of:
//   - Actions: purchase lots (date, quantity, unit price)
//   - Sales: each referencing the (action, quantity) pairs it consumed
//   - Generations: cash events not tied to share quantity
//   - Splits: corporate actions scaling every open lot
//
// Sales are matched first-in-first-out by action date, ties broken by insertion order.
// Only lots dated on or before the sale are eligible; selling more than is open is an
// OversoldError, never a negative position. The open quantity of every lot is derived
// state, rebuilt by replaying the logs, so recorded actions are never modified.
//
// All quantities and amounts use decimal arithmetic. Profits and cost bases are exact;
// only annualised rates and split ratios involve division.
//
// Example usage:
//
//	ps := ledger.NewPositionSet(ledger.MustDate("2024-01-01"))
//	_, err := ps.RecordPurchase("AAA", ledger.Action{
//	    Date:     ledger.MustDate("2024-01-01"),
//	    Quantity: decimal.NewFromInt(10),
//	    Price:    decimal.NewFromInt(10),
//	})
//	sale, err := ps.RecordSale("AAA", ledger.SaleRequest{
//	    Date:     ledger.MustDate("2024-02-01"),
//	    Quantity: decimal.NewFromInt(4),
//	    Price:    decimal.NewFromInt(12),
//	})
//	fmt.Println(sale.Profit(), ledger.Interest(sale, nil))
package ledger
