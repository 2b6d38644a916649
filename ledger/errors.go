package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Error types for ledger invariant violations

// ValidationError is returned when a well-formed record violates a ledger invariant,
// such as a non-positive quantity or a negative price.
type ValidationError struct {
	Symbol  string
	Date    Date
	Field   string // Offending field (quantity, price, amount, kind, ...)
	Message string
}

func (e *ValidationError) Error() string {
	// Format: date: symbol: message
	location := e.Date.String()
	if e.Symbol != "" {
		location = fmt.Sprintf("%s: %s", location, e.Symbol)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", location, e.Message)
	}
	return fmt.Sprintf("%s: invalid %s: %s", location, e.Field, e.Message)
}

func (e *ValidationError) GetSymbol() string {
	return e.Symbol
}

func (e *ValidationError) GetDate() Date {
	return e.Date
}

func (e *ValidationError) GetField() string {
	return e.Field
}

// OversoldError is returned when a sale requests more quantity than is open as of
// the sale date.
type OversoldError struct {
	Symbol    string
	Date      Date
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *OversoldError) Error() string {
	return fmt.Sprintf("%s: cannot sell %s of %s, only %s open",
		e.Date, e.Requested.String(), e.Symbol, e.Available.String())
}

func (e *OversoldError) GetSymbol() string {
	return e.Symbol
}

func (e *OversoldError) GetDate() Date {
	return e.Date
}

// Shortfall returns the quantity missing to cover the sale.
func (e *OversoldError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func newValidationError(symbol string, date Date, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Symbol:  symbol,
		Date:    date,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
