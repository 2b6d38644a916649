package parser

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/telemetry"
)

// sectionMarkers open a holdings table. Each table runs until the next line
// starting with sectionEnd.
var sectionMarkers = []string{
	"Core Account",
	"Mutual Funds",
	"Stocks",
	"Bonds",
	"Exchange Traded Products",
	"Other",
}

const sectionEnd = "Subtotal of"

var (
	accountLine  = regexp.MustCompile(`^"?Account (?:Number"?\s*[,:]|#)\s*"?([A-Z0-9-]*[0-9][A-Z0-9-]*)"?\s*(?:,|$)`)
	filenameDate = regexp.MustCompile(`\d{8}`)
)

// Holding is one row of a statement's holdings tables.
type Holding struct {
	Line        int
	Account     string
	Symbol      string
	Description string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	UnitCost    decimal.Decimal
}

// Statement is a point-in-time snapshot of an account's holdings.
type Statement struct {
	Filename string
	Date     ledger.Date
	Holdings []Holding
}

// Option configures how documents are parsed.
type Option func(*options)

type options struct {
	account string
	date    ledger.Date
}

// WithAccount keeps only rows belonging to the given account number.
func WithAccount(number string) Option {
	return func(o *options) {
		o.account = strings.TrimSpace(number)
	}
}

// WithDate sets the statement date instead of deriving it from the filename.
func WithDate(date ledger.Date) Option {
	return func(o *options) {
		o.date = date
	}
}

// ParseStatement extracts the holdings tables of a statement.
func ParseStatement(ctx context.Context, filename string, data []byte, opts ...Option) (*Statement, error) {
	timer := telemetry.StartTimer(ctx, "parser.statement "+filepath.Base(filename))
	defer timer.End()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	date := o.date
	if date.IsZero() {
		var err error
		if date, err = StatementDate(filename); err != nil {
			return nil, err
		}
	}

	doc := NewDocument(filename, data)
	stmt := &Statement{Filename: filename, Date: date}

	account := ""
	inSection := false
	for i, line := range doc.Lines() {
		trimmed := strings.TrimSpace(line)
		lineno := i + 1

		if m := accountLine.FindStringSubmatch(trimmed); m != nil {
			account = m[1]
			continue
		}

		if !inSection {
			inSection = isSectionMarker(trimmed)
			continue
		}
		if strings.HasPrefix(trimmed, sectionEnd) {
			inSection = false
			continue
		}

		if o.account != "" && account != "" && account != o.account {
			continue
		}

		holding, ok, err := parseHoldingLine(filename, lineno, line)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		holding.Account = account
		stmt.Holdings = append(stmt.Holdings, holding)
	}

	return stmt, nil
}

func isSectionMarker(line string) bool {
	for _, marker := range sectionMarkers {
		if strings.HasPrefix(strings.TrimLeft(line, `"`), marker) {
			return true
		}
	}
	return false
}

// StatementDate reads the MMDDYYYY date embedded in a statement filename.
func StatementDate(filename string) (ledger.Date, error) {
	base := filepath.Base(filename)
	raw := filenameDate.FindString(base)
	if raw == "" {
		return ledger.Date{}, newParseError(filename, 0, "", ReasonMissingDate, "no MMDDYYYY date in filename %q", base)
	}

	t, err := time.Parse("01022006", raw)
	if err != nil {
		pe := newParseError(filename, 0, "", ReasonInvalidDate, "invalid date %q in filename", raw)
		pe.Underlying = err
		return ledger.Date{}, pe
	}
	return ledger.DateFromTime(t), nil
}

// parseHoldingLine parses a holdings table row. Rows that are structurally not
// holdings (short rows, column headers, cash sweeps without a quantity) report
// false without error.
func parseHoldingLine(filename string, lineno int, line string) (Holding, bool, error) {
	record, err := splitRecord(line)
	if err != nil || len(record) < 7 {
		return Holding{}, false, nil
	}

	symbol, description, rawQty, rawPrice, rawCost := record[0], record[1], record[2], record[3], record[6]
	if strings.EqualFold(rawQty, "quantity") {
		return Holding{}, false, nil
	}

	invalid := func(field, value string, cause error) error {
		pe := newParseError(filename, lineno, line, ReasonInvalidNumber, "invalid %s %q", field, value)
		pe.Underlying = cause
		return pe
	}

	qty, ok, err := parseNumber(rawQty)
	if err != nil {
		return Holding{}, false, invalid("quantity", rawQty, err)
	}
	if !ok {
		return Holding{}, false, nil
	}

	price, _, err := parseNumber(rawPrice)
	if err != nil {
		return Holding{}, false, invalid("price", rawPrice, err)
	}

	unitCost := price
	if !isBlank(rawCost) && !qty.IsZero() {
		cost, _, err := parseNumber(rawCost)
		if err != nil {
			return Holding{}, false, invalid("cost basis", rawCost, err)
		}
		unitCost = cost.Div(qty)
	}

	if symbol == "" {
		symbol = description
	} else {
		symbol = strings.ToUpper(symbol)
	}

	return Holding{
		Line:        lineno,
		Symbol:      symbol,
		Description: description,
		Quantity:    qty,
		Price:       price,
		UnitCost:    unitCost,
	}, true, nil
}
