package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/holdings/ledger"
)

// RowKind identifies the shape of an activity row.
type RowKind int

const (
	RowIgnored RowKind = iota
	RowBuy
	RowSell
	RowReinvestment
	RowDividend
	RowInterest
	RowCashInterest
	RowLongTermCapGain
	RowShortTermCapGain
	RowRoyaltyPayment
	RowReturnOfCapital
	RowForeignTax
	RowFee
	RowTransfer
	RowSplit
	RowSplitPayout
	RowMergerPayout
	RowRedemption
	RowDistribution
)

var rowKindNames = map[RowKind]string{
	RowIgnored:          "ignored",
	RowBuy:              "buy",
	RowSell:             "sell",
	RowReinvestment:     "reinvestment",
	RowDividend:         "dividend",
	RowInterest:         "interest",
	RowCashInterest:     "cash-interest",
	RowLongTermCapGain:  "long-term-cap-gain",
	RowShortTermCapGain: "short-term-cap-gain",
	RowRoyaltyPayment:   "royalty-payment",
	RowReturnOfCapital:  "return-of-capital",
	RowForeignTax:       "foreign-tax",
	RowFee:              "fee",
	RowTransfer:         "transfer",
	RowSplit:            "split",
	RowSplitPayout:      "split-payout",
	RowMergerPayout:     "merger-payout",
	RowRedemption:       "redemption",
	RowDistribution:     "distribution",
}

func (k RowKind) String() string {
	if name, ok := rowKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// GenerationKind returns the ledger generation kind for income-like rows.
func (k RowKind) GenerationKind() (ledger.Kind, bool) {
	switch k {
	case RowDividend:
		return ledger.KindDividend, true
	case RowInterest, RowCashInterest:
		return ledger.KindInterest, true
	case RowLongTermCapGain:
		return ledger.KindLongTermCapGain, true
	case RowShortTermCapGain:
		return ledger.KindShortTermCapGain, true
	case RowRoyaltyPayment:
		return ledger.KindRoyaltyPayment, true
	case RowReturnOfCapital:
		return ledger.KindReturnOfCapital, true
	case RowForeignTax:
		return ledger.KindForeignTax, true
	case RowFee:
		return ledger.KindFee, true
	}
	return "", false
}

// rank orders rows that share a date: purchases settle before sales so a same-day
// round trip has a lot to consume.
func (k RowKind) rank() int {
	switch k {
	case RowBuy:
		return 0
	case RowSell:
		return 1
	case RowLongTermCapGain:
		return 2
	case RowReinvestment:
		return 11
	}
	return 10
}

// Row is one classified line of an activity report. Quantities are absolute; the
// kind carries the direction.
type Row struct {
	Line       int
	Text       string
	Kind       RowKind
	Action     string
	Date       ledger.Date
	Account    string
	Symbol     string
	FromSymbol string

	Quantity    decimal.Decimal
	HasQuantity bool
	Price       decimal.Decimal
	HasPrice    bool
	Amount      decimal.Decimal
	HasAmount   bool

	// Key identifies the row by content, before any alias is applied. The same
	// transaction exported in two overlapping reports has the same key.
	Key string
}

// contentKey builds Row.Key from the classified fields.
func contentKey(row Row) string {
	field := func(d decimal.Decimal, ok bool) string {
		if !ok {
			return ""
		}
		return d.String()
	}
	return strings.Join([]string{
		row.Date.String(),
		row.Account,
		row.Action,
		row.Symbol,
		row.FromSymbol,
		field(row.Quantity, row.HasQuantity),
		field(row.Price, row.HasPrice),
		field(row.Amount, row.HasAmount),
	}, "|")
}

type actionRule struct {
	prefix string
	kind   RowKind
}

// actionRules maps broker action text to row kinds. classify picks the longest
// matching prefix, so the order here only matters for readability.
var actionRules = []actionRule{
	{"YOU BOUGHT", RowBuy},
	{"You bought", RowBuy},
	{"YOU SOLD", RowSell},
	{"You sold", RowSell},
	{"REINVESTMENT CASH", RowIgnored},
	{"REINVESTMENT", RowReinvestment},
	{"INTEREST EARNED CASH", RowCashInterest},
	{"INTEREST", RowInterest},
	{"MUNI TAXABLE INT", RowInterest},
	{"DIVIDEND RECEIVED", RowDividend},
	{"DIVIDEND ADJUSTMENT", RowDividend},
	{"LONG-TERM CAP GAIN", RowLongTermCapGain},
	{"SHORT-TERM CAP GAIN", RowShortTermCapGain},
	{"ROYALTY TR PYMT", RowRoyaltyPayment},
	{"RETURN OF CAPITAL", RowReturnOfCapital},
	{"FOREIGN TAX PAID", RowForeignTax},
	{"FEE CHARGED", RowFee},
	{"Electronic Funds Transfer", RowTransfer},
	{"OTHER DEBIT transfer", RowTransfer},
	{"OTHER CREDIT transfer", RowTransfer},
	{"Transfer in from brokerage", RowTransfer},
	{"Transfer out to brokerage", RowTransfer},
	{"REVERSE SPLIT R/S FROM", RowSplit},
	{"REVERSE SPLIT R/S TO", RowIgnored},
	{"MERGER MER FROM", RowSplit},
	{"IN LIEU OF FRX SHARE", RowSplitPayout},
	{"MERGER MER PAYOUT", RowMergerPayout},
	{"REDEMPTION PAYOUT", RowRedemption},
	{"DISTRIBUTION", RowDistribution},
}

// Classify returns the row kind for an action text.
func Classify(action string) (RowKind, bool) {
	action = strings.TrimSpace(action)

	best := -1
	kind := RowIgnored
	for _, rule := range actionRules {
		if len(rule.prefix) > best && strings.HasPrefix(action, rule.prefix) {
			best = len(rule.prefix)
			kind = rule.kind
		}
	}
	return kind, best >= 0
}

// rawRow holds the unparsed fields of an activity line.
type rawRow struct {
	filename string
	line     int
	text     string
	date     ledger.Date
	action   string
	symbol   string
	quantity string
	price    string
	amount   string
	account  string
}

func (r *rawRow) errorf(reason Reason, format string, args ...interface{}) *ParseError {
	return newParseError(r.filename, r.line, r.text, reason, format, args...)
}

// number parses an optional numeric field.
func (r *rawRow) number(field, value string) (decimal.Decimal, bool, error) {
	d, ok, err := parseNumber(value)
	if err != nil {
		pe := r.errorf(ReasonInvalidNumber, "invalid %s %q", field, value)
		pe.Underlying = err
		return decimal.Zero, false, pe
	}
	return d, ok, nil
}

// require parses a mandatory numeric field.
func (r *rawRow) require(field, value string) (decimal.Decimal, error) {
	d, ok, err := r.number(field, value)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, r.errorf(ReasonMissingField, "missing %s for %q", field, r.action)
	}
	return d, nil
}

func (r *rawRow) row(kind RowKind) Row {
	return Row{
		Line:    r.line,
		Text:    r.text,
		Kind:    kind,
		Action:  strings.TrimSpace(r.action),
		Date:    r.date,
		Account: r.account,
		Symbol:  strings.ToUpper(r.symbol),
	}
}

type rowBuilder func(r *rawRow, kind RowKind) (Row, error)

var rowBuilders = map[RowKind]rowBuilder{
	RowBuy:              buildTrade,
	RowSell:             buildTrade,
	RowReinvestment:     buildTrade,
	RowRedemption:       buildTrade,
	RowMergerPayout:     buildMergerPayout,
	RowDividend:         buildIncome,
	RowInterest:         buildIncome,
	RowCashInterest:     buildIncome,
	RowLongTermCapGain:  buildIncome,
	RowShortTermCapGain: buildIncome,
	RowRoyaltyPayment:   buildIncome,
	RowReturnOfCapital:  buildIncome,
	RowForeignTax:       buildIncome,
	RowFee:              buildIncome,
	RowTransfer:         buildTransfer,
	RowSplit:            buildSplit,
	RowSplitPayout:      buildSplitPayout,
	RowDistribution:     buildDistribution,
	RowIgnored:          buildIgnored,
}

// buildRow classifies and validates a raw row.
func buildRow(r *rawRow) (Row, error) {
	kind, ok := Classify(r.action)
	if !ok {
		return Row{}, r.errorf(ReasonUnknownAction, "unrecognised action %q", strings.TrimSpace(r.action))
	}
	return rowBuilders[kind](r, kind)
}

func buildTrade(r *rawRow, kind RowKind) (Row, error) {
	row := r.row(kind)
	if row.Symbol == "" {
		return Row{}, r.errorf(ReasonMissingField, "missing symbol for %q", row.Action)
	}

	qty, err := r.require("quantity", r.quantity)
	if err != nil {
		return Row{}, err
	}
	price, err := r.require("price", r.price)
	if err != nil {
		return Row{}, err
	}

	qty = qty.Abs()
	if kind == RowBuy && isBondOrCD(row.Action) {
		// Bonds and CDs are quoted per 100 of face value.
		qty = qty.Div(decimal.NewFromInt(100))
	}

	row.Quantity, row.HasQuantity = qty, true
	row.Price, row.HasPrice = price, true
	row.Amount, row.HasAmount, err = r.number("amount", r.amount)
	return row, err
}

func buildMergerPayout(r *rawRow, kind RowKind) (Row, error) {
	row := r.row(kind)
	if row.Symbol == "" {
		return Row{}, r.errorf(ReasonMissingField, "missing symbol for %q", row.Action)
	}

	qty, err := r.require("quantity", r.quantity)
	if err != nil {
		return Row{}, err
	}
	row.Quantity, row.HasQuantity = qty.Abs(), true

	if row.Price, row.HasPrice, err = r.number("price", r.price); err != nil {
		return Row{}, err
	}
	row.Amount, row.HasAmount, err = r.number("amount", r.amount)
	return row, err
}

func buildIncome(r *rawRow, kind RowKind) (Row, error) {
	row := r.row(kind)
	amount, err := r.require("amount", r.amount)
	if err != nil {
		return Row{}, err
	}
	row.Amount, row.HasAmount = amount, true
	return row, nil
}

func buildTransfer(r *rawRow, kind RowKind) (Row, error) {
	row := r.row(kind)

	var err error
	if row.Quantity, row.HasQuantity, err = r.number("quantity", r.quantity); err != nil {
		return Row{}, err
	}
	if row.Price, row.HasPrice, err = r.number("price", r.price); err != nil {
		return Row{}, err
	}
	row.Amount, row.HasAmount, err = r.number("amount", r.amount)
	return row, err
}

func buildSplit(r *rawRow, kind RowKind) (Row, error) {
	row := r.row(kind)
	if row.Symbol == "" {
		return Row{}, r.errorf(ReasonMissingField, "missing symbol for %q", row.Action)
	}

	row.FromSymbol = fromSymbol(row.Action)
	if row.FromSymbol == "" {
		return Row{}, r.errorf(ReasonMissingField, "missing source symbol in %q", row.Action)
	}

	qty, err := r.require("quantity", r.quantity)
	if err != nil {
		return Row{}, err
	}
	row.Quantity, row.HasQuantity = qty.Abs(), true
	return row, nil
}

func buildSplitPayout(r *rawRow, kind RowKind) (Row, error) {
	row := r.row(kind)

	row.FromSymbol = fromSymbol(row.Action)
	if row.FromSymbol == "" {
		row.FromSymbol = row.Symbol
	}
	if row.FromSymbol == "" {
		return Row{}, r.errorf(ReasonMissingField, "missing source symbol in %q", row.Action)
	}

	amount, err := r.require("amount", r.amount)
	if err != nil {
		return Row{}, err
	}
	row.Amount, row.HasAmount = amount, true
	return row, nil
}

func buildDistribution(r *rawRow, kind RowKind) (Row, error) {
	row := r.row(kind)
	if row.Symbol == "" {
		return Row{}, r.errorf(ReasonMissingField, "missing symbol for %q", row.Action)
	}

	qty, err := r.require("quantity", r.quantity)
	if err != nil {
		return Row{}, err
	}
	row.Quantity, row.HasQuantity = qty.Abs(), true
	return row, nil
}

func buildIgnored(r *rawRow, kind RowKind) (Row, error) {
	return r.row(kind), nil
}

// fromSymbol extracts the source ticker of a split or merger: the last whitespace
// separated token before the first '#'.
func fromSymbol(action string) string {
	if i := strings.Index(action, "#"); i >= 0 {
		action = action[:i]
	}
	fields := strings.Fields(action)
	if len(fields) == 0 {
		return ""
	}
	symbol := strings.ToUpper(strings.Trim(fields[len(fields)-1], "()"))
	// The action prefix itself ends in FROM or PAYOUT when no ticker follows.
	switch symbol {
	case "FROM", "PAYOUT", "SHARE", "TO":
		return ""
	}
	return symbol
}

func isBondOrCD(action string) bool {
	for _, field := range strings.Fields(action) {
		if field == "BDS" || field == "CD" {
			return true
		}
	}
	return false
}
