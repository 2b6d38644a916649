package parser

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/telemetry"
)

const activityHeader = "Run Date"

// Activity is the classified, ordered rows of an activity report.
type Activity struct {
	Filename string
	Rows     []Row
}

// Date returns the date of the last row, or the zero date for an empty report.
func (a *Activity) Date() ledger.Date {
	if len(a.Rows) == 0 {
		return ledger.Date{}
	}
	return a.Rows[len(a.Rows)-1].Date
}

type columns struct {
	date, action, symbol, quantity, price, amount, account int
}

func (c columns) field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// normalizeHeader lower-cases a column name and drops a currency suffix such as
// " ($)".
func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, "($)")
	return strings.TrimSpace(name)
}

func findColumns(header []string) columns {
	c := columns{-1, -1, -1, -1, -1, -1, -1}
	for i, name := range header {
		switch normalizeHeader(name) {
		case "run date":
			c.date = i
		case "action":
			c.action = i
		case "symbol":
			c.symbol = i
		case "quantity":
			c.quantity = i
		case "price":
			c.price = i
		case "amount":
			c.amount = i
		case "account number", "account":
			c.account = i
		}
	}
	return c
}

// ParseActivity extracts and classifies the rows of an activity report. Rows are
// returned in application order: by date, then intra-day rank, then document order.
//
// With WithAccount, rows of other accounts are dropped before they are
// classified, so their actions and fields are never checked. Rows without an
// account are always kept.
func ParseActivity(ctx context.Context, filename string, data []byte, opts ...Option) (*Activity, error) {
	timer := telemetry.StartTimer(ctx, "parser.activity "+filepath.Base(filename))
	defer timer.End()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := NewDocument(filename, data)
	section, ok := doc.LinesBetween(activityHeader, "", 0)
	if !ok {
		return nil, newParseError(filename, 0, "", ReasonMissingSection, "no %q header row", activityHeader)
	}

	headerLine := section.Lines[0]
	header, err := splitRecord(headerLine)
	if err != nil {
		pe := newParseError(filename, section.LineNumber(0), headerLine, ReasonMalformedRow, "unreadable header row")
		pe.Underlying = err
		return nil, pe
	}

	cols := findColumns(header)
	if cols.date < 0 {
		return nil, newParseError(filename, section.LineNumber(0), headerLine, ReasonMissingColumn, "missing %q column", "Run Date")
	}
	if cols.action < 0 {
		return nil, newParseError(filename, section.LineNumber(0), headerLine, ReasonMissingColumn, "missing %q column", "Action")
	}

	activity := &Activity{Filename: filename}
	for i, line := range section.Lines[1:] {
		lineno := section.LineNumber(i + 1)

		record, err := splitRecord(line)
		if err != nil {
			pe := newParseError(filename, lineno, line, ReasonMalformedRow, "unreadable row")
			pe.Underlying = err
			return nil, pe
		}

		account := strings.TrimSpace(cols.field(record, cols.account))
		if o.account != "" && account != "" && account != o.account {
			continue
		}

		rawDate := cols.field(record, cols.date)
		date, ok := parseDate(rawDate)
		if !ok {
			return nil, newParseError(filename, lineno, line, ReasonInvalidDate, "invalid date %q", rawDate)
		}

		row, err := buildRow(&rawRow{
			filename: filename,
			line:     lineno,
			text:     line,
			date:     date,
			action:   cols.field(record, cols.action),
			symbol:   cols.field(record, cols.symbol),
			quantity: cols.field(record, cols.quantity),
			price:    cols.field(record, cols.price),
			amount:   cols.field(record, cols.amount),
			account:  account,
		})
		if err != nil {
			return nil, err
		}
		row.Key = contentKey(row)
		activity.Rows = append(activity.Rows, row)
	}

	SortRows(activity.Rows)
	return activity, nil
}

// SortRows stably orders rows by date and intra-day rank.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Kind.rank() < b.Kind.rank()
	})
}
