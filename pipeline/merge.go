package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/parser"
	"github.com/robinvdvleuten/holdings/telemetry"
)

// MergeActivity applies an activity report to prior and returns the new ledger.
// The merge is all or nothing: on any error prior is returned unchanged together
// with the error, and the outcome is marked failed.
func MergeActivity(ctx context.Context, doc Document, prior ledger.PositionSet, opts ...Option) (ledger.PositionSet, DocumentOutcome, error) {
	outcome := newOutcome(doc, StatusFailed)
	if doc.Kind != KindActivity {
		err := fmt.Errorf("%s: expected an activity report, got %s", doc.Filename, doc.Kind)
		outcome.Err = err
		return prior, outcome, err
	}

	timer := telemetry.StartTimer(ctx, "pipeline.merge "+filepath.Base(doc.Filename))
	defer timer.End()

	o := newOptions(opts)
	start := time.Now()

	var parseOpts []parser.Option
	if account := o.accountFor(doc); account != "" {
		parseOpts = append(parseOpts, parser.WithAccount(account))
	}

	activity, err := parser.ParseActivity(ctx, doc.Filename, doc.Text, parseOpts...)
	if err != nil {
		outcome.Err = err
		return prior, outcome, err
	}

	m := &merger{
		doc:         doc,
		opts:        o,
		account:     o.accountFor(doc),
		prior:       prior,
		ps:          prior.Clone(),
		occurrences: make(map[string]int),
	}

	rows := m.resolve(activity.Rows)
	parser.SortRows(rows)

	for _, row := range rows {
		if reason, skip := m.skip(row); skip {
			outcome.Skipped++
			zerolog.Ctx(ctx).Debug().
				Str("document", doc.Filename).
				Int("line", row.Line).
				Str("reason", reason).
				Msg("skipping row")
			continue
		}
		if err := m.apply(row); err != nil {
			var wrapped error = err
			var aliasErr *AliasResolutionError
			if !errors.As(err, &aliasErr) {
				wrapped = &RowError{Filename: doc.Filename, Line: row.Line, Text: row.Text, Err: err}
			}
			outcome.Err = wrapped
			return prior, outcome, wrapped
		}
		m.ps.MarkSource(row.Key)
		outcome.Rows++
		o.metrics.ObserveRow(row.Kind.String())
	}

	m.ps.Advance(doc.Date)
	m.ps.Advance(activity.Date())

	if outcome.Date.IsZero() {
		outcome.Date = activity.Date()
	}
	outcome.Status = StatusApplied

	o.metrics.ObserveMerge(time.Since(start))
	zerolog.Ctx(ctx).Debug().
		Str("document", doc.Filename).
		Int("rows", outcome.Rows).
		Int("skipped", outcome.Skipped).
		Str("date", m.ps.Date.String()).
		Msg("merged activity")

	return m.ps, outcome, nil
}

type merger struct {
	doc     Document
	opts    *options
	account string

	// prior is the ledger before this document; ps is the working copy.
	prior ledger.PositionSet
	ps    ledger.PositionSet

	// occurrences counts the rows seen so far in this document, by key.
	occurrences map[string]int
}

// skip reports whether row is already part of the prior ledger. A row is a
// duplicate when the prior ledger merged at least as many rows with the same key
// as this document has shown so far, which keeps identical fills within one
// report apart. A row is stale when it is dated before the newest record of its
// family (trades or generations) that the prior ledger holds for its symbol.
func (m *merger) skip(row parser.Row) (string, bool) {
	if row.Key != "" {
		seen := m.occurrences[row.Key]
		m.occurrences[row.Key]++
		if seen < m.prior.Sources(row.Key) {
			return "duplicate", true
		}
	}

	symbol, trade := m.target(row)
	latest, ok := m.prior.LatestGeneration(symbol)
	if trade {
		latest, ok = m.prior.LatestTrade(symbol)
	}
	if ok && row.Date.Before(latest) {
		return "before " + latest.String(), true
	}
	return "", false
}

// target returns the position a row lands on and whether it is a trade.
func (m *merger) target(row parser.Row) (string, bool) {
	switch row.Kind {
	case parser.RowBuy, parser.RowReinvestment, parser.RowSell, parser.RowRedemption, parser.RowDistribution:
		return row.Symbol, true
	case parser.RowMergerPayout:
		if row.HasPrice {
			return row.Symbol, true
		}
	case parser.RowTransfer:
		if row.Symbol != "" && row.HasQuantity && row.Quantity.IsPositive() {
			return row.Symbol, true
		}
	case parser.RowSplit, parser.RowSplitPayout:
		return row.FromSymbol, true
	}

	if _, ok := row.Kind.GenerationKind(); ok {
		return orCash(row.Symbol), false
	}
	if row.Symbol != "" && m.prior.Has(row.Symbol) {
		return row.Symbol, false
	}
	return ledger.CashSymbol, false
}

// resolve drops rows of other accounts and maps symbols to canonical form.
func (m *merger) resolve(rows []parser.Row) []parser.Row {
	resolved := make([]parser.Row, 0, len(rows))
	for _, row := range rows {
		if m.account != "" && row.Account != "" && row.Account != m.account {
			continue
		}
		row.Symbol = m.opts.canonical(row.Symbol)
		row.FromSymbol = m.opts.canonical(row.FromSymbol)
		resolved = append(resolved, row)
	}
	return resolved
}

// checkStrict enforces strict alias mode against the working ledger, so a
// symbol bought earlier in the same report counts as held.
func (m *merger) checkStrict(row parser.Row, symbols ...string) error {
	if !m.opts.strict {
		return nil
	}
	for _, symbol := range symbols {
		if symbol == "" || m.ps.Has(symbol) || m.opts.isAliasTarget(symbol) {
			continue
		}
		return &AliasResolutionError{Symbol: symbol, Filename: m.doc.Filename, Line: row.Line}
	}
	return nil
}

func (o *options) isAliasTarget(symbol string) bool {
	for _, to := range o.aliases {
		if to == symbol {
			return true
		}
	}
	return false
}

// auditSymbol picks where a zero-impact record is kept: the row's position when
// it is already held, otherwise the cash pseudo position. Recording on an unheld
// symbol would create a position and block a later split into that symbol.
func (m *merger) auditSymbol(symbol string) string {
	if symbol != "" && m.ps.Has(symbol) {
		return symbol
	}
	return ledger.CashSymbol
}

func orCash(symbol string) string {
	if symbol == "" {
		return ledger.CashSymbol
	}
	return symbol
}

func (m *merger) note(row parser.Row, kind ledger.Kind) error {
	_, err := m.ps.RecordGeneration(m.auditSymbol(row.Symbol), ledger.Generation{
		Date: row.Date,
		Kind: kind,
		Note: row.Action,
	})
	return err
}

func (m *merger) apply(row parser.Row) error {
	switch row.Kind {
	case parser.RowBuy, parser.RowReinvestment:
		if err := m.checkStrict(row, row.Symbol); err != nil {
			return err
		}
		a, err := m.ps.RecordPurchase(row.Symbol, ledger.Action{Date: row.Date, Quantity: row.Quantity, Price: row.Price})
		if err != nil {
			return err
		}
		return m.offset(row.Date, a.Quantity.Mul(a.Price).Neg())

	case parser.RowSell, parser.RowRedemption:
		if err := m.checkStrict(row, row.Symbol); err != nil {
			return err
		}
		return m.sell(row.Symbol, ledger.SaleRequest{Date: row.Date, Quantity: row.Quantity, Price: row.Price})

	case parser.RowMergerPayout:
		// Without a price the payout was made in stock, recorded by another row.
		if !row.HasPrice {
			return m.note(row, ledger.KindOther)
		}
		if err := m.checkStrict(row, row.Symbol); err != nil {
			return err
		}
		return m.sell(row.Symbol, ledger.SaleRequest{Date: row.Date, Quantity: row.Quantity, Price: row.Price})

	case parser.RowTransfer:
		return m.applyTransfer(row)

	case parser.RowSplit:
		if err := m.checkStrict(row, row.FromSymbol, row.Symbol); err != nil {
			return err
		}
		_, err := m.ps.RecordSplit(row.Date, row.FromSymbol, row.Symbol, row.Quantity)
		return err

	case parser.RowSplitPayout:
		return m.applySplitPayout(row)

	case parser.RowDistribution:
		if err := m.checkStrict(row, row.Symbol); err != nil {
			return err
		}
		_, err := m.ps.RecordDistribution(row.Date, row.Symbol, row.Quantity)
		return err

	case parser.RowIgnored:
		return m.note(row, ledger.KindOther)
	}

	kind, ok := row.Kind.GenerationKind()
	if !ok {
		return fmt.Errorf("no ledger operation for %s row", row.Kind)
	}
	if err := m.checkStrict(row, row.Symbol); err != nil {
		return err
	}
	gen, err := m.ps.RecordGeneration(orCash(row.Symbol), ledger.Generation{
		Date:   row.Date,
		Kind:   kind,
		Amount: row.Amount,
		Note:   row.Action,
	})
	if err != nil {
		return err
	}
	return m.offset(row.Date, gen.Amount)
}

func (m *merger) sell(symbol string, req ledger.SaleRequest) error {
	sale, err := m.ps.RecordSale(symbol, req)
	if err != nil {
		return err
	}
	return m.offset(req.Date, sale.Proceeds())
}

// offset moves amount in or out of cash when WithCashOffset is set.
func (m *merger) offset(date ledger.Date, amount decimal.Decimal) error {
	if !m.opts.offsetCash {
		return nil
	}
	return m.ps.OffsetCash(date, amount)
}

// applyTransfer books incoming shares as a purchase at their transferred cost and
// keeps every other transfer as an audit record.
func (m *merger) applyTransfer(row parser.Row) error {
	if row.Symbol == "" || !row.HasQuantity || !row.Quantity.IsPositive() {
		return m.note(row, ledger.KindTransfer)
	}

	if err := m.checkStrict(row, row.Symbol); err != nil {
		return err
	}

	price := decimal.Zero
	switch {
	case row.HasPrice:
		price = row.Price.Abs()
	case row.HasAmount:
		price = row.Amount.Abs().Div(row.Quantity)
	}

	_, err := m.ps.RecordPurchase(row.Symbol, ledger.Action{Date: row.Date, Quantity: row.Quantity, Price: price})
	return err
}

// applySplitPayout sells whatever remains of the source position for the cash paid
// in lieu of fractional shares.
func (m *merger) applySplitPayout(row parser.Row) error {
	p, ok := m.ps.Position(row.FromSymbol)
	if !ok || !p.OpenQuantity().IsPositive() {
		return m.note(row, ledger.KindOther)
	}

	qty := p.OpenQuantity()
	_, err := m.ps.RecordSale(row.FromSymbol, ledger.SaleRequest{
		Date:     row.Date,
		Quantity: qty,
		Price:    row.Amount.Abs().Div(qty),
	})
	if err != nil {
		return err
	}
	return m.offset(row.Date, row.Amount.Abs())
}
