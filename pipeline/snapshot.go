package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/parser"
	"github.com/robinvdvleuten/holdings/telemetry"
)

// ParseSnapshot builds the initial ledger from a statement. Every holdings row
// becomes one purchase lot dated the statement date, so a symbol listed on
// several rows gets several lots.
func ParseSnapshot(ctx context.Context, doc Document, opts ...Option) (ledger.PositionSet, error) {
	if doc.Kind != KindStatement {
		return ledger.PositionSet{}, fmt.Errorf("%s: expected a statement, got %s", doc.Filename, doc.Kind)
	}

	timer := telemetry.StartTimer(ctx, "pipeline.snapshot "+filepath.Base(doc.Filename))
	defer timer.End()

	o := newOptions(opts)

	var popts []parser.Option
	if account := o.accountFor(doc); account != "" {
		popts = append(popts, parser.WithAccount(account))
	}
	if !doc.Date.IsZero() {
		popts = append(popts, parser.WithDate(doc.Date))
	}

	stmt, err := parser.ParseStatement(ctx, doc.Filename, doc.Text, popts...)
	if err != nil {
		return ledger.PositionSet{}, err
	}

	ps := ledger.NewPositionSet(stmt.Date)
	for _, h := range stmt.Holdings {
		symbol := o.canonical(h.Symbol)
		action := ledger.Action{Date: stmt.Date, Quantity: h.Quantity, Price: h.UnitCost}
		if _, err := ps.RecordPurchase(symbol, action); err != nil {
			return ledger.PositionSet{}, &RowError{Filename: doc.Filename, Line: h.Line, Err: err}
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("document", doc.Filename).
		Str("date", stmt.Date.String()).
		Int("holdings", len(stmt.Holdings)).
		Int("positions", ps.Len()).
		Msg("parsed statement")

	return ps, nil
}

// canonical applies the alias map without strict checking.
func (o *options) canonical(symbol string) string {
	if to, ok := o.aliases[symbol]; ok {
		return to
	}
	return symbol
}
