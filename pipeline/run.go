package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/parser"
	"github.com/robinvdvleuten/holdings/telemetry"
)

// Result is the outcome of running one account's documents.
type Result struct {
	// Positions is the ledger after the last successfully applied document.
	Positions ledger.PositionSet

	// Outcomes has one entry per document, in processing order.
	Outcomes []DocumentOutcome

	// Config is the ledger configuration passed with WithConfig, or the default.
	Config *ledger.Config
}

// Failed returns the outcome of the document that stopped the run, if any.
func (r Result) Failed() (DocumentOutcome, bool) {
	for _, outcome := range r.Outcomes {
		if outcome.Status == StatusFailed {
			return outcome, true
		}
	}
	return DocumentOutcome{}, false
}

// Run builds a ledger from one statement and any number of activity reports.
//
// The statement is applied first. Activity reports follow in date order; those
// dated before the statement are skipped. The first failing document stops the
// run: it is reported as failed, every later document as not attempted, and the
// returned error describes the failure. Positions always holds the last good
// ledger. The order of docs does not affect the result.
func Run(ctx context.Context, docs []Document, opts ...Option) (Result, error) {
	o := newOptions(opts)
	log := zerolog.Ctx(ctx)

	result := Result{Config: o.config}
	if result.Config == nil {
		result.Config = ledger.NewConfig()
	}

	ordered, err := order(ctx, docs)
	if err != nil {
		return result, err
	}

	timer := telemetry.StartTimer(ctx, fmt.Sprintf("pipeline.run %d documents", len(ordered)))
	defer timer.End()
	ctx = telemetry.WithRootTimer(ctx, timer)

	stmt := ordered[0]
	result.Positions = ledger.NewPositionSet(stmt.Date)

	var failure error
	for _, doc := range ordered {
		if failure != nil {
			result.Outcomes = append(result.Outcomes, newOutcome(doc, StatusNotAttempted))
			continue
		}

		if err := ctx.Err(); err != nil {
			failure = err
			result.Outcomes = append(result.Outcomes, newOutcome(doc, StatusNotAttempted))
			continue
		}

		var (
			outcome DocumentOutcome
			err     error
		)
		if doc.Kind == KindStatement {
			outcome, err = applyStatement(ctx, doc, &result, opts)
		} else if !doc.Date.IsZero() && doc.Date.Before(stmt.Date) {
			outcome = newOutcome(doc, StatusSkipped)
			log.Debug().Str("document", doc.Filename).Msg("skipping activity dated before statement")
		} else {
			var ps ledger.PositionSet
			ps, outcome, err = MergeActivity(ctx, doc, result.Positions, opts...)
			if err == nil {
				result.Positions = ps
			}
		}

		if err != nil {
			failure = fmt.Errorf("failed to apply %s: %w", doc.Filename, err)
			log.Warn().Err(err).Str("document", doc.Filename).Msg("document failed")
		}

		o.metrics.ObserveDocument(string(outcome.Kind), string(outcome.Status))
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, failure
}

func applyStatement(ctx context.Context, doc Document, result *Result, opts []Option) (DocumentOutcome, error) {
	ps, err := ParseSnapshot(ctx, doc, opts...)
	if err != nil {
		outcome := newOutcome(doc, StatusFailed)
		outcome.Err = err
		return outcome, err
	}

	result.Positions = ps
	outcome := newOutcome(doc, StatusApplied)
	outcome.Date = ps.Date
	for _, symbol := range ps.Symbols() {
		p, _ := ps.Position(symbol)
		outcome.Rows += len(p.Actions())
	}
	return outcome, nil
}

// order validates the batch and returns it statement first, then activity reports
// by date. Documents without a date get one from their content where possible.
func order(ctx context.Context, docs []Document) ([]Document, error) {
	var stmts, activities []Document
	for _, doc := range docs {
		switch doc.Kind {
		case KindStatement:
			if doc.Date.IsZero() {
				if date, err := parser.StatementDate(doc.Filename); err == nil {
					doc.Date = date
				}
			}
			stmts = append(stmts, doc)
		case KindActivity:
			if doc.Date.IsZero() {
				if activity, err := parser.ParseActivity(ctx, doc.Filename, doc.Text); err == nil {
					doc.Date = activity.Date()
				}
			}
			activities = append(activities, doc)
		default:
			return nil, fmt.Errorf("%s: unknown document kind %q", doc.Filename, doc.Kind)
		}
	}

	switch {
	case len(stmts) == 0:
		return nil, ErrNoStatement
	case len(stmts) > 1:
		return nil, fmt.Errorf("%w: %s and %s", ErrMultipleStatements, stmts[0].Filename, stmts[1].Filename)
	}

	sort.SliceStable(activities, func(i, j int) bool {
		a, b := activities[i], activities[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.ID < b.ID
	})

	return append(stmts, activities...), nil
}
