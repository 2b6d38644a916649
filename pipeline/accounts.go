package pipeline

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/holdings/telemetry"
)

// AccountRun is the input for one account of RunAccounts.
type AccountRun struct {
	Name      string
	Documents []Document
	Options   []Option
}

// AccountResult is the output for one account of RunAccounts.
type AccountResult struct {
	Name   string
	Result Result
	Err    error
}

// RunAccounts runs independent accounts concurrently. Results are returned in the
// order of runs; a failing account does not stop the others. Options given here
// apply to every account, before the account's own options.
func RunAccounts(ctx context.Context, runs []AccountRun, opts ...Option) []AccountResult {
	o := newOptions(opts)
	limit := o.concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]AccountResult, len(runs))

	var g errgroup.Group
	g.SetLimit(limit)

	for i, run := range runs {
		g.Go(func() error {
			timer := telemetry.StartTimer(ctx, "account "+run.Name)
			defer timer.End()

			logger := zerolog.Ctx(ctx).With().Str("account", run.Name).Logger()
			actx := logger.WithContext(telemetry.WithRootTimer(ctx, timer))

			all := append(append([]Option{}, opts...), run.Options...)
			result, err := Run(actx, run.Documents, all...)
			results[i] = AccountResult{Name: run.Name, Result: result, Err: err}

			newOptions(all).metrics.SetPositions(run.Name, result.Positions.Len())
			return nil
		})
	}

	// Every goroutine reports through results, so Wait never returns an error.
	_ = g.Wait()

	return results
}
