package cli

import (
	"fmt"
	"io"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/holdings/output"
	"github.com/robinvdvleuten/holdings/pipeline"
)

type CheckCmd struct {
	Account string `help:"Only check this account." short:"a"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	s, err := globals.start(ctx, "check")
	if err != nil {
		return err
	}

	result := check(s, ctx.Stdout, ctx.Stderr, globals, cmd.Account)
	if err := s.finish(); err != nil {
		return err
	}

	if result.ExitCode != 0 {
		return NewCommandError(result.ExitCode, result.Err)
	}
	return nil
}

// check runs the accounts and prints one line per document. Failures are
// rendered with the lines of the failing document.
func check(s *session, stdout, stderr io.Writer, globals *Globals, only string) CommandResult {
	cfg, err := globals.loadManifest()
	if err != nil {
		printError(stderr, err.Error())
		return Failure(err)
	}

	results, runs, err := s.runAccounts(cfg, only)
	if err != nil {
		printError(stderr, err.Error())
		return Failure(err)
	}

	styles := output.NewStyles(stdout)
	failed := 0
	documents := 0

	for i, res := range results {
		printInfof(stdout, "Account %s", styles.Account(res.Name))

		for _, outcome := range res.Result.Outcomes {
			documents++
			_, _ = fmt.Fprintf(stdout, "  %s %s %s\n",
				statusLabel(styles, outcome.Status),
				styles.FilePath(outcome.Filename),
				styles.Dim(outcomeDetail(outcome)),
			)
		}

		if res.Err != nil {
			failed++
			renderer := NewErrorRenderer(failedSource(runs[i], res.Result))
			_, _ = fmt.Fprintln(stderr, renderer.Render(res.Err))
		}
	}

	if failed > 0 {
		err := fmt.Errorf("%d of %d account(s) failed", failed, len(results))
		printError(stderr, err.Error())
		return Failure(err)
	}

	printSuccess(stdout, fmt.Sprintf("Check passed: %d account(s), %d document(s)", len(results), documents))
	return Success()
}

func statusLabel(styles *output.Styles, status pipeline.Status) string {
	label := fmt.Sprintf("%-13s", status)
	switch status {
	case pipeline.StatusApplied:
		return styles.Success(label)
	case pipeline.StatusFailed:
		return styles.Error(label)
	case pipeline.StatusNotAttempted:
		return styles.Warning(label)
	}
	return styles.Dim(label)
}

func outcomeDetail(outcome pipeline.DocumentOutcome) string {
	if outcome.Status != pipeline.StatusApplied {
		return fmt.Sprintf("(%s)", outcome.Kind)
	}
	if outcome.Skipped > 0 {
		return fmt.Sprintf("(%s, %s, %d rows, %d skipped)", outcome.Kind, outcome.Date, outcome.Rows, outcome.Skipped)
	}
	return fmt.Sprintf("(%s, %s, %d rows)", outcome.Kind, outcome.Date, outcome.Rows)
}

// failedSource returns the text of the document that stopped the run.
func failedSource(run pipeline.AccountRun, result pipeline.Result) []byte {
	outcome, ok := result.Failed()
	if !ok {
		return nil
	}
	for _, doc := range run.Documents {
		if doc.ID == outcome.DocumentID {
			return doc.Text
		}
	}
	return nil
}
