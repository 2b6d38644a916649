package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/parser"
)

// DoctorCmd provides doctor utilities for debugging broker documents.
type DoctorCmd struct {
	Rows     RowsCmd     `cmd:"" help:"Show the classified rows of an activity report."`
	Holdings HoldingsCmd `cmd:"" help:"Show the holdings rows of a statement."`
}

// RowsCmd shows how each row of an activity report is classified.
type RowsCmd struct {
	File FileOrStdin `help:"Activity report filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

// Run executes the rows command.
func (cmd *RowsCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	content, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	activity, err := parser.ParseActivity(context.Background(), cmd.File.Filename, content)
	if err != nil {
		_, _ = fmt.Fprintln(ctx.Stderr, NewErrorRenderer(content).Render(err))
		printError(ctx.Stderr, "parse error")
		return NewCommandError(1, err)
	}

	// Format: LINE KIND DATE SYMBOL quantity price amount "action"
	for _, row := range activity.Rows {
		_, _ = fmt.Fprintf(ctx.Stdout, "%4d %-20s %s %-8s %10s %10s %10s    %q\n",
			row.Line,
			row.Kind.String(),
			row.Date,
			row.Symbol,
			optional(row.Quantity, row.HasQuantity),
			optional(row.Price, row.HasPrice),
			optional(row.Amount, row.HasAmount),
			row.Action)
	}

	return nil
}

func optional(d decimal.Decimal, ok bool) string {
	if !ok {
		return "-"
	}
	return d.String()
}

// HoldingsCmd shows the holdings a statement yields.
type HoldingsCmd struct {
	File    FileOrStdin `help:"Statement filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Account string      `help:"Only show rows of this account number." short:"a"`
	Date    string      `help:"Statement date (YYYY-MM-DD) when the filename has none."`
}

// Run executes the holdings command.
func (cmd *HoldingsCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	content, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var opts []parser.Option
	if cmd.Account != "" {
		opts = append(opts, parser.WithAccount(cmd.Account))
	}
	if cmd.Date != "" {
		date, err := ledger.NewDate(cmd.Date)
		if err != nil {
			return err
		}
		opts = append(opts, parser.WithDate(date))
	}

	stmt, err := parser.ParseStatement(context.Background(), cmd.File.Filename, content, opts...)
	if err != nil {
		_, _ = fmt.Fprintln(ctx.Stderr, NewErrorRenderer(content).Render(err))
		printError(ctx.Stderr, "parse error")
		return NewCommandError(1, err)
	}

	printInfof(ctx.Stdout, "Statement dated %s", stmt.Date)
	for _, h := range stmt.Holdings {
		_, _ = fmt.Fprintf(ctx.Stdout, "%4d %-10s %-10s %12s %12s %12s\n",
			h.Line,
			h.Account,
			h.Symbol,
			h.Quantity.String(),
			h.Price.String(),
			h.UnitCost.String())
	}

	return nil
}
