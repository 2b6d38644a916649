package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/holdings/config"
	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/output"
	"github.com/robinvdvleuten/holdings/pipeline"
	"github.com/robinvdvleuten/holdings/report"
)

// ledgers runs the selected accounts and returns their ledgers. A failed
// account still yields its last good ledger, with a warning on stderr.
func ledgers(ctx *kong.Context, globals *Globals, account string, name string) (*config.Config, []pipeline.AccountResult, *session, error) {
	s, err := globals.start(ctx, name)
	if err != nil {
		return nil, nil, nil, err
	}

	cfg, err := globals.loadManifest()
	if err != nil {
		return nil, nil, s, err
	}

	results, _, err := s.runAccounts(cfg, account)
	if err != nil {
		return nil, nil, s, err
	}

	for _, res := range results {
		if res.Err != nil {
			printError(ctx.Stderr, fmt.Sprintf("%s: %v", res.Name, res.Err))
		}
	}

	return cfg, results, s, nil
}

func reportOptions(w io.Writer, cfg *config.Config) []report.Option {
	opts := []report.Option{report.WithStyles(output.NewStyles(w))}
	if cfg.Currency != "" {
		opts = append(opts, report.WithCurrency(cfg.Currency))
	}
	return opts
}

type PositionsCmd struct {
	Account  string `help:"Only show this account." short:"a"`
	Markdown bool   `help:"Render the summary as markdown."`
}

func (cmd *PositionsCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, results, s, err := ledgers(ctx, globals, cmd.Account, "positions")
	if s != nil {
		defer func() { _ = s.finish() }()
	}
	if err != nil {
		return err
	}

	var renderer *glamour.TermRenderer
	if cmd.Markdown {
		renderer, err = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err != nil {
			return fmt.Errorf("failed to create markdown renderer: %w", err)
		}
	}

	styles := output.NewStyles(ctx.Stdout)
	for i, res := range results {
		summaries := report.Summarize(res.Result.Positions, res.Result.Config)

		if renderer != nil {
			md := report.SummaryMarkdown(res.Name, summaries, reportOptions(ctx.Stdout, cfg)...)
			out, err := renderer.Render(md)
			if err != nil {
				return fmt.Errorf("failed to render markdown: %w", err)
			}
			_, _ = fmt.Fprint(ctx.Stdout, out)
			continue
		}

		if i > 0 {
			_, _ = fmt.Fprintln(ctx.Stdout)
		}
		printInfof(ctx.Stdout, "%s as of %s", styles.Account(res.Name), res.Result.Positions.Date)
		if err := report.WriteSummaryTable(ctx.Stdout, summaries, reportOptions(ctx.Stdout, cfg)...); err != nil {
			return err
		}
	}

	return nil
}

type LotsCmd struct {
	Account string `help:"Account to show." short:"a" required:""`
	Symbol  string `help:"Only show this symbol." short:"s"`
	AsOf    string `help:"Only show lots bought on or before this date (YYYY-MM-DD)." name:"as-of"`
}

func (cmd *LotsCmd) Run(ctx *kong.Context, globals *Globals) error {
	var asOf ledger.Date
	if cmd.AsOf != "" {
		var err error
		if asOf, err = ledger.NewDate(cmd.AsOf); err != nil {
			return err
		}
	}

	cfg, results, s, err := ledgers(ctx, globals, cmd.Account, "lots")
	if s != nil {
		defer func() { _ = s.finish() }()
	}
	if err != nil {
		return err
	}

	ps := results[0].Result.Positions
	symbols := report.Symbols(ps)
	if cmd.Symbol != "" {
		symbols = []string{strings.ToUpper(cmd.Symbol)}
	}

	styles := output.NewStyles(ctx.Stdout)
	shown := 0
	for _, symbol := range symbols {
		lots := report.Lots(ps, symbol, asOf)
		if len(lots) == 0 {
			continue
		}
		if shown > 0 {
			_, _ = fmt.Fprintln(ctx.Stdout)
		}
		shown++

		printInfof(ctx.Stdout, "%s", styles.Symbol(symbol))
		if err := report.WriteLotsTable(ctx.Stdout, lots, reportOptions(ctx.Stdout, cfg)...); err != nil {
			return err
		}
	}

	if shown == 0 {
		printInfof(ctx.Stdout, "No open lots")
	}
	return nil
}

type ProjectCmd struct {
	Account string            `help:"Only project this account." short:"a"`
	AsOf    string            `help:"Valuation date (YYYY-MM-DD), defaults to the ledger date." name:"as-of"`
	Price   map[string]string `help:"Price per symbol as SYMBOL=PRICE, repeatable." short:"p" required:""`
}

func (cmd *ProjectCmd) Run(ctx *kong.Context, globals *Globals) error {
	prices, err := parsePrices(cmd.Price)
	if err != nil {
		return err
	}

	var asOf ledger.Date
	if cmd.AsOf != "" {
		if asOf, err = ledger.NewDate(cmd.AsOf); err != nil {
			return err
		}
	}

	cfg, results, s, err := ledgers(ctx, globals, cmd.Account, "project")
	if s != nil {
		defer func() { _ = s.finish() }()
	}
	if err != nil {
		return err
	}

	styles := output.NewStyles(ctx.Stdout)
	for i, res := range results {
		date := asOf
		if date.IsZero() {
			date = res.Result.Positions.Date
		}

		if i > 0 {
			_, _ = fmt.Fprintln(ctx.Stdout)
		}
		printInfof(ctx.Stdout, "%s as of %s", styles.Account(res.Name), date)

		projections := report.Project(res.Result.Positions, date, prices, res.Result.Config)
		if err := report.WriteProjectionTable(ctx.Stdout, projections, reportOptions(ctx.Stdout, cfg)...); err != nil {
			return err
		}
	}

	return nil
}

func parsePrices(raw map[string]string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(raw))
	for symbol, value := range raw {
		price, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(value), "$"))
		if err != nil {
			return nil, fmt.Errorf("invalid price for %s: %q", symbol, value)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("invalid price for %s: must not be negative", symbol)
		}
		prices[strings.ToUpper(strings.TrimSpace(symbol))] = price
	}
	return prices, nil
}

type DumpCmd struct {
	Account string `help:"Account to dump." short:"a" required:""`
	JSON    bool   `help:"Dump as JSON." name:"json"`
}

func (cmd *DumpCmd) Run(ctx *kong.Context, globals *Globals) error {
	_, results, s, err := ledgers(ctx, globals, cmd.Account, "dump")
	if s != nil {
		defer func() { _ = s.finish() }()
	}
	if err != nil {
		return err
	}

	ps := results[0].Result.Positions
	if cmd.JSON {
		data, err := json.MarshalIndent(ps, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode ledger: %w", err)
		}
		_, _ = fmt.Fprintln(ctx.Stdout, string(data))
		return nil
	}

	repr.New(ctx.Stdout, repr.Indent("  "), repr.OmitEmpty(true)).Println(dumpPositions(ps))
	return nil
}

type dumpLot struct {
	ID       int
	Date     string
	Quantity string
	UnitCost string
}

type dumpSale struct {
	ID       int
	Date     string
	Quantity string
	Price    string
	Profit   string
}

type dumpGeneration struct {
	ID     int
	Date   string
	Kind   string
	Amount string
	Note   string
}

type dumpPosition struct {
	Symbol      string
	Open        []dumpLot
	Sales       []dumpSale
	Generations []dumpGeneration
	Splits      []string
}

// dumpPositions flattens a ledger into plain values for printing.
func dumpPositions(ps ledger.PositionSet) []dumpPosition {
	var out []dumpPosition
	for _, symbol := range ps.Symbols() {
		p, _ := ps.Position(symbol)
		d := dumpPosition{Symbol: symbol}

		for _, lot := range p.OpenLots() {
			d.Open = append(d.Open, dumpLot{ID: lot.ActionID, Date: lot.Date.String(), Quantity: lot.Quantity.String(), UnitCost: lot.UnitCost.String()})
		}
		for _, sale := range p.Sales() {
			d.Sales = append(d.Sales, dumpSale{ID: sale.ID, Date: sale.Date.String(), Quantity: sale.Quantity.String(), Price: sale.Price.String(), Profit: sale.Profit().String()})
		}
		for _, g := range p.Generations() {
			d.Generations = append(d.Generations, dumpGeneration{ID: g.ID, Date: g.Date.String(), Kind: string(g.Kind), Amount: g.Amount.String(), Note: g.Note})
		}
		for _, split := range p.Splits() {
			entry := fmt.Sprintf("%s %s -> %s", split.Date, split.Quantity.String(), split.NewQuantity.String())
			if split.FromSymbol != "" {
				entry += " from " + split.FromSymbol
			}
			d.Splits = append(d.Splits, entry)
		}

		out = append(out, d)
	}

	return out
}
