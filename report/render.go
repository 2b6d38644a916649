package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/output"
)

const columnGap = "  "

var headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

// Option configures a renderer.
type Option func(*renderer)

// WithCurrency formats money in the ISO 4217 currency code. Unknown codes fall
// back to USD.
func WithCurrency(code string) Option {
	return func(r *renderer) {
		if money.GetCurrency(code) != nil {
			r.currency = code
		}
	}
}

// WithStyles colours symbols and signed amounts.
func WithStyles(styles *output.Styles) Option {
	return func(r *renderer) {
		r.styles = styles
	}
}

type renderer struct {
	currency string
	styles   *output.Styles
}

func newRenderer(opts []Option) *renderer {
	r := &renderer{currency: money.USD}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// formatMoney formats d in the renderer currency, rounded to the currency's minor unit.
func (r *renderer) formatMoney(d decimal.Decimal) string {
	cur := money.GetCurrency(r.currency)
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, r.currency).Display()
}

func (r *renderer) symbol(text string) string {
	if r.styles == nil {
		return text
	}
	return r.styles.Symbol(text)
}

func (r *renderer) signed(text string, d decimal.Decimal) string {
	if r.styles == nil || d.IsZero() {
		return text
	}
	return r.styles.Signed(text, d.IsNegative())
}

// cell is one table value: the plain text used for alignment and an optional
// style applied after padding.
type cell struct {
	text  string
	left  bool
	style func(string) string
}

type table struct {
	header []string
	rows   [][]cell
}

func (t *table) write(w io.Writer) error {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c.text))
		}
	}

	header := make([]string, len(t.header))
	for i, h := range t.header {
		if i == 0 {
			header[i] = runewidth.FillRight(h, widths[i])
		} else {
			header[i] = runewidth.FillLeft(h, widths[i])
		}
	}
	if _, err := fmt.Fprintln(w, headerStyle.Render(strings.Join(header, columnGap))); err != nil {
		return err
	}

	for _, row := range t.rows {
		line := make([]string, len(row))
		for i, c := range row {
			padded := runewidth.FillLeft(c.text, widths[i])
			if c.left {
				padded = runewidth.FillRight(c.text, widths[i])
			}
			if c.style != nil {
				padded = c.style(padded)
			}
			line[i] = padded
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(line, columnGap), " ")); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) signedCell(d decimal.Decimal) cell {
	return cell{text: r.formatMoney(d), style: func(s string) string { return r.signed(s, d) }}
}

// WriteSummaryTable writes summaries as an aligned table followed by a total row.
func WriteSummaryTable(w io.Writer, summaries []Summary, opts ...Option) error {
	r := newRenderer(opts)
	t := &table{header: []string{"Symbol", "Open Qty", "Open Cost", "Proceeds", "Profit", "Interest", "Generated", "Gen. Interest"}}

	row := func(s Summary) []cell {
		return []cell{
			{text: s.Symbol, left: true, style: r.symbol},
			{text: s.OpenQuantity.String()},
			{text: r.formatMoney(s.OpenCostBasis)},
			{text: r.formatMoney(s.Proceeds)},
			r.signedCell(s.Profit),
			{text: s.Interest.String()},
			r.signedCell(s.Generated),
			{text: s.GenerationInterest.String()},
		}
	}

	for _, s := range summaries {
		t.rows = append(t.rows, row(s))
	}
	if len(summaries) > 1 {
		total := row(Total(summaries))
		total[1].text = ""
		t.rows = append(t.rows, total)
	}

	return t.write(w)
}

// WriteProjectionTable writes projections as an aligned table.
func WriteProjectionTable(w io.Writer, projections []Projection, opts ...Option) error {
	r := newRenderer(opts)
	t := &table{header: []string{"Symbol", "Qty", "Price", "Cost", "Value", "Unrealized", "Interest"}}

	for _, p := range projections {
		t.rows = append(t.rows, []cell{
			{text: p.Symbol, left: true, style: r.symbol},
			{text: p.Quantity.String()},
			{text: r.formatMoney(p.Price)},
			{text: r.formatMoney(p.CostBasis)},
			{text: r.formatMoney(p.MarketValue)},
			r.signedCell(p.Unrealized),
			{text: p.Interest.String()},
		})
	}

	return t.write(w)
}

// WriteLotsTable writes the open lots of one symbol.
func WriteLotsTable(w io.Writer, lots []ledger.OpenLot, opts ...Option) error {
	r := newRenderer(opts)
	t := &table{header: []string{"Lot", "Date", "Qty", "Unit Cost", "Cost"}}

	for _, lot := range lots {
		t.rows = append(t.rows, []cell{
			{text: fmt.Sprintf("#%d", lot.ActionID), left: true},
			{text: lot.Date.String()},
			{text: lot.Quantity.String()},
			{text: r.formatMoney(lot.UnitCost)},
			{text: r.formatMoney(lot.CostBasis())},
		})
	}

	return t.write(w)
}

// SummaryMarkdown returns summaries as a markdown document with one table.
func SummaryMarkdown(title string, summaries []Summary, opts ...Option) string {
	r := newRenderer(opts)

	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	b.WriteString("| Symbol | Open Qty | Open Cost | Proceeds | Profit | Interest | Generated | Gen. Interest |\n")
	b.WriteString("|:-------|---------:|----------:|---------:|-------:|---------:|----------:|--------------:|\n")

	for _, s := range summaries {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			s.Symbol,
			s.OpenQuantity.String(),
			r.formatMoney(s.OpenCostBasis),
			r.formatMoney(s.Proceeds),
			r.formatMoney(s.Profit),
			s.Interest.String(),
			r.formatMoney(s.Generated),
			s.GenerationInterest.String(),
		)
	}

	if len(summaries) > 1 {
		total := Total(summaries)
		fmt.Fprintf(&b, "| **%s** | | **%s** | **%s** | **%s** | | **%s** | |\n",
			total.Symbol,
			r.formatMoney(total.OpenCostBasis),
			r.formatMoney(total.Proceeds),
			r.formatMoney(total.Profit),
			r.formatMoney(total.Generated),
		)
	}

	return b.String()
}
