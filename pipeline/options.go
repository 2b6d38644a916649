package pipeline

import (
	"strings"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/metrics"
)

// Option configures parsing and merging.
type Option func(*options)

type options struct {
	aliases     map[string]string
	strict      bool
	account     string
	offsetCash  bool
	config      *ledger.Config
	metrics     *metrics.Registry
	concurrency int
}

func newOptions(opts []Option) *options {
	o := &options{
		aliases: map[string]string{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAliases maps old symbols to their canonical symbol. Keys and values are
// upper-cased.
func WithAliases(aliases map[string]string) Option {
	return func(o *options) {
		for from, to := range aliases {
			o.aliases[strings.ToUpper(strings.TrimSpace(from))] = strings.ToUpper(strings.TrimSpace(to))
		}
	}
}

// WithStrictAliases rejects activity symbols that are neither aliased, an alias
// target, nor already held.
func WithStrictAliases() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithAccount only applies rows for the given account number. It overrides the
// account of individual documents.
func WithAccount(number string) Option {
	return func(o *options) {
		o.account = strings.TrimSpace(number)
	}
}

// WithCashOffset books the cash side of every trade and generation on the CASH
// position: buys and fees draw cash down, sales and income add to it. Cash that
// was held before the statement must appear on it, for example by aliasing the
// core money market symbol to CASH.
func WithCashOffset() Option {
	return func(o *options) {
		o.offsetCash = true
	}
}

// WithConfig sets the ledger settings used for reporting alongside a run.
func WithConfig(cfg *ledger.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithMetrics records document and row counts to reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *options) {
		o.metrics = reg
	}
}

// WithConcurrency bounds how many accounts RunAccounts processes at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

func (o *options) accountFor(doc Document) string {
	if o.account != "" {
		return o.account
	}
	return doc.Account
}
