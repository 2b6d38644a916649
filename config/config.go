// Package config loads the YAML manifest that lists accounts, their symbol
// aliases and the broker documents to process for each of them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/pipeline"
)

// DefaultPath is the manifest looked up when none is given.
const DefaultPath = "holdings.yaml"

// Config is a parsed manifest.
type Config struct {
	DaysPerYear Decimal   `yaml:"days_per_year,omitempty"`
	Concurrency int       `yaml:"concurrency,omitempty"`
	Currency    string    `yaml:"currency,omitempty"`
	Accounts    []Account `yaml:"accounts"`

	path string
}

// Account is one holding account and its documents.
type Account struct {
	Name          string            `yaml:"name"`
	Number        string            `yaml:"number,omitempty"`
	StrictAliases bool              `yaml:"strict_aliases,omitempty"`
	OffsetCash    bool              `yaml:"offset_cash,omitempty"`
	Aliases       map[string]string `yaml:"aliases,omitempty"`
	Documents     []DocumentSpec    `yaml:"documents"`

	dir string
}

// DocumentSpec points at one extracted broker document.
type DocumentSpec struct {
	Path string `yaml:"path"`
	Kind string `yaml:"kind"`
	Date string `yaml:"date,omitempty"`
	ID   string `yaml:"id,omitempty"`
}

// Decimal is a decimal written as a plain YAML number, kept exact.
type Decimal struct {
	decimal.Decimal
	set bool
}

// UnmarshalYAML parses the scalar text rather than a float.
func (d *Decimal) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", value.Line)
	}
	parsed, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %q is not a number", value.Line, value.Value)
	}
	d.Decimal = parsed
	d.set = true
	return nil
}

// MarshalYAML writes the decimal as a number.
func (d Decimal) MarshalYAML() (interface{}, error) {
	if !d.set {
		return nil, nil
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: d.String()}, nil
}

// IsZero lets omitempty drop an unset value.
func (d Decimal) IsZero() bool {
	return !d.set
}

// FieldError reports an invalid manifest field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// GetField returns the dotted path of the offending field.
func (e *FieldError) GetField() string {
	return e.Field
}

// Load reads and validates the manifest at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.path = path
	dir := filepath.Dir(path)
	for i := range cfg.Accounts {
		cfg.Accounts[i].dir = dir
	}

	return cfg, nil
}

// Parse decodes and validates a manifest. Relative document paths resolve
// against the working directory until the manifest is loaded from a file.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every field and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	fail := func(field, format string, args ...interface{}) {
		errs = append(errs, &FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.DaysPerYear.set && !c.DaysPerYear.IsPositive() {
		fail("days_per_year", "must be positive, got %s", c.DaysPerYear.String())
	}
	if c.Concurrency < 0 {
		fail("concurrency", "must not be negative, got %d", c.Concurrency)
	}
	if len(c.Accounts) == 0 {
		fail("accounts", "at least one account is required")
	}

	names := map[string]bool{}
	for i, account := range c.Accounts {
		prefix := fmt.Sprintf("accounts[%d]", i)

		switch {
		case strings.TrimSpace(account.Name) == "":
			fail(prefix+".name", "is required")
		case names[account.Name]:
			fail(prefix+".name", "duplicate account %q", account.Name)
		}
		names[account.Name] = true

		for from, to := range account.Aliases {
			if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
				fail(prefix+".aliases", "empty symbol in %q: %q", from, to)
			}
		}

		statements := 0
		for j, doc := range account.Documents {
			field := fmt.Sprintf("%s.documents[%d]", prefix, j)

			if doc.Path == "" {
				fail(field+".path", "is required")
			}
			kind, err := pipeline.ParseKind(doc.Kind)
			if err != nil {
				fail(field+".kind", "%v", err)
			}
			if kind == pipeline.KindStatement {
				statements++
			}
			if doc.Date != "" {
				if _, err := ledger.NewDate(doc.Date); err != nil {
					fail(field+".date", "expected YYYY-MM-DD, got %q", doc.Date)
				}
			}
		}
		if statements != 1 {
			fail(prefix+".documents", "exactly one statement is required, found %d", statements)
		}
	}

	return errors.Join(errs...)
}

// Path returns the file the manifest was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Ledger returns the ledger settings of the manifest.
func (c *Config) Ledger() *ledger.Config {
	cfg := ledger.NewConfig()
	if c.DaysPerYear.set {
		cfg.DaysPerYear = c.DaysPerYear.Decimal
	}
	return cfg
}

// Account returns the account called name.
func (c *Config) Account(name string) (*Account, bool) {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name {
			return &c.Accounts[i], true
		}
	}
	return nil, false
}

// Options returns the pipeline options shared by every account.
func (c *Config) Options() []pipeline.Option {
	opts := []pipeline.Option{pipeline.WithConfig(c.Ledger())}
	if c.Concurrency > 0 {
		opts = append(opts, pipeline.WithConcurrency(c.Concurrency))
	}
	return opts
}

// Runs reads the documents of every account.
func (c *Config) Runs() ([]pipeline.AccountRun, error) {
	runs := make([]pipeline.AccountRun, 0, len(c.Accounts))
	for i := range c.Accounts {
		run, err := c.Accounts[i].Run()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Paths returns the manifest and every document it lists.
func (c *Config) Paths() []string {
	var paths []string
	if c.path != "" {
		paths = append(paths, c.path)
	}
	for _, account := range c.Accounts {
		for _, doc := range account.Documents {
			paths = append(paths, account.resolve(doc.Path))
		}
	}
	return paths
}

func (a *Account) resolve(path string) string {
	if filepath.IsAbs(path) || a.dir == "" {
		return path
	}
	return filepath.Join(a.dir, path)
}

// Options returns the pipeline options of the account.
func (a *Account) Options() []pipeline.Option {
	var opts []pipeline.Option
	if len(a.Aliases) > 0 {
		opts = append(opts, pipeline.WithAliases(a.Aliases))
	}
	if a.StrictAliases {
		opts = append(opts, pipeline.WithStrictAliases())
	}
	if a.OffsetCash {
		opts = append(opts, pipeline.WithCashOffset())
	}
	if a.Number != "" {
		opts = append(opts, pipeline.WithAccount(a.Number))
	}
	return opts
}

// Documents reads every document of the account. A document without an id gets
// one derived from its path, so ids are stable between runs.
func (a *Account) Documents() ([]pipeline.Document, error) {
	docs := make([]pipeline.Document, 0, len(a.Documents))
	for _, spec := range a.Documents {
		path := a.resolve(spec.Path)

		text, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}

		kind, err := pipeline.ParseKind(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		var date ledger.Date
		if spec.Date != "" {
			if date, err = ledger.NewDate(spec.Date); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}

		id := spec.ID
		if id == "" {
			id = DocumentID(path)
		}

		docs = append(docs, pipeline.Document{
			ID:       id,
			Kind:     kind,
			Date:     date,
			Account:  a.Number,
			Filename: path,
			Text:     text,
		})
	}
	return docs, nil
}

// Run reads the documents and bundles them with the account options.
func (a *Account) Run() (pipeline.AccountRun, error) {
	docs, err := a.Documents()
	if err != nil {
		return pipeline.AccountRun{}, fmt.Errorf("account %s: %w", a.Name, err)
	}
	return pipeline.AccountRun{Name: a.Name, Documents: docs, Options: a.Options()}, nil
}

// DocumentID derives a stable id from a document path.
func DocumentID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))).String()
}
