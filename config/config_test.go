package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/holdings/ledger"
	"github.com/robinvdvleuten/holdings/pipeline"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs/stmt.csv", "statement")
	writeFile(t, dir, "docs/activity.csv", "activity")
	path := writeFile(t, dir, "holdings.yaml", `
days_per_year: 365.25
concurrency: 2
accounts:
  - name: brokerage
    number: Z123
    strict_aliases: true
    offset_cash: true
    aliases:
      tup: tupbq
    documents:
      - path: docs/stmt.csv
        kind: statement
        date: 2024-01-31
      - path: docs/activity.csv
        kind: activity
        id: fixed-id
`)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, 2, cfg.Concurrency)
	assert.True(t, cfg.Ledger().DaysPerYear.Equal(decimal.RequireFromString("365.25")))

	account, ok := cfg.Account("brokerage")
	assert.True(t, ok)
	assert.True(t, account.StrictAliases)
	assert.True(t, account.OffsetCash)
	assert.Equal(t, 4, len(account.Options()))

	t.Run("Documents", func(t *testing.T) {
		docs, err := account.Documents()
		assert.NoError(t, err)
		assert.Equal(t, 2, len(docs))

		assert.Equal(t, pipeline.KindStatement, docs[0].Kind)
		assert.Equal(t, ledger.MustDate("2024-01-31"), docs[0].Date)
		assert.Equal(t, "Z123", docs[0].Account)
		assert.Equal(t, filepath.Join(dir, "docs/stmt.csv"), docs[0].Filename)
		assert.Equal(t, "statement", string(docs[0].Text))
		assert.Equal(t, DocumentID(filepath.Join(dir, "docs/stmt.csv")), docs[0].ID)

		assert.Equal(t, "fixed-id", docs[1].ID)
		assert.True(t, docs[1].Date.IsZero())
	})

	t.Run("Paths", func(t *testing.T) {
		assert.Equal(t, []string{
			path,
			filepath.Join(dir, "docs/stmt.csv"),
			filepath.Join(dir, "docs/activity.csv"),
		}, cfg.Paths())
	})

	t.Run("Runs", func(t *testing.T) {
		runs, err := cfg.Runs()
		assert.NoError(t, err)
		assert.Equal(t, 1, len(runs))
		assert.Equal(t, "brokerage", runs[0].Name)
		assert.Equal(t, 3, len(runs[0].Options))
	})
}

func TestLoadMissingDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "holdings.yaml", `
accounts:
  - name: brokerage
    documents:
      - path: missing.csv
        kind: statement
`)

	cfg, err := Load(path)
	assert.NoError(t, err)

	_, err = cfg.Runs()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{
			name:  "NoAccounts",
			input: "accounts: []\n",
			field: "accounts",
		},
		{
			name:  "NegativeDaysPerYear",
			input: "days_per_year: -1\naccounts:\n  - name: a\n    documents:\n      - {path: s.csv, kind: statement}\n",
			field: "days_per_year",
		},
		{
			name:  "NegativeConcurrency",
			input: "concurrency: -2\naccounts:\n  - name: a\n    documents:\n      - {path: s.csv, kind: statement}\n",
			field: "concurrency",
		},
		{
			name:  "MissingName",
			input: "accounts:\n  - documents:\n      - {path: s.csv, kind: statement}\n",
			field: "accounts[0].name",
		},
		{
			name:  "DuplicateName",
			input: "accounts:\n  - name: a\n    documents:\n      - {path: s.csv, kind: statement}\n  - name: a\n    documents:\n      - {path: s.csv, kind: statement}\n",
			field: "accounts[1].name",
		},
		{
			name:  "UnknownKind",
			input: "accounts:\n  - name: a\n    documents:\n      - {path: s.csv, kind: statement}\n      - {path: x.pdf, kind: invoice}\n",
			field: "accounts[0].documents[1].kind",
		},
		{
			name:  "MissingPath",
			input: "accounts:\n  - name: a\n    documents:\n      - {kind: statement}\n",
			field: "accounts[0].documents[0].path",
		},
		{
			name:  "BadDate",
			input: "accounts:\n  - name: a\n    documents:\n      - {path: s.csv, kind: statement, date: 01/31/2024}\n",
			field: "accounts[0].documents[0].date",
		},
		{
			name:  "NoStatement",
			input: "accounts:\n  - name: a\n    documents:\n      - {path: a.csv, kind: activity}\n",
			field: "accounts[0].documents",
		},
		{
			name:  "TwoStatements",
			input: "accounts:\n  - name: a\n    documents:\n      - {path: s.csv, kind: statement}\n      - {path: t.csv, kind: statement}\n",
			field: "accounts[0].documents",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.input))
			assert.Error(t, err)

			var fieldErr *FieldError
			assert.True(t, errors.As(err, &fieldErr), "expected a FieldError, got %v", err)
			assert.Equal(t, test.field, fieldErr.GetField())
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("acounts: []\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "acounts")
}

func TestParseDaysPerYear(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		cfg, err := Parse(Sample())
		assert.NoError(t, err)
		assert.True(t, cfg.Ledger().DaysPerYear.Equal(decimal.NewFromInt(365)))
	})

	t.Run("NotANumber", func(t *testing.T) {
		_, err := Parse([]byte("days_per_year: lots\naccounts: []\n"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not a number")
	})
}

func TestSample(t *testing.T) {
	cfg, err := Parse(Sample())
	assert.NoError(t, err)
	assert.Equal(t, "USD", cfg.Currency)

	account, ok := cfg.Account("brokerage")
	assert.True(t, ok)
	assert.Equal(t, "TUPBQ", account.Aliases["TUP"])
}

func TestDocumentIDIsStable(t *testing.T) {
	a := DocumentID("statements/one.csv")
	assert.Equal(t, a, DocumentID("statements/one.csv"))
	assert.NotEqual(t, a, DocumentID("statements/two.csv"))
}
