package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"golang.org/x/term"
)

const statementFixture = `Account Number,Z123
Stocks
Symbol/CUSIP,Description,Quantity,Price,Beginning Value,Ending Value,Cost Basis
AAA,AAA CORP,10,10.00,,,100.00
BBB,BBB CORP,4,20.00,,,80.00
Subtotal of Stocks,,,,,,
`

const activityFixture = `Run Date,Account,Action,Symbol,Quantity,Price,Amount
02/01/2024,Z123,YOU SOLD AAA CORP (AAA) (Cash),AAA,-4,15.00,60.00
02/15/2024,Z123,DIVIDEND RECEIVED BBB CORP (BBB) (Cash),BBB,,,2.00
`

const oversoldFixture = `Run Date,Account,Action,Symbol,Quantity,Price,Amount
02/01/2024,Z123,YOU SOLD AAA CORP (AAA) (Cash),AAA,-20,15.00,300.00
`

const manifestFixture = `accounts:
  - name: brokerage
    number: Z123
    documents:
      - path: Statement01312024.csv
        kind: statement
      - path: History.csv
        kind: activity
`

// workspace writes a manifest with one statement and one activity report.
func workspace(t *testing.T, activity string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"Statement01312024.csv": statementFixture,
		"History.csv":           activity,
		"holdings.yaml":         manifestFixture,
	} {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return filepath.Join(dir, "holdings.yaml")
}

// run parses args and runs the selected command with captured output.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var (
		cli            Commands
		stdout, stderr bytes.Buffer
	)
	parser, err := kong.New(&cli,
		kong.Name("holdings"),
		kong.Writers(&stdout, &stderr),
		kong.Bind(&cli.Globals),
		kong.Exit(func(int) {}),
	)
	assert.NoError(t, err)

	ctx, err := parser.Parse(args)
	if err != nil {
		return stdout.String(), stderr.String(), err
	}

	err = ctx.Run()
	return stdout.String(), stderr.String(), err
}

func TestCheckCmd(t *testing.T) {
	t.Run("Passes", func(t *testing.T) {
		manifest := workspace(t, activityFixture)

		stdout, _, err := run(t, "--manifest", manifest, "check")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "brokerage")
		assert.Contains(t, stdout, "applied")
		assert.Contains(t, stdout, "Statement01312024.csv")
		assert.Contains(t, stdout, "Check passed: 1 account(s), 2 document(s)")
	})

	t.Run("Oversold", func(t *testing.T) {
		manifest := workspace(t, oversoldFixture)

		stdout, stderr, err := run(t, "--manifest", manifest, "check")
		assert.Error(t, err)

		var cmdErr *CommandError
		assert.True(t, errors.As(err, &cmdErr))
		assert.Equal(t, 1, cmdErr.ExitCode())

		assert.Contains(t, stdout, "failed")
		assert.Contains(t, stderr, "cannot sell 20 of AAA, only 10 open")
		assert.Contains(t, stderr, " > 02/01/2024,Z123,YOU SOLD AAA CORP (AAA) (Cash),AAA,-20,15.00,300.00")
		assert.Contains(t, stderr, "1 of 1 account(s) failed")
	})

	t.Run("MissingManifest", func(t *testing.T) {
		_, stderr, err := run(t, "--manifest", filepath.Join(t.TempDir(), "nope.yaml"), "check")
		assert.Error(t, err)
		assert.Contains(t, stderr, "failed to read manifest")
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		manifest := workspace(t, activityFixture)

		_, stderr, err := run(t, "--manifest", manifest, "check", "--account", "savings")
		assert.Error(t, err)
		assert.Contains(t, stderr, `unknown account "savings"`)
	})

	t.Run("MetricsFile", func(t *testing.T) {
		manifest := workspace(t, activityFixture)
		metricsFile := filepath.Join(t.TempDir(), "holdings.prom")

		_, _, err := run(t, "--manifest", manifest, "--metrics-file", metricsFile, "check")
		assert.NoError(t, err)

		data, err := os.ReadFile(metricsFile)
		assert.NoError(t, err)
		assert.Contains(t, string(data), `holdings_documents_total{kind="activity",status="applied"} 1`)
		assert.Contains(t, string(data), `holdings_positions{account="brokerage"} 2`)
	})

	t.Run("Telemetry", func(t *testing.T) {
		manifest := workspace(t, activityFixture)

		_, stderr, err := run(t, "--manifest", manifest, "--telemetry", "check")
		assert.NoError(t, err)
		assert.Contains(t, stderr, "check")
		assert.Contains(t, stderr, "account brokerage")
	})

	t.Run("InvalidLogLevel", func(t *testing.T) {
		_, _, err := run(t, "--log-level", "loud", "check")
		assert.Error(t, err)
	})
}

func TestPositionsCmd(t *testing.T) {
	manifest := workspace(t, activityFixture)

	t.Run("Table", func(t *testing.T) {
		stdout, _, err := run(t, "--manifest", manifest, "positions")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "brokerage as of 2024-02-15")
		assert.Contains(t, stdout, "AAA")
		assert.Contains(t, stdout, "$60.00")
		assert.Contains(t, stdout, "$20.00")
		assert.Contains(t, stdout, "$2.00")
		assert.Contains(t, stdout, "TOTAL")
	})

	t.Run("Markdown", func(t *testing.T) {
		stdout, _, err := run(t, "--manifest", manifest, "positions", "--markdown")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "brokerage")
		assert.Contains(t, stdout, "AAA")
		assert.Contains(t, stdout, "BBB")
	})

	t.Run("FailedAccountKeepsLastGoodLedger", func(t *testing.T) {
		manifest := workspace(t, oversoldFixture)

		stdout, stderr, err := run(t, "--manifest", manifest, "positions")
		assert.NoError(t, err)
		assert.Contains(t, stderr, "brokerage:")
		assert.Contains(t, stdout, "brokerage as of 2024-01-31")
		assert.Contains(t, stdout, "$100.00")
	})
}

func TestLotsCmd(t *testing.T) {
	manifest := workspace(t, activityFixture)

	t.Run("AllSymbols", func(t *testing.T) {
		stdout, _, err := run(t, "--manifest", manifest, "lots", "--account", "brokerage")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "AAA")
		assert.Contains(t, stdout, "BBB")
		assert.Contains(t, stdout, "2024-01-31")
		assert.Contains(t, stdout, "$10.00")
	})

	t.Run("OneSymbol", func(t *testing.T) {
		stdout, _, err := run(t, "--manifest", manifest, "lots", "-a", "brokerage", "--symbol", "bbb")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "BBB")
		assert.False(t, strings.Contains(stdout, "AAA"))
	})

	t.Run("AsOfBeforeStatement", func(t *testing.T) {
		stdout, _, err := run(t, "--manifest", manifest, "lots", "-a", "brokerage", "--as-of", "2023-12-31")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "No open lots")
	})

	t.Run("AccountRequired", func(t *testing.T) {
		_, _, err := run(t, "--manifest", manifest, "lots")
		assert.Error(t, err)
	})
}

func TestProjectCmd(t *testing.T) {
	manifest := workspace(t, activityFixture)

	t.Run("Priced", func(t *testing.T) {
		stdout, _, err := run(t, "--manifest", manifest, "project", "--price", "AAA=12", "--as-of", "2024-03-01")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "as of 2024-03-01")
		assert.Contains(t, stdout, "$72.00")
		assert.Contains(t, stdout, "$12.00")
		assert.False(t, strings.Contains(stdout, "BBB"))
	})

	t.Run("InvalidPrice", func(t *testing.T) {
		_, _, err := run(t, "--manifest", manifest, "project", "--price", "AAA=cheap")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid price for AAA")
	})

	t.Run("NegativePrice", func(t *testing.T) {
		_, _, err := run(t, "--manifest", manifest, "project", "--price", "AAA=-1")
		assert.Error(t, err)
	})
}

func TestDumpCmd(t *testing.T) {
	manifest := workspace(t, activityFixture)

	t.Run("JSON", func(t *testing.T) {
		stdout, _, err := run(t, "--manifest", manifest, "dump", "-a", "brokerage", "--json")
		assert.NoError(t, err)

		var decoded map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
		assert.Contains(t, stdout, `"AAA"`)
	})

	t.Run("Repr", func(t *testing.T) {
		stdout, _, err := run(t, "--manifest", manifest, "dump", "-a", "brokerage")
		assert.NoError(t, err)
		assert.Contains(t, stdout, `Symbol: "AAA"`)
		assert.Contains(t, stdout, `Kind: "dividend"`)
	})
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "holdings.yaml")

	stdout, _, err := run(t, "init", path)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Wrote sample manifest")

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "accounts:")

	t.Run("ExistingWithoutForce", func(t *testing.T) {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			t.Skip("stdin is a terminal, the overwrite prompt would block")
		}
		_, _, err := run(t, "init", path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("ExistingWithForce", func(t *testing.T) {
		assert.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

		_, _, err := run(t, "init", "--force", path)
		assert.NoError(t, err)

		data, err := os.ReadFile(path)
		assert.NoError(t, err)
		assert.NotEqual(t, "old", string(data))
	})

	t.Run("DefaultsToManifestFlag", func(t *testing.T) {
		manifest := filepath.Join(t.TempDir(), "custom.yaml")

		_, _, err := run(t, "--manifest", manifest, "init")
		assert.NoError(t, err)

		_, err = os.Stat(manifest)
		assert.NoError(t, err)
	})
}

func TestDoctorCmd(t *testing.T) {
	manifest := workspace(t, activityFixture)
	dir := filepath.Dir(manifest)

	t.Run("Rows", func(t *testing.T) {
		stdout, _, err := run(t, "doctor", "rows", filepath.Join(dir, "History.csv"))
		assert.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		assert.Equal(t, 2, len(lines))
		assert.Contains(t, lines[0], "sell")
		assert.Contains(t, lines[0], "AAA")
		assert.Contains(t, lines[1], "dividend")
		assert.Contains(t, lines[1], "2")
	})

	t.Run("RowsParseError", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.csv")
		assert.NoError(t, os.WriteFile(path, []byte("Run Date,Action\n02/01/2024,SOMETHING ODD\n"), 0o644))

		_, stderr, err := run(t, "doctor", "rows", path)
		assert.Error(t, err)
		assert.Contains(t, stderr, "unknown-action")
		assert.Contains(t, stderr, "parse error")
	})

	t.Run("Holdings", func(t *testing.T) {
		stdout, _, err := run(t, "doctor", "holdings", filepath.Join(dir, "Statement01312024.csv"))
		assert.NoError(t, err)
		assert.Contains(t, stdout, "Statement dated 2024-01-31")
		assert.Contains(t, stdout, "AAA")
		assert.Contains(t, stdout, "Z123")
	})
}

func TestPromptYesNo(t *testing.T) {
	t.Run("NonTTYReturnsFalse", func(t *testing.T) {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			t.Skip("stdin is a terminal")
		}

		confirmed, err := promptYesNo("Continue?")
		assert.NoError(t, err)
		assert.False(t, confirmed)
	})
}

func TestParsePrices(t *testing.T) {
	prices, err := parsePrices(map[string]string{"aaa": "$12.50", " bbb ": "3"})
	assert.NoError(t, err)
	assert.Equal(t, "12.5", prices["AAA"].String())
	assert.Equal(t, "3", prices["BBB"].String())
}
