package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry   bool   `help:"Show timing telemetry for operations."`
	Manifest    string `help:"Manifest listing accounts and their documents." short:"m" default:"holdings.yaml" type:"path"`
	LogLevel    string `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"warn"`
	MetricsFile string `help:"Write Prometheus metrics in textfile format to this path." type:"path"`
}

type Commands struct {
	Globals

	Check     CheckCmd     `cmd:"" help:"Run every account and report the outcome of each document."`
	Positions PositionsCmd `cmd:"" help:"Show the realized summary of every position."`
	Lots      LotsCmd      `cmd:"" help:"Show the open lots of an account."`
	Project   ProjectCmd   `cmd:"" help:"Value open lots at given prices."`
	Dump      DumpCmd      `cmd:"" help:"Dump the ledger of an account."`
	Watch     WatchCmd     `cmd:"" help:"Re-run check whenever the manifest or a document changes."`
	Init      InitCmd      `cmd:"" help:"Write a sample manifest."`
	Doctor    DoctorCmd    `cmd:"" help:"Doctor utilities for debugging broker documents."`
}
