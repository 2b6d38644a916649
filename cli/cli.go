// Package cli implements the holdings command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/robinvdvleuten/holdings/config"
	"github.com/robinvdvleuten/holdings/metrics"
	"github.com/robinvdvleuten/holdings/output"
	"github.com/robinvdvleuten/holdings/pipeline"
	"github.com/robinvdvleuten/holdings/telemetry"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

// promptYesNo prompts the user with a yes/no question.
// Returns false by default if stdin is not a terminal.
func promptYesNo(question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var confirm bool

	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm)

	err := form.Run()
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	return confirm, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// session holds what one command invocation needs from the global flags: a
// context carrying the logger and telemetry, and the metrics registry.
type session struct {
	ctx     context.Context
	metrics *metrics.Registry

	stderr      io.Writer
	collector   telemetry.Collector
	root        telemetry.Timer
	metricsFile string
	once        sync.Once
}

// start builds the session for a command called name.
func (g *Globals) start(kctx *kong.Context, name string) (*session, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(g.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", g.LogLevel, err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: kctx.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	s := &session{
		ctx:         logger.WithContext(context.Background()),
		metrics:     metrics.New(),
		stderr:      kctx.Stderr,
		metricsFile: g.MetricsFile,
	}

	if g.Telemetry {
		s.collector = telemetry.NewTimingCollector(telemetry.WithStyles(output.NewStyles(kctx.Stderr)))
		s.ctx = telemetry.WithCollector(s.ctx, s.collector)

		s.root = s.collector.Start(name)
		s.ctx = telemetry.WithRootTimer(s.ctx, s.root)
	}

	return s, nil
}

// finish prints the telemetry report and writes the metrics file. It is safe to
// call more than once.
func (s *session) finish() error {
	var err error
	s.once.Do(func() {
		if s.collector != nil {
			s.root.End()
			_, _ = fmt.Fprintln(s.stderr)
			s.collector.Report(s.stderr)
		}
		if s.metricsFile != "" {
			err = s.metrics.WriteTextfile(s.metricsFile)
		}
	})
	return err
}

// loadManifest reads the manifest named by the global flags.
func (g *Globals) loadManifest() (*config.Config, error) {
	cfg, err := config.Load(g.Manifest)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// runAccounts runs the accounts of cfg, or only the named one.
func (s *session) runAccounts(cfg *config.Config, only string) ([]pipeline.AccountResult, []pipeline.AccountRun, error) {
	runs, err := cfg.Runs()
	if err != nil {
		return nil, nil, err
	}

	if only != "" {
		var selected []pipeline.AccountRun
		for _, run := range runs {
			if run.Name == only {
				selected = append(selected, run)
			}
		}
		if len(selected) == 0 {
			return nil, nil, fmt.Errorf("unknown account %q", only)
		}
		runs = selected
	}

	opts := append(cfg.Options(), pipeline.WithMetrics(s.metrics))
	return pipeline.RunAccounts(s.ctx, runs, opts...), runs, nil
}

// FileOrStdin accepts either a file path or "-" for stdin.
// For stdin: Filename="<stdin>", Contents populated.
// For files: Filename set, Contents nil (read on demand).
type FileOrStdin struct {
	Filename string
	Contents []byte
}

// Decode implements kong.MapperValue.
func (f *FileOrStdin) Decode(ctx *kong.DecodeContext) error {
	var filename string
	if err := ctx.Scan.PopValueInto("filename", &filename); err != nil {
		return err
	}

	if filename == "-" || filename == "" {
		contents, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		f.Filename = "<stdin>"
		f.Contents = contents
		return nil
	}

	if _, err := os.Stat(filename); err != nil {
		return err
	}
	f.Filename = filename
	f.Contents = nil

	return nil
}

// EnsureContents populates Contents from stdin if Filename is empty.
func (f *FileOrStdin) EnsureContents() error {
	if f.Filename == "" {
		contents, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		f.Filename = "<stdin>"
		f.Contents = contents
	}
	return nil
}

// GetSourceContent returns the document text.
func (f *FileOrStdin) GetSourceContent() ([]byte, error) {
	if f.Filename == "<stdin>" {
		return f.Contents, nil
	}
	return os.ReadFile(f.Filename)
}
