package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

type WatchCmd struct {
	Account  string        `help:"Only check this account." short:"a"`
	Debounce time.Duration `help:"Wait this long after the last change before re-running." default:"200ms"`
}

func (cmd *WatchCmd) Run(ctx *kong.Context, globals *Globals) error {
	s, err := globals.start(ctx, "watch")
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(s.ctx, os.Interrupt)
	defer stop()
	s.ctx = runCtx

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	w := &watch{
		session: s,
		globals: globals,
		account: cmd.Account,
		kctx:    ctx,
		watcher: watcher,
		watched: map[string]bool{},
	}
	w.pass()

	printInfof(ctx.Stdout, "Watching %s for changes", pathStyle.Render(globals.Manifest))
	w.loop(runCtx, cmd.Debounce)

	return s.finish()
}

// watch re-runs check when a watched file changes.
type watch struct {
	session *session
	globals *Globals
	account string
	kctx    *kong.Context
	watcher *fsnotify.Watcher
	watched map[string]bool
}

// pass runs one check and refreshes the watch list, since the manifest may
// name different documents now.
func (w *watch) pass() {
	log := zerolog.Ctx(w.session.ctx)

	check(w.session, w.kctx.Stdout, w.kctx.Stderr, w.globals, w.account)

	paths := []string{w.globals.Manifest}
	if cfg, err := w.globals.loadManifest(); err == nil {
		paths = cfg.Paths()
	}

	current := make(map[string]bool, len(paths))
	for _, path := range paths {
		current[path] = true
		// Re-add to catch files re-created by atomic saves.
		if err := w.watcher.Add(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to watch file")
		}
	}
	for path := range w.watched {
		if !current[path] {
			_ = w.watcher.Remove(path)
		}
	}
	w.watched = current
}

// loop processes file system events with debouncing until ctx is done.
func (w *watch) loop(ctx context.Context, debounce time.Duration) {
	log := zerolog.Ctx(ctx)

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Remove and rename are common in atomic saves.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("file changed")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			log.Info().Msg("reloading")
			_, _ = fmt.Fprintln(w.kctx.Stdout)
			w.pass()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("file watcher error")
		}
	}
}
