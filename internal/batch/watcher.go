package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"invoicer/internal/logger"
)

// Watcher feeds order files dropped into a directory through a Runner.
type Watcher struct {
	runner *Runner
	dir    string

	// Debounce is how long the directory must stay quiet before the
	// collected files are processed. Writers rarely create a file in one event.
	Debounce time.Duration

	// OnRun, if set, receives the summary of every run.
	OnRun func(*Summary)

	log zerolog.Logger
}

// NewWatcher creates a Watcher for dir.
func NewWatcher(runner *Runner, dir string, debounce time.Duration) *Watcher {
	return &Watcher{
		runner:   runner,
		dir:      dir,
		Debounce: debounce,
		log:      logger.WithComponent("watcher"),
	}
}

// Run processes the files already present, then every new file until ctx is
// done. Runs never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.log.Info().Str("dir", w.dir).Dur("debounce", w.Debounce).Msg("Watching for order files")

	existing, err := FindInputFiles(w.dir)
	if err != nil {
		return err
	}
	w.run(ctx, existing)

	pending := make(map[string]struct{})
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !IsInputFile(filepath.Base(ev.Name)) {
				continue
			}
			pending[ev.Name] = struct{}{}
			fire = time.After(w.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("Watcher error")

		case <-fire:
			fire = nil
			files := make([]string, 0, len(pending))
			for path := range pending {
				if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
					files = append(files, path)
				}
			}
			pending = make(map[string]struct{})
			sort.Strings(files)
			w.run(ctx, files)
		}
	}
}

func (w *Watcher) run(ctx context.Context, files []string) {
	if len(files) == 0 {
		return
	}
	summary, err := w.runner.RunFiles(ctx, files)
	if err != nil {
		w.log.Error().Err(err).Int("files", len(files)).Msg("Run failed")
	}
	if summary != nil && w.OnRun != nil {
		w.OnRun(summary)
	}
}
