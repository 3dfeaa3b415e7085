// Package watch reruns a build function when watched files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of filesystem events into one rerun.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a watch loop.
type Options struct {
	// Paths are the files to watch.
	Paths []string
	// Debounce is how long to wait after the last event before rerunning
	// (default 100ms).
	Debounce time.Duration
	// Logger for rerun diagnostics (optional, uses discard if nil).
	Logger *slog.Logger
}

// Run executes fn once, then reruns it whenever one of the watched files is
// written, created, or renamed, until ctx is canceled. Rerun failures are
// logged and watching continues; only the initial run and watcher setup fail
// hard.
func Run(ctx context.Context, opts Options, fn func() error) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	if err := fn(); err != nil {
		return fmt.Errorf("initial run failed: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch parent directories rather than the files themselves: editors
	// often replace files on save, which drops inode-level watches.
	watched := make(map[string]bool, len(opts.Paths))
	dirs := make(map[string]bool)
	for _, p := range opts.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	// Reruns happen on timer goroutines; the mutex keeps them serialized.
	var runMu sync.Mutex
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := filepath.Base(event.Name)
			debounceTimer = time.AfterFunc(debounce, func() {
				runMu.Lock()
				defer runMu.Unlock()
				logger.Info("change detected", slog.String("file", name))
				if err := fn(); err != nil {
					logger.Error("rerun failed", slog.String("error", err.Error()))
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
