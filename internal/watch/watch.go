// Package watch reruns a callback when any of a set of files changes.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before the
// callback runs.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a watch loop.
type Options struct {
	// Paths are the files to watch. Their directories are watched so that
	// editors that replace files by renaming are still seen.
	Paths []string

	// Debounce coalesces bursts of events. Zero uses DefaultDebounce.
	Debounce time.Duration

	// OnChange runs after each burst of events. Its errors are logged and
	// the loop continues.
	OnChange func(ctx context.Context) error

	Logger *slog.Logger
}

// Run watches until ctx is done. It returns nil on cancellation and an
// error only if the watcher cannot be set up or fails.
func Run(ctx context.Context, opts Options) error {
	if opts.OnChange == nil {
		return fmt.Errorf("watch: OnChange is nil")
	}
	if len(opts.Paths) == 0 {
		return fmt.Errorf("watch: no paths")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	files := make(map[string]bool, len(opts.Paths))
	dirs := make(map[string]bool)
	for _, p := range opts.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
		logger.Debug("watching", "dir", dir)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)

		case <-timer.C:
			start := time.Now()
			if err := opts.OnChange(ctx); err != nil {
				logger.Error("regenerate failed", "error", err)
				continue
			}
			logger.Info("regenerated", "duration", time.Since(start))
		}
	}
}
