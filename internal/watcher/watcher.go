// Package watcher turns file-system events under a repository root into
// debounced change notifications.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Change is one debounced batch of events.
type Change struct {
	// Paths are slash-separated, relative to the root, sorted and unique.
	Paths  []string
	Events int
}

// Callback receives each debounced batch on the watcher goroutine.
type Callback func(Change)

// Options configures Watch.
type Options struct {
	Debounce time.Duration
	// Ignored reports whether a file or directory name is skipped.
	Ignored func(name string) bool
}

// Watch starts an fsnotify watcher on root and reports batches of changes
// until ctx is cancelled. Events are coalesced until no new event has
// arrived for the debounce interval.
//
// New directories created at runtime are automatically added to the watch
// list. Ignored directories are never watched.
func Watch(ctx context.Context, root string, opts Options, logger *slog.Logger, cb Callback) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Ignored == nil {
		opts.Ignored = func(string) bool { return false }
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root, opts.Ignored); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root), slog.Duration("debounce", opts.Debounce))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := map[string]struct{}{}
	events := 0

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			fire = timer.C
		} else {
			timer.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer, fire = nil, nil
			if len(pending) == 0 {
				continue
			}
			change := Change{Paths: make([]string, 0, len(pending)), Events: events}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			slices.Sort(change.Paths)
			clear(pending)
			events = 0
			logger.Debug("watcher: change", slog.Int("paths", len(change.Paths)), slog.Int("events", change.Events))
			if cb != nil {
				cb(change)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil || ignoredPath(rel, opts.Ignored) {
				continue
			}

			// New directories join the watch list; files already inside
			// are covered by the reload the batch triggers.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name, opts.Ignored); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}

			pending[filepath.ToSlash(rel)] = struct{}{}
			events++
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func ignoredPath(rel string, ignored func(string) bool) bool {
	if rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == ".." || ignored(part) {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its non-ignored subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string, ignored func(string) bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
