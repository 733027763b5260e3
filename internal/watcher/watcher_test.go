package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) record(c Change) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.changes)
}

func (r *recorder) saw(path string) bool {
	for _, c := range r.snapshot() {
		if slices.Contains(c.Paths, path) {
			return true
		}
	}
	return false
}

func startWatch(t *testing.T, root string, opts Options) *recorder {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	rec := &recorder{}
	go func() {
		defer close(done)
		_ = Watch(ctx, root, opts, logger, rec.record)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return rec
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_BurstIsDebounced(t *testing.T) {
	root := t.TempDir()
	rec := startWatch(t, root, Options{Debounce: 300 * time.Millisecond})

	for i := range 5 {
		_ = os.WriteFile(filepath.Join(root, "a.txt"), []byte{byte('a' + i)}, 0o644)
		time.Sleep(20 * time.Millisecond)
	}
	_ = os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool { return rec.saw("b.txt") },
		"expected a change batch containing b.txt")
	time.Sleep(500 * time.Millisecond)

	changes := rec.snapshot()
	if len(changes) != 1 {
		t.Fatalf("expected one debounced batch, got %d: %+v", len(changes), changes)
	}
	if !slices.Equal(changes[0].Paths, []string{"a.txt", "b.txt"}) {
		t.Errorf("paths = %v", changes[0].Paths)
	}
	if changes[0].Events < 2 {
		t.Errorf("events = %d", changes[0].Events)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	rec := startWatch(t, root, Options{Debounce: 50 * time.Millisecond})

	sub := filepath.Join(root, "subdir")
	_ = os.MkdirAll(sub, 0o755)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool { return rec.saw("subdir") },
		"directory creation not reported")

	_ = os.WriteFile(filepath.Join(sub, "deep.go"), []byte("package deep"), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool { return rec.saw("subdir/deep.go") },
		"file in new subdir not reported")
}

func TestWatcher_IgnoredDirsSkipped(t *testing.T) {
	root := t.TempDir()
	_ = os.MkdirAll(filepath.Join(root, ".git"), 0o755)
	rec := startWatch(t, root, Options{
		Debounce: 50 * time.Millisecond,
		Ignored:  func(name string) bool { return name == ".git" },
	})

	_ = os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool { return rec.saw("main.go") },
		"expected main.go change")
	for _, c := range rec.snapshot() {
		for _, p := range c.Paths {
			if p == ".git" || p == ".git/HEAD" {
				t.Errorf("ignored path reported: %s", p)
			}
		}
	}
}

func TestWatcher_DeleteReported(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "del.txt")
	_ = os.WriteFile(p, []byte("x"), 0o644)
	rec := startWatch(t, root, Options{Debounce: 50 * time.Millisecond})

	_ = os.Remove(p)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool { return rec.saw("del.txt") },
		"deletion not reported")
}

func TestIgnoredPath(t *testing.T) {
	ign := func(name string) bool { return name == "node_modules" }
	cases := map[string]bool{
		".":                     false,
		"src/main.go":           false,
		"node_modules":          true,
		"web/node_modules/x.js": true,
		"../outside":            true,
	}
	for rel, want := range cases {
		if got := ignoredPath(rel, ign); got != want {
			t.Errorf("ignoredPath(%q) = %v, want %v", rel, got, want)
		}
	}
}
