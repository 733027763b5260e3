// Package galaxy owns the current repository snapshot: the tree, its layout
// and the node catalogue. It is also the file backend of the editor.
package galaxy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/orrery/internal/index"
	"github.com/starford/orrery/internal/layout"
	"github.com/starford/orrery/internal/metrics"
	"github.com/starford/orrery/internal/models"
	"github.com/starford/orrery/internal/storage"
	"github.com/starford/orrery/internal/tree"
)

// Snapshot is one fully computed galaxy. It is never mutated after it has
// been published.
type Snapshot struct {
	Version  uint64
	LoadedAt time.Time
	Root     *models.Folder
	Nodes    map[string]models.Node
	Layout   *layout.Layout
	Folders  int
	Files    int
	Bytes    int64
	MaxDepth int
}

// ReloadFunc is called after every successful reload.
type ReloadFunc func(*Snapshot)

// Option configures a Service.
type Option func(*Service)

// WithStore enables file reads and writes against a repository on disk.
func WithStore(store storage.Provider) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithCatalog keeps a node catalogue in sync for search and statistics.
func WithCatalog(db *index.DB) Option {
	return func(s *Service) {
		s.db = db
	}
}

// WithMetrics records reload outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// Service coordinates loading, cataloguing and layout.
type Service struct {
	source  Source
	engine  *layout.Engine
	store   storage.Provider
	db      *index.DB
	metrics *metrics.Metrics
	logger  *slog.Logger

	reloadMu sync.Mutex

	mu        sync.RWMutex
	snap      *Snapshot
	version   uint64
	listeners []ReloadFunc
}

// NewService creates a service with an empty galaxy; call Reload to load
// the repository.
func NewService(source Source, engine *layout.Engine, opts ...Option) *Service {
	s := &Service{source: source, engine: engine, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	l, _ := engine.Compute(nil)
	s.snap = &Snapshot{Root: tree.NewRoot(), Nodes: map[string]models.Node{}, Layout: l}
	return s
}

// OnReload registers fn to run after every successful reload.
func (s *Service) OnReload(fn ReloadFunc) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Snapshot returns the current snapshot.
func (s *Service) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Reload rebuilds the galaxy from the source in full. On failure the
// previous snapshot stays current.
func (s *Service) Reload(ctx context.Context) (*Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	snap, err := s.build(ctx)
	if err != nil {
		s.metrics.RecordReload(err, 0, 0)
		s.logger.Error("galaxy: reload failed",
			slog.String("source", s.source.Describe()),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.mu.Lock()
	s.version++
	snap.Version = s.version
	s.snap = snap
	listeners := s.listeners
	s.mu.Unlock()

	s.metrics.RecordReload(nil, snap.Folders, snap.Files)
	s.logger.Info("galaxy: reloaded",
		slog.Uint64("version", snap.Version),
		slog.Int("folders", snap.Folders),
		slog.Int("files", snap.Files),
		slog.String("strategy", snap.Layout.Strategy),
		slog.Duration("elapsed", time.Since(start)))

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

func (s *Service) build(ctx context.Context) (*Snapshot, error) {
	root, err := s.source.Load()
	if err != nil {
		return nil, fmt.Errorf("galaxy: load: %w", err)
	}
	if root == nil {
		root = tree.NewRoot()
	}
	if err := tree.Validate(root); err != nil {
		return nil, fmt.Errorf("galaxy: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.db != nil {
		if _, err := index.Sync(s.db, root, s.logger); err != nil {
			// Search degrades; the galaxy itself is still usable.
			s.logger.Warn("galaxy: catalogue sync failed", slog.String("error", err.Error()))
		}
	}

	l, err := s.engine.Compute(root)
	if err != nil {
		return nil, fmt.Errorf("galaxy: layout: %w", err)
	}

	snap := &Snapshot{
		LoadedAt: time.Now(),
		Root:     root,
		Nodes:    tree.Flatten(root),
		Layout:   l,
	}
	_ = tree.Walk(root, func(n models.Node, depth int) error {
		switch n := n.(type) {
		case *models.File:
			snap.Files++
			snap.Bytes += n.Size
		case *models.Folder:
			if depth > 0 {
				snap.Folders++
			}
		}
		snap.MaxDepth = max(snap.MaxDepth, depth)
		return nil
	})
	return snap, nil
}
