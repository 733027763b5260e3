package layout

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/starford/orrery/internal/models"
)

// Strategy places a whole tree. Implementations must terminate and keep
// sibling folders apart and children outside their parents.
type Strategy interface {
	Name() string
	Place(root *models.Folder) *Layout
}

// Observer receives the duration of each layout run.
type Observer func(strategy string, elapsed time.Duration)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithObserver sets the run-duration observer.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observe = o
	}
}

// WithStrategy registers an additional strategy under its name.
func WithStrategy(s Strategy) EngineOption {
	return func(e *Engine) {
		e.strategies[s.Name()] = s
	}
}

// Engine selects a strategy and runs it.
type Engine struct {
	cfg        Config
	logger     *slog.Logger
	observe    Observer
	strategies map[string]Strategy
}

// NewEngine creates an engine with the spiral and force strategies.
func NewEngine(cfg Config, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		cfg:    cfg,
		logger: logger,
		strategies: map[string]Strategy{
			StrategySpiral: NewSpiral(cfg),
			StrategyForce:  NewForce(cfg),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategies lists the registered strategy names.
func (e *Engine) Strategies() []string {
	names := make([]string, 0, len(e.strategies))
	for n := range e.strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Compute lays out root with the configured strategy.
func (e *Engine) Compute(root *models.Folder) (*Layout, error) {
	return e.ComputeWith(e.cfg.Strategy, root)
}

// ComputeWith lays out root with the named strategy. A nil root yields an
// empty layout.
func (e *Engine) ComputeWith(name string, root *models.Folder) (*Layout, error) {
	s, ok := e.strategies[name]
	if !ok {
		return nil, fmt.Errorf("layout: unknown strategy %q", name)
	}
	start := time.Now()
	l := s.Place(root)
	elapsed := time.Since(start)
	if e.observe != nil {
		e.observe(name, elapsed)
	}
	e.logger.Debug("layout computed",
		slog.String("strategy", name),
		slog.Int("folders", len(l.Folders)),
		slog.Int("files", len(l.Files)),
		slog.Int("iterations", l.Stats.Iterations),
		slog.Bool("converged", l.Stats.Converged),
		slog.Duration("elapsed", elapsed))
	return l, nil
}
