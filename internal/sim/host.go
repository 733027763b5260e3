package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/orrery/internal/flight"
	"github.com/starford/orrery/internal/metrics"
	"github.com/starford/orrery/internal/proximity"
)

// ErrStopped is returned for commands sent after the host loop has exited.
var ErrStopped = errors.New("simulation host stopped")

var landingStates = []string{
	string(proximity.StateFlying),
	string(proximity.StateApproaching),
	string(proximity.StateLanded),
}

type command struct {
	fn   func(*Simulation)
	done chan struct{}
}

// Host runs a Simulation on a single goroutine at a fixed tick rate. Input
// is accumulated between ticks, commands are applied between ticks, and the
// latest frame can be read from any goroutine.
type Host struct {
	sim      *Simulation
	input    *flight.Input
	cmds     chan command
	frame    atomic.Pointer[Frame]
	tick     time.Duration
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu          sync.Mutex
	subscribers []func(Frame)

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewHost wraps sim. The input must be the one whose ReleaseAll the
// simulation calls on pointer release.
func NewHost(cfg Config, s *Simulation, in *flight.Input, m *metrics.Metrics, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Host{
		sim:      s,
		input:    in,
		cmds:     make(chan command, max(cfg.CommandBuffer, 1)),
		tick:     cfg.TickInterval(),
		interval: cfg.FrameInterval.Std(),
		metrics:  m,
		logger:   logger,
		stopped:  make(chan struct{}),
	}
	f := s.Snapshot()
	h.frame.Store(&f)
	return h
}

// Input returns the shared input accumulator.
func (h *Host) Input() *flight.Input {
	return h.input
}

// Frame returns the latest published frame.
func (h *Host) Frame() Frame {
	return *h.frame.Load()
}

// Subscribe registers fn to receive frames at the publish interval. fn runs
// on the simulation goroutine and must not block.
func (h *Host) Subscribe(fn func(Frame)) {
	h.mu.Lock()
	h.subscribers = append(h.subscribers, fn)
	h.mu.Unlock()
}

// Do runs fn on the simulation goroutine between ticks and waits for it.
func (h *Host) Do(ctx context.Context, fn func(*Simulation)) error {
	c := command{fn: fn, done: make(chan struct{})}
	select {
	case h.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopped:
		return ErrStopped
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopped:
		return ErrStopped
	}
}

// Call runs fn on the simulation goroutine and returns its result.
func Call[T any](ctx context.Context, h *Host, fn func(*Simulation) T) (T, error) {
	var out T
	err := h.Do(ctx, func(s *Simulation) { out = fn(s) })
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Run ticks until ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	defer h.stop()
	defer h.sim.Shutdown()

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	h.logger.Info("simulation started", slog.Duration("tick", h.tick), slog.Duration("publish", h.interval))
	last := time.Now()
	var published time.Time
	landing := ""

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("simulation stopped")
			return nil
		case c := <-h.cmds:
			h.apply(c)
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			start := time.Now()
			f := h.sim.Tick(float32(dt.Seconds()), h.input.Drain())
			h.metrics.RecordTick(time.Since(start))
			h.frame.Store(&f)

			if s := string(f.Proximity.Landing); s != landing {
				landing = s
				h.metrics.SetLandingState(s, landingStates...)
			}
			if now.Sub(published) >= h.interval {
				published = now
				h.publish(f)
			}
		}
	}
}

func (h *Host) apply(c command) {
	defer close(c.done)
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("simulation command panicked", slog.String("panic", fmt.Sprint(r)))
		}
	}()
	c.fn(h.sim)
	f := h.sim.Snapshot()
	h.frame.Store(&f)
}

func (h *Host) publish(f Frame) {
	h.mu.Lock()
	subs := h.subscribers
	h.mu.Unlock()
	for _, fn := range subs {
		fn(f)
	}
}

func (h *Host) stop() {
	h.stopOnce.Do(func() { close(h.stopped) })
}

// Stopped is closed once Run has returned.
func (h *Host) Stopped() <-chan struct{} {
	return h.stopped
}
