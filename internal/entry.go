// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/orrery/internal/api"
	"github.com/starford/orrery/internal/flight"
	"github.com/starford/orrery/internal/galaxy"
	"github.com/starford/orrery/internal/index"
	"github.com/starford/orrery/internal/layout"
	"github.com/starford/orrery/internal/mcpserver"
	"github.com/starford/orrery/internal/metrics"
	"github.com/starford/orrery/internal/sim"
	"github.com/starford/orrery/internal/sse"
	"github.com/starford/orrery/internal/storage"
	"github.com/starford/orrery/internal/watcher"
)

// GalaxyEvent is the payload of galaxy.updated events.
type GalaxyEvent struct {
	Version uint64 `json:"version"`
	Folders int    `json:"folders"`
	Files   int    `json:"files"`
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", output: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(level slog.Level, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// galaxyDeps are the pieces behind a galaxy service.
type galaxyDeps struct {
	svc   *galaxy.Service
	store *storage.FS
	db    *index.DB
}

func (d *galaxyDeps) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}
}

// openGalaxy builds the galaxy service from the repo, sqlite and layout
// sections. The caller must Close the result.
func (a *application) openGalaxy(logger *slog.Logger, m *metrics.Metrics) (*galaxyDeps, error) {
	cfg := a.config
	deps := &galaxyDeps{}
	opts := []galaxy.Option{galaxy.WithLogger(logger), galaxy.WithMetrics(m)}

	if cfg.Repo.Path != "" {
		store, err := storage.NewFS(cfg.Repo.Path, cfg.Repo.Ignore...)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		deps.store = store
		opts = append(opts, galaxy.WithStore(store))
	}

	if cfg.SQLite.Enabled() {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		deps.db = db
		opts = append(opts, galaxy.WithCatalog(db))
	}

	var source galaxy.Source
	if cfg.Repo.Manifest != "" {
		source = galaxy.ManifestSource{Path: cfg.Repo.Manifest}
	} else {
		source = galaxy.DirSource{Store: deps.store, Label: deps.store.Root()}
	}

	engine := layout.NewEngine(cfg.Layout, logger, layout.WithObserver(m.ObserveLayout))
	deps.svc = galaxy.NewService(source, engine, opts...)
	return deps, nil
}

// Run starts the HTTP server, the simulation host and the repository
// watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(cfg.App.LogLevel, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("repo_path", cfg.Repo.Path),
		slog.String("repo_manifest", cfg.Repo.Manifest),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("layout_strategy", cfg.Layout.Strategy),
		slog.String("log_level", cfg.App.LogLevel.String()))

	m := metrics.New()

	deps, err := app.openGalaxy(logger, m)
	if err != nil {
		return err
	}
	defer deps.Close()
	svc := deps.svc

	// Initial load. A broken tree at startup is fatal; later reload
	// failures keep the previous galaxy.
	snap, err := svc.Reload(ctx)
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	// Simulation.
	input := &flight.Input{}
	simulation := sim.New(cfg.Sim, cfg.Flight, cfg.Proximity, svc,
		sim.WithLogger(logger),
		sim.WithMetrics(m),
		sim.WithPointerRelease(input.ReleaseAll))
	simulation.SetLayout(snap.Layout)
	host := sim.NewHost(cfg.Sim, simulation, input, m, logger)

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.GalaxyThrottle.Std(), m)
	defer broker.Close()
	host.Subscribe(func(f sim.Frame) { broker.PublishFrame(f) })

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(runCtx)

	svc.OnReload(func(s *galaxy.Snapshot) {
		if err := host.Do(gCtx, func(sm *sim.Simulation) { sm.SetLayout(s.Layout) }); err != nil {
			logger.Warn("layout not applied to simulation", slog.String("error", err.Error()))
			return
		}
		broker.PublishGalaxy(GalaxyEvent{Version: s.Version, Folders: s.Folders, Files: s.Files})
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	// Health check and metrics endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case <-host.Stopped():
			writeStatus(w, http.StatusServiceUnavailable, "simulation stopped")
			return
		default:
		}
		if svc.Snapshot().Version == 0 {
			writeStatus(w, http.StatusServiceUnavailable, "galaxy not loaded")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", m.Handler())

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, host, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Simulation host.
	g.Go(func() error {
		return host.Run(gCtx)
	})

	// Repository watcher: every debounced batch triggers a full reload.
	if cfg.Repo.Watch && cfg.Repo.Manifest == "" && deps.store != nil {
		g.Go(func() error {
			err := watcher.Watch(gCtx, deps.store.Root(), watcher.Options{
				Debounce: cfg.Repo.Debounce.Std(),
				Ignored:  deps.store.Ignored,
			}, logger, func(c watcher.Change) {
				logger.Debug("repository changed", slog.Int("paths", len(c.Paths)), slog.Int("events", c.Events))
				_, _ = svc.Reload(gCtx)
			})
			if err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Close SSE streams first so Shutdown does not wait on them.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		stop()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// RunMCP serves the galaxy tools over stdio. Logs go to stderr so they do
// not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config.App.LogLevel, os.Stderr)

	deps, err := app.openGalaxy(logger, nil)
	if err != nil {
		return err
	}
	defer deps.Close()
	if _, err := deps.svc.Reload(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	logger.Info("Starting MCP server (stdio)", slog.String("version", app.version))
	return mcpserver.New(deps.svc, app.version).ServeStdio()
}

// RunLayout loads the tree once and writes the computed layout as JSON.
func RunLayout(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config.App.LogLevel, os.Stderr)

	deps, err := app.openGalaxy(logger, nil)
	if err != nil {
		return err
	}
	defer deps.Close()
	snap, err := deps.svc.Reload(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(app.output)
	enc.SetIndent("", "  ")
	return enc.Encode(snap.Layout)
}
