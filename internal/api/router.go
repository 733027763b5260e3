package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/orrery/internal/galaxy"
	"github.com/starford/orrery/internal/sim"
	"github.com/starford/orrery/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, is mounted at GET /events inside the auth group and
// receives landing events.
func NewRouter(svc *galaxy.Service, host *sim.Host, authEnabled bool, token string, events *sse.Broker) chi.Router {
	h := NewHandler(svc, host, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Galaxy.
	r.Get("/galaxy", h.Galaxy)
	r.Get("/galaxy/nodes/*", h.Node)
	r.Post("/galaxy/reload", h.Reload)
	r.Get("/search", h.Search)

	// Simulation.
	r.Get("/state", h.State)
	r.Post("/input", h.Input)
	r.Post("/nav/enter", h.EnterSystem)
	r.Post("/nav/exit", h.ExitSystem)
	r.Post("/nav/mode", h.SetMode)
	r.Post("/nav/zoom", h.Zoom)
	r.Post("/land", h.Land)

	// Editor.
	r.Get("/files/*", h.GetFile)
	r.Put("/files/*", h.PutFile)
	r.Post("/editor/open", h.OpenEditor)
	r.Post("/editor/save", h.SaveEditor)
	r.Post("/editor/close", h.CloseEditor)

	// SSE endpoint (protected by same auth middleware).
	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
