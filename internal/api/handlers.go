package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/orrery/internal/flight"
	"github.com/starford/orrery/internal/galaxy"
	"github.com/starford/orrery/internal/navigation"
	"github.com/starford/orrery/internal/sim"
	"github.com/starford/orrery/internal/sse"
)

const maxBody = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc    *galaxy.Service
	host   *sim.Host
	events *sse.Broker
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(svc *galaxy.Service, host *sim.Host, events *sse.Broker) *Handler {
	return &Handler{svc: svc, host: host, events: events}
}

// nodePath extracts the node path from the URL (everything after the route
// prefix). Supports encoded slashes from OpenAPI clients (e.g. src%2Fa.go).
func nodePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Galaxy handles GET /api/galaxy.
//
//	@Summary		Get the full galaxy layout
//	@Tags			galaxy
//	@Produce		json
//	@Success		200	{object}	GalaxyResponse
//	@Security		BearerAuth
//	@Router			/galaxy [get]
func (h *Handler) Galaxy(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, GalaxyResponse{Version: snap.Version, Layout: snap.Layout})
}

// Node handles GET /api/galaxy/nodes/*.
//
//	@Summary		Get one node with its layout record
//	@Tags			galaxy
//	@Produce		json
//	@Param			path	path		string	true	"Node path"
//	@Success		200		{object}	NodeDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/galaxy/nodes/{path} [get]
func (h *Handler) Node(w http.ResponseWriter, r *http.Request) {
	path := nodePath(r)
	d, err := h.svc.Node(r.Context(), path)
	if err != nil {
		fail(w, "get node", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Reload handles POST /api/galaxy/reload.
//
//	@Summary		Reload the repository tree and recompute the layout
//	@Tags			galaxy
//	@Produce		json
//	@Success		200	{object}	ReloadResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/galaxy/reload [post]
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Reload(r.Context())
	if err != nil {
		fail(w, "reload", err)
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{Version: snap.Version, Folders: snap.Folders, Files: snap.Files})
}

// Search handles GET /api/search.
//
//	@Summary		Search nodes by name and path
//	@Tags			galaxy
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		fail(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// State handles GET /api/state.
//
//	@Summary		Get the latest simulation frame
//	@Tags			sim
//	@Produce		json
//	@Success		200	{object}	sim.Frame
//	@Security		BearerAuth
//	@Router			/state [get]
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.host.Frame())
}

// Input handles POST /api/input. Input is accumulated and applied on the
// next tick.
//
//	@Summary		Send pointer movement and key transitions
//	@Tags			sim
//	@Accept			json
//	@Param			body	body	InputRequest	true	"Input"
//	@Success		204		"Input queued"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/input [post]
func (h *Handler) Input(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if !decode(w, r, &req) {
		return
	}
	press, ok := parseKeys(req.Press)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown key"))
		return
	}
	release, ok := parseKeys(req.Release)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown key"))
		return
	}

	in := h.host.Input()
	in.AddPointer(req.PointerDX, req.PointerDY)
	if req.ReleaseAll {
		in.ReleaseAll()
	}
	in.Release(release)
	in.Press(press)
	w.WriteHeader(http.StatusNoContent)
}

func parseKeys(names []string) (flight.Key, bool) {
	var keys flight.Key
	for _, n := range names {
		k, ok := flight.ParseKey(n)
		if !ok {
			return 0, false
		}
		keys |= k
	}
	return keys, true
}

// navigate runs a navigation command on the simulation and reports the
// resulting state.
func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, op string, fn func(*sim.Simulation) bool) {
	res, err := sim.Call(r.Context(), h.host, func(s *sim.Simulation) NavResponse {
		applied := fn(s)
		return NavResponse{Applied: applied, Navigation: s.Snapshot().Navigation}
	})
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// EnterSystem handles POST /api/nav/enter.
//
//	@Summary		Zoom into a folder's star system
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EnterSystemRequest	true	"System"
//	@Success		200		{object}	NavResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nav/enter [post]
func (h *Handler) EnterSystem(w http.ResponseWriter, r *http.Request) {
	var req EnterSystemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.System == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("system is required"))
		return
	}
	system := "/" + strings.Trim(req.System, "/")
	h.navigate(w, r, "enter system", func(s *sim.Simulation) bool { return s.EnterSystem(system) })
}

// ExitSystem handles POST /api/nav/exit.
//
//	@Summary		Return to galaxy level
//	@Tags			navigation
//	@Produce		json
//	@Success		200	{object}	NavResponse
//	@Security		BearerAuth
//	@Router			/nav/exit [post]
func (h *Handler) ExitSystem(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, "exit system", (*sim.Simulation).ExitSystem)
}

// SetMode handles POST /api/nav/mode.
//
//	@Summary		Switch between orbit and fly camera
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ModeRequest	true	"Camera mode"
//	@Success		200		{object}	NavResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nav/mode [post]
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if !decode(w, r, &req) {
		return
	}
	mode, ok := navigation.ParseMode(req.Mode)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("mode must be orbit or fly"))
		return
	}
	h.navigate(w, r, "set mode", func(s *sim.Simulation) bool { return s.SetCameraMode(mode) })
}

// Zoom handles POST /api/nav/zoom.
//
//	@Summary		Zoom the orbit camera in or out
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ZoomRequest	true	"Zoom percent; negative zooms in"
//	@Success		200		{object}	NavResponse
//	@Security		BearerAuth
//	@Router			/nav/zoom [post]
func (h *Handler) Zoom(w http.ResponseWriter, r *http.Request) {
	var req ZoomRequest
	if !decode(w, r, &req) {
		return
	}
	h.navigate(w, r, "zoom", func(s *sim.Simulation) bool {
		s.Zoom(req.Percent)
		return s.Snapshot().Navigation.Mode == navigation.ModeOrbit
	})
}

// Land handles POST /api/land.
//
//	@Summary		Land on the nearest planet and open its file
//	@Tags			sim
//	@Produce		json
//	@Success		200	{object}	LandResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/land [post]
func (h *Handler) Land(w http.ResponseWriter, r *http.Request) {
	type landing struct {
		path string
		ok   bool
	}
	res, err := sim.Call(r.Context(), h.host, func(s *sim.Simulation) landing {
		p, ok := s.Land()
		return landing{p, ok}
	})
	if err != nil {
		fail(w, "land", err)
		return
	}
	if !res.ok {
		writeJSON(w, http.StatusConflict, errorBody("no planet in landing range"))
		return
	}
	if h.events != nil {
		h.events.Publish(sse.Event{Type: sse.TypeLanding, Data: LandResponse{Path: res.path}})
	}
	writeJSON(w, http.StatusOK, LandResponse{Path: res.path})
}

// GetFile handles GET /api/files/*.
//
//	@Summary		Read a repository file
//	@Tags			files
//	@Produce		json
//	@Param			path	path		string	true	"File path"
//	@Success		200		{object}	FileContent
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	path := nodePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	f, err := h.svc.ReadFile(r.Context(), path)
	if err != nil {
		fail(w, "read file", err, slog.String("path", path))
		return
	}
	w.Header().Set("ETag", `"`+f.Checksum+`"`)
	writeJSON(w, http.StatusOK, f)
}

// PutFile handles PUT /api/files/*.
//
//	@Summary		Write a repository file with optimistic concurrency
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string				true	"File path"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdateFileRequest	true	"New content"
//	@Success		200		{object}	FileContent
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [put]
func (h *Handler) PutFile(w http.ResponseWriter, r *http.Request) {
	path := nodePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req struct {
		Content *string `json:"content"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	f, err := h.svc.WriteFile(r.Context(), path, []byte(*req.Content), ifMatch)
	if err != nil {
		fail(w, "write file", err, slog.String("path", path))
		return
	}
	w.Header().Set("ETag", `"`+f.Checksum+`"`)
	writeJSON(w, http.StatusOK, f)
}

// OpenEditor handles POST /api/editor/open. The file loads asynchronously;
// its content appears in the frame's editor status.
//
//	@Summary		Open a file in the editor panel
//	@Tags			files
//	@Accept			json
//	@Param			body	body	OpenEditorRequest	true	"File"
//	@Success		202		"Loading"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/editor/open [post]
func (h *Handler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	var req OpenEditorRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if _, err := h.svc.Node(r.Context(), req.Path); err != nil {
		fail(w, "open editor", err, slog.String("path", req.Path))
		return
	}
	path := "/" + strings.Trim(req.Path, "/")
	h.command(w, r, "open editor", func(s *sim.Simulation) { s.OpenFile(path) })
}

// SaveEditor handles POST /api/editor/save.
//
//	@Summary		Save the editor buffer to the open file
//	@Tags			files
//	@Accept			json
//	@Param			body	body	SaveEditorRequest	true	"Content"
//	@Success		202		"Saving"
//	@Security		BearerAuth
//	@Router			/editor/save [post]
func (h *Handler) SaveEditor(w http.ResponseWriter, r *http.Request) {
	var req SaveEditorRequest
	if !decode(w, r, &req) {
		return
	}
	h.command(w, r, "save editor", func(s *sim.Simulation) { s.SaveFile(req.Content) })
}

// CloseEditor handles POST /api/editor/close.
//
//	@Summary		Close the editor panel
//	@Tags			files
//	@Success		202	"Closed"
//	@Security		BearerAuth
//	@Router			/editor/close [post]
func (h *Handler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "close editor", (*sim.Simulation).CloseEditor)
}

func (h *Handler) command(w http.ResponseWriter, r *http.Request, op string, fn func(*sim.Simulation)) {
	if err := h.host.Do(r.Context(), fn); err != nil {
		fail(w, op, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
