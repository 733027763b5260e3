package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/orrery/internal/flight"
	"github.com/starford/orrery/internal/galaxy"
	"github.com/starford/orrery/internal/layout"
	"github.com/starford/orrery/internal/navigation"
	"github.com/starford/orrery/internal/proximity"
	"github.com/starford/orrery/internal/sim"
	"github.com/starford/orrery/internal/sse"
	"github.com/starford/orrery/internal/testutil"
	"github.com/starford/orrery/pkg/config"
)

var repoFiles = map[string]string{
	"README.md":     "# demo\n",
	"src/a.go":      "package src\n",
	"src/b.go":      "package src\n\nfunc B() {}\n",
	"docs/guide.md": "# guide\n",
}

type testEnv struct {
	svc    *galaxy.Service
	host   *sim.Host
	router http.Handler
	dir    string
}

// newTestEnv sets up a temp repository, the galaxy service, a running
// simulation host and the router. An empty token disables auth.
func newTestEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	dir, store := testutil.TestRepo(t, repoFiles)
	engine := layout.NewEngine(layout.DefaultConfig(), testutil.Logger())
	svc := galaxy.NewService(galaxy.DirSource{Store: store, Label: dir}, engine,
		galaxy.WithStore(store), galaxy.WithCatalog(testutil.TestDB(t)), galaxy.WithLogger(testutil.Logger()))
	snap, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}

	cfg := sim.DefaultConfig()
	cfg.TickRate = 200
	cfg.FrameInterval = config.Duration(5 * time.Millisecond)
	in := &flight.Input{}
	s := sim.New(cfg, flight.DefaultTuning(), proximity.DefaultConfig(), svc, sim.WithPointerRelease(in.ReleaseAll))
	s.SetLayout(snap.Layout)
	host := sim.NewHost(cfg, s, in, nil, testutil.Logger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = host.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	broker := sse.NewBroker(time.Second, nil)
	t.Cleanup(broker.Close)

	router := NewRouter(svc, host, token != "", token, broker)
	return &testEnv{svc: svc, host: host, router: router, dir: dir}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestGalaxyEndpoint(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodGet, "/galaxy", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("galaxy status = %d", w.Code)
	}
	resp := decodeBody[GalaxyResponse](t, w)
	if resp.Version != 1 {
		t.Errorf("version = %d", resp.Version)
	}
	if len(resp.Layout.Folders) != 2 || len(resp.Layout.Files) != 4 {
		t.Errorf("layout has %d folders and %d files", len(resp.Layout.Folders), len(resp.Layout.Files))
	}
}

func TestNodeEndpoint(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodGet, "/galaxy/nodes/src/b.go", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("node status = %d, body = %s", w.Code, w.Body.String())
	}
	d := decodeBody[NodeDetail](t, w)
	if d.Path != "/src/b.go" || d.Orbit == nil || d.SizeHuman == "" {
		t.Errorf("node = %+v", d)
	}

	// Encoded slashes.
	w = e.do(t, http.MethodGet, "/galaxy/nodes/src%2Fa.go", nil)
	if w.Code != http.StatusOK {
		t.Errorf("encoded path status = %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/galaxy/nodes/nope.go", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing node = %d, want 404", w.Code)
	}
}

func TestReloadEndpoint(t *testing.T) {
	e := newTestEnv(t, "")
	if err := os.WriteFile(filepath.Join(e.dir, "src", "c.go"), []byte("package src\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := e.do(t, http.MethodPost, "/galaxy/reload", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reload status = %d", w.Code)
	}
	resp := decodeBody[ReloadResponse](t, w)
	if resp.Version != 2 || resp.Files != 5 {
		t.Errorf("reload = %+v", resp)
	}
}

func TestSearchEndpoint(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodGet, "/search?q=guide", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	resp := decodeBody[SearchResponse](t, w)
	if len(resp.Results) != 1 || resp.Results[0].Path != "/docs/guide.md" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
}

func TestFileOptimisticLocking(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodGet, "/files/src/a.go", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get file = %d", w.Code)
	}
	f := decodeBody[FileContent](t, w)
	if f.Content != repoFiles["src/a.go"] || w.Header().Get("ETag") != `"`+f.Checksum+`"` {
		t.Errorf("file = %+v, etag = %s", f, w.Header().Get("ETag"))
	}

	update := map[string]string{"content": "package src\n\n// v2\n"}
	w = e.do(t, http.MethodPut, "/files/src/a.go", update, "If-Match", `"`+f.Checksum+`"`)
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	// Stale checksum.
	w = e.do(t, http.MethodPut, "/files/src/a.go", update, "If-Match", f.Checksum)
	if w.Code != http.StatusConflict {
		t.Errorf("stale update = %d, want 409", w.Code)
	}

	data, _ := os.ReadFile(filepath.Join(e.dir, "src", "a.go"))
	if string(data) != update["content"] {
		t.Errorf("disk content = %q", data)
	}
}

func TestFileNotFound(t *testing.T) {
	e := newTestEnv(t, "")

	if w := e.do(t, http.MethodGet, "/files/ghost.go", nil); w.Code != http.StatusNotFound {
		t.Errorf("get missing = %d, want 404", w.Code)
	}
	w := e.do(t, http.MethodPut, "/files/ghost.go", map[string]string{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("put missing = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodPut, "/files/src/a.go", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("put without content = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/files/src", nil); w.Code != http.StatusNotFound {
		t.Errorf("get folder = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodPut, "/files/src", map[string]string{"content": "x"}); w.Code != http.StatusNotFound {
		t.Errorf("put folder = %d, want 404", w.Code)
	}
}

func TestNavigationCommands(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodPost, "/nav/enter", EnterSystemRequest{System: "src"})
	if w.Code != http.StatusOK {
		t.Fatalf("enter = %d", w.Code)
	}
	nav := decodeBody[NavResponse](t, w)
	if !nav.Applied || nav.Navigation.Level != navigation.LevelSystem || nav.Navigation.CurrentSystem != "/src" {
		t.Errorf("enter = %+v", nav)
	}

	// Entering again from system level is a no-op.
	nav = decodeBody[NavResponse](t, e.do(t, http.MethodPost, "/nav/enter", EnterSystemRequest{System: "/docs"}))
	if nav.Applied || nav.Navigation.CurrentSystem != "/src" {
		t.Errorf("second enter = %+v", nav)
	}

	nav = decodeBody[NavResponse](t, e.do(t, http.MethodPost, "/nav/exit", nil))
	if !nav.Applied || nav.Navigation.Level != navigation.LevelGalaxy {
		t.Errorf("exit = %+v", nav)
	}

	nav = decodeBody[NavResponse](t, e.do(t, http.MethodPost, "/nav/enter", EnterSystemRequest{System: "/missing"}))
	if nav.Applied {
		t.Errorf("entered unknown system: %+v", nav)
	}

	if w := e.do(t, http.MethodPost, "/nav/mode", ModeRequest{Mode: "warp"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad mode = %d, want 400", w.Code)
	}
	nav = decodeBody[NavResponse](t, e.do(t, http.MethodPost, "/nav/mode", ModeRequest{Mode: "fly"}))
	if !nav.Applied || nav.Navigation.Mode != navigation.ModeFly {
		t.Errorf("mode = %+v", nav)
	}

	// Zoom only applies to the orbit camera.
	nav = decodeBody[NavResponse](t, e.do(t, http.MethodPost, "/nav/zoom", ZoomRequest{Percent: 10}))
	if nav.Applied {
		t.Errorf("zoom in fly mode = %+v", nav)
	}

	frame := decodeBody[sim.Frame](t, e.do(t, http.MethodGet, "/state", nil))
	if frame.Navigation.Mode != navigation.ModeFly || !frame.PointerCaptured {
		t.Errorf("state = %+v", frame.Navigation)
	}
}

func TestInputEndpoint(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(t, http.MethodPost, "/input", InputRequest{Press: []string{"w", "boost"}})
	if w.Code != http.StatusNoContent {
		t.Fatalf("input = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/input", InputRequest{Press: []string{"jump"}}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown key = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/input", "not an object"); w.Code != http.StatusBadRequest {
		t.Errorf("bad body = %d, want 400", w.Code)
	}

	c := e.host.Input().Drain()
	if !c.Held(flight.KeyThrust|flight.KeyBoost) || c.Held(flight.KeyBrake) {
		t.Errorf("held keys = %b", c.Keys)
	}

	e.do(t, http.MethodPost, "/input", InputRequest{Release: []string{"thrust"}})
	if c := e.host.Input().Drain(); c.Held(flight.KeyThrust) || !c.Held(flight.KeyBoost) {
		t.Errorf("after release = %b", c.Keys)
	}
}

func TestLandOutOfRange(t *testing.T) {
	e := newTestEnv(t, "")

	if w := e.do(t, http.MethodPost, "/land", nil); w.Code != http.StatusConflict {
		t.Errorf("land from orbit = %d, want 409", w.Code)
	}
}

func TestEditorOpenLoadsIntoFrame(t *testing.T) {
	e := newTestEnv(t, "")

	if w := e.do(t, http.MethodPost, "/editor/open", OpenEditorRequest{Path: "/nope.go"}); w.Code != http.StatusNotFound {
		t.Errorf("open missing = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/editor/open", OpenEditorRequest{Path: "src/b.go"}); w.Code != http.StatusAccepted {
		t.Fatalf("open = %d", w.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		f := e.host.Frame()
		if f.Editor.Open && !f.Editor.Loading {
			if f.Editor.Content != repoFiles["src/b.go"] || f.Editor.Error != "" {
				t.Errorf("editor = %+v", f.Editor)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("editor never loaded: %+v", f.Editor)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if w := e.do(t, http.MethodPost, "/editor/close", nil); w.Code != http.StatusAccepted {
		t.Fatalf("close = %d", w.Code)
	}
	if e.host.Frame().Editor.Open {
		t.Error("editor still open")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := newTestEnv(t, "secret123")

	w := e.do(t, http.MethodGet, "/galaxy", nil, "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed galaxy = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := newTestEnv(t, "secret123")

	if w := e.do(t, http.MethodGet, "/galaxy", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	e := newTestEnv(t, "secret123")

	w := e.do(t, http.MethodPost, "/input", InputRequest{}, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := newTestEnv(t, "secret")

	if w := e.do(t, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := newTestEnv(t, "tok")

	// The SSE handler writes 200 and blocks, so the context is cancelled
	// after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
}

func TestAuthMiddleware_QueryTokenOnlyForGet(t *testing.T) {
	e := newTestEnv(t, "tok")

	if w := e.do(t, http.MethodGet, "/state?access_token=tok", nil); w.Code != http.StatusOK {
		t.Errorf("GET with query token = %d, want 200", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/nav/exit?access_token=tok", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("POST with query token = %d, want 401", w.Code)
	}
}
