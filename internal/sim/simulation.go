// Package sim owns the per-tick simulation: navigation, flight, the orbit
// camera, proximity and the landing editor. A Simulation is single-threaded;
// Host drives it from one goroutine and serialises everything else onto it.
package sim

import (
	"log/slog"

	"cogentcore.org/core/math32"

	"github.com/starford/orrery/internal/editor"
	"github.com/starford/orrery/internal/flight"
	"github.com/starford/orrery/internal/layout"
	"github.com/starford/orrery/internal/metrics"
	"github.com/starford/orrery/internal/navigation"
	"github.com/starford/orrery/internal/proximity"
	"github.com/starford/orrery/internal/tree"
)

// Cursor styles reported in frames.
const (
	CursorDefault = "default"
	CursorHidden  = "none"
)

// CameraView is the camera pose as rendered.
type CameraView struct {
	Position    math32.Vector3 `json:"position"`
	Orientation math32.Quat    `json:"orientation"`
	View        math32.Quat    `json:"view"`
	Forward     math32.Vector3 `json:"forward"`
}

// Frame is the immutable result of one tick.
type Frame struct {
	Seq             uint64           `json:"seq"`
	Time            float32          `json:"time"`
	LayoutVersion   uint64           `json:"layout_version"`
	Navigation      navigation.State `json:"navigation"`
	Flight          flight.State     `json:"flight"`
	Camera          CameraView       `json:"camera"`
	OrbitTarget     math32.Vector3   `json:"orbit_target"`
	Proximity       proximity.State  `json:"proximity"`
	PointerCaptured bool             `json:"pointer_captured"`
	Cursor          string           `json:"cursor"`
	Editor          editor.Status    `json:"editor"`
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		s.logger = l
	}
}

// WithMetrics records landings.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Simulation) {
		s.metrics = m
	}
}

// WithPointerRelease registers a callback run whenever the pointer capture
// is released, e.g. to drop held keys.
func WithPointerRelease(fn func()) Option {
	return func(s *Simulation) {
		s.onRelease = fn
	}
}

// Simulation is the mutable simulation context.
type Simulation struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	layout        *layout.Layout
	layoutVersion uint64

	nav       *navigation.Machine
	flight    *flight.Controller
	camera    *flight.Camera
	orbit     *flight.OrbitCamera
	proximity *proximity.Detector
	editor    *editor.Session

	pointerCaptured bool
	onRelease       func()

	clock float32
	seq   uint64
}

// New builds a simulation at galaxy level in orbit mode, framing the core.
func New(cfg Config, tuning flight.Tuning, prox proximity.Config, files editor.Files, opts ...Option) *Simulation {
	s := &Simulation{
		cfg:       cfg,
		logger:    slog.Default(),
		flight:    flight.NewController(tuning),
		camera:    flight.NewCamera(math32.Vector3{}),
		orbit:     flight.NewOrbitCamera(math32.Vector3{}, cfg.GalaxyDistance, cfg.OrbitMinDistance, cfg.OrbitMaxDistance),
		proximity: proximity.NewDetector(prox),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.editor = editor.NewSession(files, s.logger)
	s.nav = navigation.New(navigation.Hooks{
		OnEnterFly:   s.enterFly,
		OnEnterOrbit: s.enterOrbit,
		OnViewChange: s.viewChanged,
	}, s.logger)
	s.orbit.Apply(s.camera)
	return s
}

// Layout returns the current layout; it may be nil.
func (s *Simulation) Layout() *layout.Layout {
	return s.layout
}

// SetLayout swaps in a new layout. If the current system no longer exists
// the view returns to galaxy level.
func (s *Simulation) SetLayout(l *layout.Layout) {
	s.layout = l
	s.layoutVersion++
	st := s.nav.State()
	if st.Level == navigation.LevelSystem {
		if _, ok := l.Folder(st.CurrentSystem); !ok {
			s.logger.Info("sim: current system vanished, returning to galaxy",
				slog.String("folder", st.CurrentSystem))
			s.nav.Reset()
		}
	}
}

// Tick advances the simulation by dt seconds with the drained controls.
func (s *Simulation) Tick(dt float32, in flight.Controls) Frame {
	dt = flight.ClampDelta(dt, s.flight.Tuning().MaxDelta)
	s.editor.Poll()

	fly := s.nav.State().Mode == navigation.ModeFly
	if fly {
		s.flight.Update(dt, in, s.camera)
	} else {
		s.orbit.Orbit(in.PointerDX, in.PointerDY)
		s.orbit.Apply(s.camera)
	}
	s.clock += dt

	s.proximity.Update(fly, s.camera.Position, s.bodies)
	s.seq++
	return s.Snapshot()
}

// Snapshot builds a frame of the current state without advancing time.
func (s *Simulation) Snapshot() Frame {
	cursor := CursorDefault
	if s.pointerCaptured {
		cursor = CursorHidden
	}
	return Frame{
		Seq:           s.seq,
		Time:          s.clock,
		LayoutVersion: s.layoutVersion,
		Navigation:    s.nav.State(),
		Flight:        s.flight.State(),
		Camera: CameraView{
			Position:    s.camera.Position,
			Orientation: s.camera.Orientation,
			View:        s.camera.ViewOrientation(),
			Forward:     s.camera.Forward(),
		},
		OrbitTarget:     s.orbit.Target,
		Proximity:       s.proximity.State(),
		PointerCaptured: s.pointerCaptured,
		Cursor:          cursor,
		Editor:          s.editor.Status(),
	}
}

func (s *Simulation) bodies() []proximity.Body {
	if s.layout == nil {
		return nil
	}
	out := make([]proximity.Body, 0, len(s.layout.Files))
	for _, o := range s.layout.Files {
		pos, ok := s.layout.FilePosition(o.Path, s.clock)
		if !ok {
			continue
		}
		out = append(out, proximity.Body{Path: o.Path, Center: pos, Radius: o.BodyRadius})
	}
	return out
}

// EnterSystem zooms into a folder. Unknown folders and calls from inside a
// system are ignored.
func (s *Simulation) EnterSystem(folder string) bool {
	if _, ok := s.layout.Folder(folder); !ok {
		return false
	}
	return s.nav.EnterSystem(folder)
}

// ExitSystem returns to galaxy level.
func (s *Simulation) ExitSystem() bool {
	return s.nav.ExitSystem()
}

// SetCameraMode switches between orbit and fly.
func (s *Simulation) SetCameraMode(mode navigation.CameraMode) bool {
	return s.nav.SetCameraMode(mode)
}

// Zoom moves the orbit camera in or out by pct percent.
func (s *Simulation) Zoom(pct float32) {
	s.orbit.Zoom(pct)
	if s.nav.State().Mode == navigation.ModeOrbit {
		s.orbit.Apply(s.camera)
	}
}

// Land lands on the nearest planet when the detector allows it: the camera
// switches to orbit around the planet and its file opens in the editor.
// The landed path is returned.
func (s *Simulation) Land() (string, bool) {
	st := s.proximity.State()
	if s.nav.State().Mode != navigation.ModeFly || !st.CanLand || st.Nearest == nil {
		return "", false
	}
	path := st.Nearest.Path
	pos, ok := s.layout.FilePosition(path, s.clock)
	if !ok {
		return "", false
	}
	o, _ := s.layout.Orbit(path)

	s.nav.SetCameraMode(navigation.ModeOrbit)
	s.proximity.MarkLanded()
	s.orbit.Focus(pos, max(o.BodyRadius*s.cfg.LandingFactor, s.cfg.OrbitMinDistance))
	s.orbit.Apply(s.camera)
	s.editor.Open(path)
	s.metrics.RecordLanding()
	s.logger.Info("sim: landed", slog.String("path", path))
	return path, true
}

// OpenFile opens a file in the editor without landing.
func (s *Simulation) OpenFile(path string) {
	s.editor.Open(path)
}

// SaveFile writes the editor buffer back to the open file.
func (s *Simulation) SaveFile(content string) {
	s.editor.Save(content)
}

// CloseEditor hides the editor panel.
func (s *Simulation) CloseEditor() {
	s.editor.Close()
}

// Shutdown waits for in-flight editor I/O.
func (s *Simulation) Shutdown() {
	s.editor.Wait()
}

func (s *Simulation) enterFly() {
	s.flight.Reset()
	s.camera.Bank = 0
	s.proximity.Reset()
	s.editor.Close()
	s.pointerCaptured = true
}

// enterOrbit keeps the current view: the orbit target is placed ahead of
// the camera at the current orbit distance.
func (s *Simulation) enterOrbit() {
	s.releasePointer()
	target := s.camera.Position.Add(s.camera.Forward().MulScalar(s.orbit.Distance))
	s.orbit.FromEye(s.camera.Position, target)
	s.orbit.Apply(s.camera)
}

func (s *Simulation) releasePointer() {
	s.pointerCaptured = false
	if s.onRelease != nil {
		s.onRelease()
	}
}

func (s *Simulation) viewChanged(st navigation.State) {
	if st.Level == navigation.LevelSystem {
		if f, ok := s.layout.Folder(st.CurrentSystem); ok {
			s.orbit.Focus(f.Position, max(f.SystemRadius*s.cfg.SystemFactor, s.cfg.OrbitMinDistance))
		}
	} else {
		core, _ := s.layout.Center(tree.RootPath)
		s.orbit.Focus(core, s.cfg.GalaxyDistance)
	}
	if st.Mode == navigation.ModeOrbit {
		s.orbit.Apply(s.camera)
	}
}
