package sim

import (
	"math"
	"sync"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/orrery/internal/apperr"
	"github.com/starford/orrery/internal/flight"
	"github.com/starford/orrery/internal/layout"
	"github.com/starford/orrery/internal/models"
	"github.com/starford/orrery/internal/navigation"
	"github.com/starford/orrery/internal/proximity"
	"github.com/starford/orrery/internal/tree"
)

type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memFiles) Read(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[path]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return b, nil
}

func (m *memFiles) Write(path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
	return nil
}

func srcTree() *models.Folder {
	root := tree.NewRoot()
	src := tree.NewFolder(root, "src")
	tree.NewFile(src, "a.go", 100)
	tree.NewFile(src, "b.go", 2000)
	tree.NewFolder(root, "docs")
	return root
}

func newTestSim(t *testing.T, opts ...Option) (*Simulation, *memFiles) {
	t.Helper()
	files := &memFiles{files: map[string][]byte{
		"/src/a.go": []byte("package src\n"),
		"/src/b.go": []byte("package src\n\nfunc B() {}\n"),
	}}
	s := New(DefaultConfig(), flight.DefaultTuning(), proximity.DefaultConfig(), files, opts...)
	s.SetLayout(layout.NewSpiral(layout.DefaultConfig()).Place(srcTree()))
	t.Cleanup(s.Shutdown)
	return s, files
}

func TestStartsInOrbitAtGalaxyLevel(t *testing.T) {
	s, _ := newTestSim(t)
	f := s.Snapshot()

	assert.Equal(t, navigation.LevelGalaxy, f.Navigation.Level)
	assert.Equal(t, navigation.ModeOrbit, f.Navigation.Mode)
	assert.False(t, f.PointerCaptured)
	assert.Equal(t, CursorDefault, f.Cursor)
	assert.InDelta(t, DefaultConfig().GalaxyDistance, f.Camera.Position.Length(), 1)
	assert.Equal(t, uint64(1), f.LayoutVersion)
}

func TestFlyOrbitFlyResetsFlightState(t *testing.T) {
	released := 0
	s, _ := newTestSim(t, WithPointerRelease(func() { released++ }))

	require.True(t, s.SetCameraMode(navigation.ModeFly))
	f := s.Snapshot()
	assert.True(t, f.PointerCaptured)
	assert.Equal(t, CursorHidden, f.Cursor)

	for range 30 {
		f = s.Tick(0.0625, flight.Controls{PointerDX: 4, Keys: flight.KeyThrust | flight.KeyRollLeft})
	}
	require.Greater(t, f.Flight.Speed, float32(0))

	require.True(t, s.SetCameraMode(navigation.ModeOrbit))
	f = s.Snapshot()
	assert.False(t, f.PointerCaptured)
	assert.Equal(t, CursorDefault, f.Cursor)
	assert.Equal(t, 1, released)

	require.True(t, s.SetCameraMode(navigation.ModeFly))
	assert.Equal(t, flight.State{}, s.Snapshot().Flight)
	assert.Zero(t, s.camera.Bank)
}

func TestOrbitHandoverKeepsView(t *testing.T) {
	s, _ := newTestSim(t)
	require.True(t, s.SetCameraMode(navigation.ModeFly))
	for range 10 {
		s.Tick(0.0625, flight.Controls{PointerDX: 3, PointerDY: -2, Keys: flight.KeyThrust})
	}
	before := s.Snapshot().Camera

	require.True(t, s.SetCameraMode(navigation.ModeOrbit))
	after := s.Snapshot().Camera
	assert.InDelta(t, 0, before.Position.DistanceTo(after.Position), 0.5)
	assert.InDelta(t, 1, before.Forward.Dot(after.Forward), 1e-2)
}

func TestEnterAndExitSystem(t *testing.T) {
	s, _ := newTestSim(t)

	assert.False(t, s.EnterSystem("/missing"))
	require.True(t, s.EnterSystem("/src"))
	f := s.Snapshot()
	assert.Equal(t, navigation.LevelSystem, f.Navigation.Level)
	assert.Equal(t, "/src", f.Navigation.CurrentSystem)

	src, _ := s.Layout().Folder("/src")
	assert.Equal(t, src.Position, f.OrbitTarget)
	assert.InDelta(t, 0, f.Camera.Forward.Dot(src.Position.Sub(f.Camera.Position).Normal())-1, 1e-3)

	assert.False(t, s.EnterSystem("/docs"), "selecting inside a system is ignored")

	require.True(t, s.ExitSystem())
	f = s.Snapshot()
	assert.Equal(t, navigation.LevelGalaxy, f.Navigation.Level)
	assert.Equal(t, math32.Vector3{}, f.OrbitTarget)
	assert.False(t, s.ExitSystem())
}

func TestSetLayoutLeavesVanishedSystem(t *testing.T) {
	s, _ := newTestSim(t)
	require.True(t, s.EnterSystem("/src"))

	root := tree.NewRoot()
	tree.NewFolder(root, "lib")
	s.SetLayout(layout.NewSpiral(layout.DefaultConfig()).Place(root))

	f := s.Snapshot()
	assert.Equal(t, navigation.LevelGalaxy, f.Navigation.Level)
	assert.Empty(t, f.Navigation.CurrentSystem)
	assert.Equal(t, uint64(2), f.LayoutVersion)
}

func TestSetLayoutKeepsSurvivingSystem(t *testing.T) {
	s, _ := newTestSim(t)
	require.True(t, s.EnterSystem("/src"))
	s.SetLayout(layout.NewSpiral(layout.DefaultConfig()).Place(srcTree()))
	assert.Equal(t, "/src", s.Snapshot().Navigation.CurrentSystem)
}

func TestLandingOpensEditor(t *testing.T) {
	s, _ := newTestSim(t)
	require.True(t, s.SetCameraMode(navigation.ModeFly))

	_, ok := s.Land()
	assert.False(t, ok, "nothing in range")

	planet, ok := s.Layout().FilePosition("/src/a.go", 0)
	require.True(t, ok)
	o, _ := s.Layout().Orbit("/src/a.go")
	s.camera.Position = planet.Add(math32.Vec3(0, o.BodyRadius+5, 0))

	f := s.Tick(0, flight.Controls{})
	require.True(t, f.Proximity.CanLand)
	require.NotNil(t, f.Proximity.Nearest)
	assert.Equal(t, "/src/a.go", f.Proximity.Nearest.Path)

	path, ok := s.Land()
	require.True(t, ok)
	assert.Equal(t, "/src/a.go", path)

	f = s.Snapshot()
	assert.Equal(t, navigation.ModeOrbit, f.Navigation.Mode)
	assert.Equal(t, proximity.StateLanded, f.Proximity.Landing)
	assert.False(t, f.Proximity.CanLand)
	assert.False(t, f.PointerCaptured)
	assert.Equal(t, planet, f.OrbitTarget)
	assert.True(t, f.Editor.Loading)

	s.editor.Wait()
	f = s.Tick(0, flight.Controls{})
	assert.False(t, f.Editor.Loading)
	assert.Equal(t, "package src\n", f.Editor.Content)
	assert.Empty(t, f.Editor.Error)

	_, ok = s.Land()
	assert.False(t, ok, "landing requires fly mode")
}

func TestSaveThroughEditor(t *testing.T) {
	s, files := newTestSim(t)
	s.OpenFile("/src/b.go")
	s.editor.Wait()
	s.Tick(0, flight.Controls{})

	s.SaveFile("package src\n")
	s.editor.Wait()
	f := s.Tick(0, flight.Controls{})
	assert.False(t, f.Editor.Saving)
	assert.Empty(t, f.Editor.Error)

	got, err := files.Read("/src/b.go")
	require.NoError(t, err)
	assert.Equal(t, "package src\n", string(got))

	s.CloseEditor()
	assert.False(t, s.Snapshot().Editor.Open)
}

func TestEnteringFlyClosesEditor(t *testing.T) {
	s, _ := newTestSim(t)
	s.OpenFile("/src/a.go")
	require.True(t, s.SetCameraMode(navigation.ModeFly))
	assert.False(t, s.Snapshot().Editor.Open)
}

func TestTickSurvivesBadDelta(t *testing.T) {
	s, _ := newTestSim(t)
	require.True(t, s.SetCameraMode(navigation.ModeFly))
	for _, dt := range []float32{float32(math.NaN()), -1, float32(math.Inf(1)), 5} {
		f := s.Tick(dt, flight.Controls{Keys: flight.KeyThrust})
		assert.False(t, math32.IsNaN(f.Camera.Position.X))
		assert.False(t, math32.IsNaN(f.Time))
	}
}

func TestZoomOnlyMovesOrbitCamera(t *testing.T) {
	s, _ := newTestSim(t)
	before := s.Snapshot().Camera.Position.Length()
	s.Zoom(50)
	assert.InDelta(t, before*1.5, s.Snapshot().Camera.Position.Length(), 1)

	require.True(t, s.SetCameraMode(navigation.ModeFly))
	pos := s.Snapshot().Camera.Position
	s.Zoom(50)
	assert.Equal(t, pos, s.Snapshot().Camera.Position)
}

func TestWithoutLayout(t *testing.T) {
	s := New(DefaultConfig(), flight.DefaultTuning(), proximity.DefaultConfig(), &memFiles{files: map[string][]byte{}})
	assert.False(t, s.EnterSystem("/src"))
	require.True(t, s.SetCameraMode(navigation.ModeFly))
	f := s.Tick(0.016, flight.Controls{})
	assert.Equal(t, proximity.StateFlying, f.Proximity.Landing)
}
