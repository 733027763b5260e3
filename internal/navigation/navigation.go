// Package navigation tracks the view level and camera mode and mediates
// transitions between them.
package navigation

import "log/slog"

// ViewLevel is the zoom level of the view.
type ViewLevel string

// View levels.
const (
	LevelGalaxy ViewLevel = "galaxy"
	LevelSystem ViewLevel = "system"
)

// CameraMode selects how the camera is driven.
type CameraMode string

// Camera modes.
const (
	ModeOrbit CameraMode = "orbit"
	ModeFly   CameraMode = "fly"
)

// ParseMode converts a mode name. Unknown names report false.
func ParseMode(s string) (CameraMode, bool) {
	switch CameraMode(s) {
	case ModeOrbit:
		return ModeOrbit, true
	case ModeFly:
		return ModeFly, true
	}
	return "", false
}

// State is a snapshot of the navigation state. CurrentSystem is set exactly
// when Level is LevelSystem.
type State struct {
	Level         ViewLevel  `json:"view_level"`
	CurrentSystem string     `json:"current_system,omitempty"`
	Mode          CameraMode `json:"camera_mode"`
}

// Hooks are called synchronously after a transition has been applied.
type Hooks struct {
	// OnEnterFly runs when the mode switches to fly.
	OnEnterFly func()
	// OnEnterOrbit runs when the mode switches from fly to orbit.
	OnEnterOrbit func()
	// OnViewChange runs after EnterSystem or ExitSystem.
	OnViewChange func(State)
}

// Machine is the navigation state machine. It is not safe for concurrent
// use; the simulation owns it.
type Machine struct {
	state  State
	hooks  Hooks
	logger *slog.Logger
}

// New returns a machine at galaxy level in orbit mode.
func New(hooks Hooks, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		state:  State{Level: LevelGalaxy, Mode: ModeOrbit},
		hooks:  hooks,
		logger: logger,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// EnterSystem zooms into a folder's system. It is only legal at galaxy
// level; selecting while inside a system is ignored.
func (m *Machine) EnterSystem(folder string) bool {
	if m.state.Level != LevelGalaxy || folder == "" {
		m.logger.Debug("navigation: enter system ignored",
			slog.String("level", string(m.state.Level)),
			slog.String("folder", folder))
		return false
	}
	m.state.Level = LevelSystem
	m.state.CurrentSystem = folder
	if m.hooks.OnViewChange != nil {
		m.hooks.OnViewChange(m.state)
	}
	return true
}

// ExitSystem returns to galaxy level. It is only legal inside a system.
func (m *Machine) ExitSystem() bool {
	if m.state.Level != LevelSystem {
		m.logger.Debug("navigation: exit system ignored")
		return false
	}
	m.state.Level = LevelGalaxy
	m.state.CurrentSystem = ""
	if m.hooks.OnViewChange != nil {
		m.hooks.OnViewChange(m.state)
	}
	return true
}

// SetCameraMode switches the camera mode. Setting the current mode again is
// a no-op and runs no hooks.
func (m *Machine) SetCameraMode(mode CameraMode) bool {
	if mode != ModeOrbit && mode != ModeFly {
		m.logger.Debug("navigation: unknown camera mode", slog.String("mode", string(mode)))
		return false
	}
	if mode == m.state.Mode {
		return false
	}
	m.state.Mode = mode
	switch mode {
	case ModeFly:
		if m.hooks.OnEnterFly != nil {
			m.hooks.OnEnterFly()
		}
	case ModeOrbit:
		if m.hooks.OnEnterOrbit != nil {
			m.hooks.OnEnterOrbit()
		}
	}
	return true
}

// Reset returns to galaxy level, keeping the camera mode. Used when the
// current system disappears after a reload.
func (m *Machine) Reset() {
	if m.state.Level == LevelSystem {
		m.ExitSystem()
	}
}
