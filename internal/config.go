package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/orrery/internal/flight"
	"github.com/starford/orrery/internal/layout"
	"github.com/starford/orrery/internal/proximity"
	"github.com/starford/orrery/internal/sim"
	"github.com/starford/orrery/internal/storage"
	"github.com/starford/orrery/internal/watcher"
	"github.com/starford/orrery/pkg/config"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app" toml:"app"`
	Repo      RepoConfig        `yaml:"repo" toml:"repo"`
	SQLite    SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth" toml:"auth"`
	Layout    layout.Config     `yaml:"layout" toml:"layout"`
	Flight    flight.Tuning     `yaml:"flight" toml:"flight"`
	Proximity proximity.Config  `yaml:"proximity" toml:"proximity"`
	Sim       sim.Config        `yaml:"sim" toml:"sim"`
	Events    EventsConfig      `yaml:"events" toml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Repo.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if err := c.Flight.Validate(); err != nil {
		return fmt.Errorf("flight: %w", err)
	}
	if err := c.Proximity.Validate(); err != nil {
		return fmt.Errorf("proximity: %w", err)
	}
	if err := c.Sim.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	return c.Events.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// RepoConfig selects the tree to draw.
//
// Path is a repository directory; it is listed, watched and backs the
// editor. Manifest is a YAML or JSON tree description; when set it replaces
// the directory listing as the tree source, and Path (if any) still serves
// file contents.
type RepoConfig struct {
	Path     string          `yaml:"path" toml:"path"`
	Manifest string          `yaml:"manifest" toml:"manifest"`
	Ignore   []string        `yaml:"ignore" toml:"ignore"`
	Watch    bool            `yaml:"watch" toml:"watch"`
	Debounce config.Duration `yaml:"debounce" toml:"debounce"`
}

// Validate validates the repository configuration.
func (c *RepoConfig) Validate() error {
	if c.Path == "" && c.Manifest == "" {
		return errors.New("repo: path or manifest is required")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(config.Duration(0))),
	)
}

// SQLiteConfig holds SQLite node catalogue configuration. An empty path
// disables the catalogue; search then scans the in-memory tree.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Enabled reports whether the catalogue is configured.
func (c *SQLiteConfig) Enabled() bool {
	return c.Path != ""
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// EventsConfig holds SSE publishing settings.
type EventsConfig struct {
	// GalaxyThrottle is the minimum gap between galaxy.updated events.
	GalaxyThrottle config.Duration `yaml:"galaxy_throttle" toml:"galaxy_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.GalaxyThrottle, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Repo: RepoConfig{
			Path:     ".",
			Ignore:   slices.Clone(storage.DefaultIgnore),
			Watch:    true,
			Debounce: config.Duration(watcher.DefaultDebounce),
		},
		SQLite: SQLiteConfig{
			Path: "./orrery.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Layout:    layout.DefaultConfig(),
		Flight:    flight.DefaultTuning(),
		Proximity: proximity.DefaultConfig(),
		Sim:       sim.DefaultConfig(),
		Events: EventsConfig{
			GalaxyThrottle: config.Duration(2 * time.Second),
		},
	}
}
