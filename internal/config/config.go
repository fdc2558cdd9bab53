package config

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/wavetiles/internal/database"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds the run, storage and server settings of one wavetiles install.
// The logging section of the same file is read by the logger package.
type Config struct {
	Grid     GridConfig     `yaml:"grid"`
	Tiles    TilesConfig    `yaml:"tiles"`
	Output   OutputConfig   `yaml:"output"`
	Solve    SolveConfig    `yaml:"solve"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
}

// GridConfig is the size of the solve grid in cells.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TilesConfig locates the tile library and controls edge sampling.
type TilesConfig struct {
	Dir           string   `yaml:"dir"`
	Probabilities string   `yaml:"probabilities"`
	Sockets       int      `yaml:"sockets"`
	FallbackNames []string `yaml:"fallback_names"`

	// ColorTolerance is the CIE76 distance under which two sampled colours
	// count as the same socket. 0 means exact RGB identity.
	ColorTolerance float64 `yaml:"color_tolerance"`
}

// OutputConfig controls the rendered image.
type OutputConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Path of the PNG; empty means "<width>x<height>.png" in the working directory
	Path       string `yaml:"path"`
	Scaler     string `yaml:"scaler"`
	Background string `yaml:"background"`
}

// SolveConfig bounds a solve from the outside.
type SolveConfig struct {
	Seed          int64  `yaml:"seed"` // 0 picks a time based seed
	MaxAttempts   int    `yaml:"max_attempts"`
	MaxSteps      int    `yaml:"max_steps"` // 0 for unbounded
	Timeout       string `yaml:"timeout"`   // Go duration, empty for none
	AcceptPartial bool   `yaml:"accept_partial"`
}

// DatabaseConfig selects the run history store.
type DatabaseConfig struct {
	Enabled         bool `yaml:"enabled"`
	database.Config `yaml:",inline"`
}

// ServerConfig holds server-wide configuration settings.
type ServerConfig struct {
	Address     string            `yaml:"address"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`

	// MaxGridCells rejects requests whose width*height exceeds it.
	MaxGridCells int `yaml:"max_grid_cells"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited (not recommended).
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns the settings of the reference run: a 200x200 grid
// rendered to 1000x1000 pixels.
func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Width:  200,
			Height: 200,
		},
		Tiles: TilesConfig{
			Dir:           "tiles",
			Probabilities: "tiles/probabilities.json",
			Sockets:       5,
			FallbackNames: []string{"final.png"},
		},
		Output: OutputConfig{
			Width:      1000,
			Height:     1000,
			Scaler:     "nearest",
			Background: "#ff0000",
		},
		Solve: SolveConfig{
			MaxAttempts:   1,
			AcceptPartial: true,
		},
		Database: DatabaseConfig{
			Enabled: true,
			Config:  database.DefaultConfig("data/wavetiles.db"),
		},
		Server: ServerConfig{
			Address: ":8080",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 3,
				MaxTotal: 32,
			},
			MaxGridCells: 10000,
		},
	}
}

// LoadConfig loads configuration from a YAML file over the defaults.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate checks ranges and formats.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		add("grid size %dx%d must be positive", c.Grid.Width, c.Grid.Height)
	} else if !GridFits(c.Grid.Width, c.Grid.Height, maxGridCells) {
		add("grid size %dx%d exceeds %d cells", c.Grid.Width, c.Grid.Height, maxGridCells)
	}
	if c.Tiles.Sockets <= 0 {
		add("tiles.sockets must be positive, got %d", c.Tiles.Sockets)
	}
	if c.Tiles.ColorTolerance < 0 {
		add("tiles.color_tolerance must not be negative")
	}
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		add("output size %dx%d must be positive", c.Output.Width, c.Output.Height)
	}
	if _, err := ParseHexColor(c.Output.Background); err != nil {
		add("output.background: %v", err)
	}
	if c.Solve.MaxAttempts < 1 {
		add("solve.max_attempts must be at least 1")
	}
	if c.Solve.MaxSteps < 0 {
		add("solve.max_steps must not be negative")
	}
	if _, err := c.Solve.TimeoutDuration(); err != nil {
		add("solve.timeout: %v", err)
	}
	switch database.DialectType(c.Database.Driver) {
	case database.DialectSQLite, database.DialectPostgres:
	default:
		add("database.driver %q is not sqlite or postgres", c.Database.Driver)
	}
	if c.Server.MaxGridCells < 0 {
		add("server.max_grid_cells must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// TimeoutDuration parses Timeout; empty means no timeout.
func (s SolveConfig) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", s.Timeout)
	}
	return d, nil
}

// maxGridCells bounds grid.width*grid.height for any configured run
const maxGridCells = math.MaxInt32

// GridFits reports whether a width x height grid has at most limit cells.
// Both sides must be positive. The product is never computed, so it cannot
// overflow. A non-positive limit only rules out overflow.
func GridFits(width, height, limit int) bool {
	if limit <= 0 {
		limit = math.MaxInt
	}
	return width <= limit && height <= limit/width
}

// OutputPath returns the configured output path or the "<w>x<h>.png" default.
func (o OutputConfig) OutputPath() string {
	if o.Path != "" {
		return o.Path
	}
	return fmt.Sprintf("%dx%d.png", o.Width, o.Height)
}

// BackgroundColor returns the parsed background, red if unparsable.
func (o OutputConfig) BackgroundColor() color.RGBA {
	c, err := ParseHexColor(o.Background)
	if err != nil {
		return color.RGBA{R: 255, A: 255}
	}
	return c
}

// ParseHexColor parses "#rrggbb" or "#rgb".
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("colour %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colour %q is not #rrggbb", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	// Extract host from origin URL (e.g., "http://localhost:3000" -> "localhost:3000")
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
