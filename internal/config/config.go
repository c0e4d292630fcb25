// Package config provides configuration loading for calgrid.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/cpuguy83/calgrid/internal/calendar"
	"github.com/cpuguy83/calgrid/internal/layout"
	"github.com/cpuguy83/calgrid/internal/timeutil"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root configuration structure.
type Config struct {
	Calendar CalendarConfig `yaml:"calendar"`
	Sources  []SourceConfig `yaml:"sources"`
	Filters  FilterConfig   `yaml:"filters"`
	// Refresh is a cron-style schedule for reloading sources (e.g. "*/15 * * * *").
	Refresh string `yaml:"refresh"`
}

// CalendarConfig configures how views are laid out.
type CalendarConfig struct {
	View          string                `yaml:"view"`       // "day", "week", "month"
	WeekStart     timeutil.WeekStart    `yaml:"week_start"` // "sunday", "monday", or 0-6
	Timezone      string                `yaml:"timezone"`   // IANA name, empty for local time
	DayBoundaries *layout.DayBoundaries `yaml:"day_boundaries"`
	MaxEventStack int                   `yaml:"max_event_stack"`
	CellHeight    int                   `yaml:"cell_height"`
	User          string                `yaml:"user"` // selected user ID, empty or "all" for everyone

	// Recurring events are expanded from ExpandBack before to ExpandAhead
	// after the displayed date.
	ExpandBack  time.Duration `yaml:"expand_back"`
	ExpandAhead time.Duration `yaml:"expand_ahead"`
}

// SourceConfig configures a calendar source.
type SourceConfig struct {
	Name     string       `yaml:"name"`
	Path     string       `yaml:"path"`            // .ics file
	Color    string       `yaml:"color,omitempty"` // default color for events without one
	User     string       `yaml:"user,omitempty"`  // owner ID for events without an organizer
	UserName string       `yaml:"user_name,omitempty"`
	Filters  FilterConfig `yaml:"filters,omitempty"` // Per-source filters (include)
}

// FilterConfig configures event filtering.
type FilterConfig struct {
	Mode  string       `yaml:"mode"` // "or" or "and"
	Rules []FilterRule `yaml:"rules"`
}

// FilterRule defines a single filter rule.
// Use exactly one of: Contains, Exact, Prefix, Suffix, or Regex.
type FilterRule struct {
	Field           string `yaml:"field"`              // "title", "description", "color", "user", "source"
	Contains        string `yaml:"contains,omitempty"` // Substring match
	Exact           string `yaml:"exact,omitempty"`    // Exact string match
	Prefix          string `yaml:"prefix,omitempty"`   // Starts with
	Suffix          string `yaml:"suffix,omitempty"`   // Ends with
	Regex           string `yaml:"regex,omitempty"`    // Regular expression
	CaseInsensitive bool   `yaml:"case_insensitive"`
}

// Path returns the default config file location (~/.config/calgrid/config.yaml).
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(configDir, "calgrid", "config.yaml"), nil
}

// Load reads configuration from the default location. A missing file yields
// the defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFrom(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

// Default returns a configuration with every option at its default.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFrom reads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Source paths are relative to the config file.
	for i := range cfg.Sources {
		p := expandPath(cfg.Sources[i].Path)
		if p != "" && !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		cfg.Sources[i].Path = p
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document and applies defaults. It does not look at
// the environment; see LoadFrom.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// finish applies environment overrides and validates.
func (c *Config) finish() error {
	// .env file is optional
	_ = godotenv.Load()

	if err := c.applyEnv(os.Getenv); err != nil {
		return err
	}
	return c.Validate()
}

// applyDefaults sets default values for unspecified config options.
func (c *Config) applyDefaults() {
	if c.Calendar.View == "" {
		c.Calendar.View = string(layout.ViewMonth)
	}
	if c.Calendar.MaxEventStack == 0 {
		c.Calendar.MaxEventStack = layout.MaxEventStack
	}
	if c.Calendar.CellHeight == 0 {
		c.Calendar.CellHeight = layout.DefaultCellHeight
	}
	if c.Calendar.ExpandBack == 0 {
		c.Calendar.ExpandBack = 6 * 7 * 24 * time.Hour
	}
	if c.Calendar.ExpandAhead == 0 {
		c.Calendar.ExpandAhead = 6 * 7 * 24 * time.Hour
	}
	if c.Filters.Mode == "" {
		c.Filters.Mode = "or"
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.Name == "" {
			s.Name = strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
		}
		if s.Filters.Mode == "" {
			s.Filters.Mode = "or"
		}
	}
}

// Environment variables that override the config file.
const (
	EnvWeekStart = "CALGRID_WEEK_START"
	EnvTimezone  = "CALGRID_TIMEZONE"
	EnvDayStart  = "CALGRID_DAY_START"
	EnvDayEnd    = "CALGRID_DAY_END"
	EnvUser      = "CALGRID_USER"
)

// applyEnv overrides settings from the environment.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvWeekStart); v != "" {
		ws, err := timeutil.ParseWeekStart(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWeekStart, err)
		}
		c.Calendar.WeekStart = ws
	}
	if v := getenv(EnvTimezone); v != "" {
		c.Calendar.Timezone = v
	}
	if v := getenv(EnvUser); v != "" {
		c.Calendar.User = v
	}

	start, end := getenv(EnvDayStart), getenv(EnvDayEnd)
	if start == "" && end == "" {
		return nil
	}
	b := layout.DayBoundaries{StartHour: 0, EndHour: 23}
	if c.Calendar.DayBoundaries != nil {
		b = *c.Calendar.DayBoundaries
	}
	if start != "" {
		h, err := strconv.Atoi(start)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDayStart, err)
		}
		b.StartHour = h
	}
	if end != "" {
		h, err := strconv.Atoi(end)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDayEnd, err)
		}
		b.EndHour = h
	}
	c.Calendar.DayBoundaries = &b
	return nil
}

// Validate checks option values.
func (c *Config) Validate() error {
	if _, err := layout.ParseView(c.Calendar.View); err != nil {
		return fmt.Errorf("%w: calendar.view: %w", ErrInvalidConfig, err)
	}
	if !c.Calendar.WeekStart.Valid() {
		return fmt.Errorf("%w: calendar.week_start: %w", ErrInvalidConfig, timeutil.ErrInvalidWeekStart)
	}
	if _, err := c.Calendar.Location(); err != nil {
		return fmt.Errorf("%w: calendar.timezone: %w", ErrInvalidConfig, err)
	}
	if b := c.Calendar.DayBoundaries; b != nil {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: calendar.day_boundaries: %w", ErrInvalidConfig, err)
		}
	}
	if c.Calendar.MaxEventStack < 1 {
		return fmt.Errorf("%w: calendar.max_event_stack must be positive, got %d", ErrInvalidConfig, c.Calendar.MaxEventStack)
	}
	if c.Calendar.CellHeight < 2 {
		return fmt.Errorf("%w: calendar.cell_height must be at least 2, got %d", ErrInvalidConfig, c.Calendar.CellHeight)
	}
	if err := validateMode(c.Filters.Mode); err != nil {
		return fmt.Errorf("%w: filters: %w", ErrInvalidConfig, err)
	}
	if c.Refresh != "" {
		if _, err := cron.ParseStandard(c.Refresh); err != nil {
			return fmt.Errorf("%w: refresh: %w", ErrInvalidConfig, err)
		}
	}

	names := make(map[string]bool)
	for i, s := range c.Sources {
		if s.Path == "" {
			return fmt.Errorf("%w: sources[%d]: path is required", ErrInvalidConfig, i)
		}
		if names[s.Name] {
			return fmt.Errorf("%w: sources[%d]: duplicate name %q", ErrInvalidConfig, i, s.Name)
		}
		names[s.Name] = true
		if s.Color != "" {
			if _, err := calendar.ParseColor(s.Color); err != nil {
				return fmt.Errorf("%w: sources[%d]: %w", ErrInvalidConfig, i, err)
			}
		}
		if err := validateMode(s.Filters.Mode); err != nil {
			return fmt.Errorf("%w: sources[%d].filters: %w", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

func validateMode(mode string) error {
	switch mode {
	case "", "or", "and":
		return nil
	}
	return fmt.Errorf("unknown mode %q (use or, and)", mode)
}

// Location returns the configured time zone, or time.Local.
func (c *CalendarConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// UnmarshalYAML implements custom unmarshaling for week start and duration fields.
func (c *CalendarConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		View          string                `yaml:"view"`
		WeekStart     string                `yaml:"week_start"`
		Timezone      string                `yaml:"timezone"`
		DayBoundaries *layout.DayBoundaries `yaml:"day_boundaries"`
		MaxEventStack int                   `yaml:"max_event_stack"`
		CellHeight    int                   `yaml:"cell_height"`
		User          string                `yaml:"user"`
		ExpandBack    string                `yaml:"expand_back"`
		ExpandAhead   string                `yaml:"expand_ahead"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.WeekStart != "" {
		ws, err := timeutil.ParseWeekStart(raw.WeekStart)
		if err != nil {
			return fmt.Errorf("parse week_start: %w", err)
		}
		c.WeekStart = ws
	}

	back, err := parseDuration(raw.ExpandBack)
	if err != nil {
		return fmt.Errorf("parse expand_back: %w", err)
	}
	ahead, err := parseDuration(raw.ExpandAhead)
	if err != nil {
		return fmt.Errorf("parse expand_ahead: %w", err)
	}

	c.View = raw.View
	c.Timezone = raw.Timezone
	c.DayBoundaries = raw.DayBoundaries
	c.MaxEventStack = raw.MaxEventStack
	c.CellHeight = raw.CellHeight
	c.User = raw.User
	c.ExpandBack = back
	c.ExpandAhead = ahead
	return nil
}

// parseDuration extends time.ParseDuration with day ("14d") and week ("2w")
// units. An empty string is zero.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	unit := time.Duration(0)
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	default:
		return time.ParseDuration(s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return time.Duration(n) * unit, nil
}
