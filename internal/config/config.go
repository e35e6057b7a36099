package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// DayViewConfig is the geometry of the rendered day grid.
type DayViewConfig struct {
	// Width is the full table width in pixels, time ruler included.
	Width int `yaml:"width" json:"width"`
	// SlotWidth is the width of the time ruler on the left.
	SlotWidth int `yaml:"slot_width" json:"slot_width"`
	// Height is the table height in pixels.
	Height int `yaml:"height" json:"height"`
	// StartHour / EndHour bound the visible part of the day.
	StartHour int `yaml:"start_hour" json:"start_hour"`
	EndHour   int `yaml:"end_hour" json:"end_hour"`
	// IncrementMinutes is the ruler slot size.
	IncrementMinutes int `yaml:"increment_minutes" json:"increment_minutes"`
}

// PreviewConfig controls headless Chromium captures of the day page.
type PreviewConfig struct {
	// Chromium enables a capture after every successful refresh.
	Chromium bool `yaml:"chromium" json:"chromium"`
	// Path is where the captured PNG is written.
	Path string `yaml:"path" json:"path"`
	// BaseURL is the address Chromium loads /day from. Empty means
	// http://<listen>.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as canonical display zone (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic feed refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the number of future days kept in the snapshot.
	// One past day is always kept as well.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// CacheDir holds the ICS HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// ShowAllDay toggles the all-day section in the rendered view.
	ShowAllDay bool `yaml:"show_all_day" json:"show_all_day"`

	// HighlightRed is a list of keywords that cause events to be rendered in red.
	HighlightRed []string `yaml:"highlight_red" json:"highlight_red"`

	DayView DayViewConfig `yaml:"day_view" json:"day_view"`
	Preview PreviewConfig `yaml:"preview" json:"preview"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health and /metrics.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultRefreshCron = "*/15 * * * *"
	defaultHorizonDays = 7
	defaultCacheDir    = "/var/lib/dayview/ics-cache"
	defaultPreviewPath = "/var/lib/dayview/preview.png"
)

// DefaultDayView matches the classic daily table: 8:00-20:00 in 30 minute
// slots.
func DefaultDayView() DayViewConfig {
	return DayViewConfig{
		Width:            600,
		SlotWidth:        60,
		Height:           720,
		StartHour:        8,
		EndHour:          20,
		IncrementMinutes: 30,
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		Timezone:     defaultTimezone,
		LogLevel:     "info",
		RefreshCron:  defaultRefreshCron,
		HorizonDays:  defaultHorizonDays,
		CacheDir:     defaultCacheDir,
		ShowAllDay:   true,
		HighlightRed: []string{"holiday", "important"},
		DayView:      DefaultDayView(),
		Preview:      PreviewConfig{Path: defaultPreviewPath},
		ICS:          []ICSConfig{},
		BasicAuth:    nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
// It does not repair inconsistent values; see Validate.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.HighlightRed == nil {
		c.HighlightRed = []string{}
	}

	// A missing day_view section decodes to all zeros.
	if c.DayView == (DayViewConfig{}) {
		c.DayView = DefaultDayView()
	}
	if c.DayView.IncrementMinutes == 0 {
		c.DayView.IncrementMinutes = DefaultDayView().IncrementMinutes
	}

	if c.Preview.Path == "" {
		c.Preview.Path = defaultPreviewPath
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Validate reports values that would make the day view impossible to lay out.
func (c *Config) Validate() error {
	var errs []error
	dv := c.DayView

	if dv.Width <= 0 || dv.Height <= 0 {
		errs = append(errs, fmt.Errorf("day_view: width and height must be positive, got %dx%d", dv.Width, dv.Height))
	}
	if dv.SlotWidth < 0 || dv.SlotWidth >= dv.Width {
		errs = append(errs, fmt.Errorf("day_view: slot_width %d must be in [0, width)", dv.SlotWidth))
	}
	if dv.StartHour < 0 || dv.EndHour > 24 || dv.StartHour >= dv.EndHour {
		errs = append(errs, fmt.Errorf("day_view: hours %d..%d must satisfy 0 <= start < end <= 24", dv.StartHour, dv.EndHour))
	}
	if dv.IncrementMinutes <= 0 {
		errs = append(errs, fmt.Errorf("day_view: increment_minutes must be positive, got %d", dv.IncrementMinutes))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	for i, src := range c.ICS {
		if src.URL == "" {
			errs = append(errs, fmt.Errorf("ics[%d]: url is empty", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//   - validate (errors wrap ErrInvalidConfig)
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".dayview-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}
