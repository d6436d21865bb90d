// Package config loads the teamcal settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"teamcal/internal/access"
	"teamcal/internal/palette"
)

const (
	DefaultPath        = "teamcal.yaml"
	defaultAPIURL      = "http://localhost:5000/api"
	defaultSessionFile = ".teamcal-session.json"
	defaultTimezone    = "UTC"
	defaultLogLevel    = "info"
	defaultPublishCron = "*/15 * * * *"
	defaultStateFile   = "import-state.json"
	defaultTokenFile   = "token-google.json"
	defaultHolidayDays = 365
)

// CalDAVConfig points at the collection the calendar is mirrored to.
type CalDAVConfig struct {
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Calendar is the display name of the target collection.
	Calendar string `yaml:"calendar"`
}

// Enabled reports whether enough is set to publish.
func (c CalDAVConfig) Enabled() bool {
	return c.Endpoint != "" && c.Calendar != ""
}

// GoogleConfig configures the holiday import source.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenFile    string `yaml:"token_file"`
	// HolidayCalendar is a Google calendar id, e.g.
	// "en.usa#holiday@group.v.calendar.google.com".
	HolidayCalendar string `yaml:"holiday_calendar"`
	Days            int    `yaml:"days"`
	StateFile       string `yaml:"state_file"`
}

// Config is the top-level application configuration.
type Config struct {
	APIURL        string   `yaml:"api_url"`
	SessionFile   string   `yaml:"session_file"`
	Token         string   `yaml:"token,omitempty"`
	Role          string   `yaml:"role,omitempty"`
	Timezone      string   `yaml:"timezone"`
	Theme         string   `yaml:"theme"`
	ElevatedRoles []string `yaml:"elevated_roles"`
	LogLevel      string   `yaml:"log_level"`
	PublishCron   string   `yaml:"publish_cron"`

	CalDAV CalDAVConfig `yaml:"caldav"`
	Google GoogleConfig `yaml:"google"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.SessionFile == "" {
		c.SessionFile = defaultSessionFile
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	c.Theme = palette.ParseTheme(c.Theme).String()
	if len(c.ElevatedRoles) == 0 {
		c.ElevatedRoles = append([]string(nil), access.DefaultElevatedRoles...)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.PublishCron == "" {
		c.PublishCron = defaultPublishCron
	}
	if c.Google.TokenFile == "" {
		c.Google.TokenFile = defaultTokenFile
	}
	if c.Google.Days <= 0 {
		c.Google.Days = defaultHolidayDays
	}
	if c.Google.StateFile == "" {
		c.Google.StateFile = defaultStateFile
	}
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path with 0600 permissions.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".teamcal-config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// ApplyEnv overrides fields from environment variables. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.APIURL, "TEAMCAL_API_URL")
	set(&c.SessionFile, "TEAMCAL_SESSION_FILE")
	set(&c.Token, "TEAMCAL_TOKEN")
	set(&c.Role, "TEAMCAL_ROLE")
	set(&c.Timezone, "TEAMCAL_TIMEZONE")
	set(&c.Theme, "TEAMCAL_THEME")
	set(&c.LogLevel, "LOG_LEVEL")
	set(&c.PublishCron, "TEAMCAL_PUBLISH_CRON")
	if v := getenv("TEAMCAL_ELEVATED_ROLES"); strings.TrimSpace(v) != "" {
		c.ElevatedRoles = splitList(v)
	}

	set(&c.CalDAV.Endpoint, "CALDAV_ENDPOINT")
	set(&c.CalDAV.Username, "CALDAV_USERNAME")
	set(&c.CalDAV.Password, "CALDAV_PASSWORD")
	set(&c.CalDAV.Calendar, "CALDAV_CALENDAR")

	set(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	set(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&c.Google.TokenFile, "GOOGLE_TOKEN_FILE")
	set(&c.Google.HolidayCalendar, "GOOGLE_HOLIDAY_CALENDAR")

	c.Normalize()
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return loc, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
