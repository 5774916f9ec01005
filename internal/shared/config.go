package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is prepended to every environment override, e.g. FILMX_API_BASE_URL.
const EnvPrefix = "FILMX_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api" envPrefix:"API_"`
	Session  SessionConfig  `toml:"session" envPrefix:"SESSION_"`
	Database DatabaseConfig `toml:"database" envPrefix:"DATABASE_"`
	UI       UIConfig       `toml:"ui" envPrefix:"UI_"`
	Log      LogConfig      `toml:"log" envPrefix:"LOG_"`
}

// APIConfig points the client at the film collection backend.
type APIConfig struct {
	BaseURL        string  `toml:"base_url" env:"BASE_URL"`
	TimeoutSeconds int     `toml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	RateLimit      float64 `toml:"rate_limit" env:"RATE_LIMIT"`
}

// SessionConfig selects where the bearer token is kept between runs.
type SessionConfig struct {
	Backend string `toml:"backend" env:"BACKEND"` // sqlite or keyring
	Profile string `toml:"profile" env:"PROFILE"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"PATH"`
	MaxOpenConns int    `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
}

// UIConfig holds collection view and notification defaults.
type UIConfig struct {
	PageSize            int `toml:"page_size" env:"PAGE_SIZE"`
	NotificationSeconds int `toml:"notification_seconds" env:"NOTIFICATION_SECONDS"`
	MinSearchLength     int `toml:"min_search_length" env:"MIN_SEARCH_LENGTH"`
}

// LogConfig controls the logger level and the TUI log file.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
	File  string `toml:"file" env:"FILE"`
}

// Session backends
const (
	SessionBackendSQLite  = "sqlite"
	SessionBackendKeyring = "keyring"
)

// PageSizes lists the page sizes a collection view accepts.
var PageSizes = []int{5, 10, 20, 50}

// Timeout returns the HTTP timeout as a [time.Duration].
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NotificationWindow returns the auto-dismiss window for toasts.
func (c UIConfig) NotificationWindow() time.Duration {
	return time.Duration(c.NotificationSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads KEY=value pairs from the given files (default ".env") into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays FILMX_* environment variables onto config.
func ApplyEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ResolveConfig builds the effective configuration: embedded defaults, then the TOML file at path when it exists,
// then .env and the process environment. The result is validated.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that would otherwise fail later at request time.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q is not an absolute URL", ErrInvalidConfig, c.API.BaseURL)
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: api.timeout_seconds must not be negative", ErrInvalidConfig)
	}

	switch c.Session.Backend {
	case SessionBackendSQLite, SessionBackendKeyring:
	default:
		return fmt.Errorf("%w: session.backend must be %q or %q", ErrInvalidConfig, SessionBackendSQLite, SessionBackendKeyring)
	}

	if !slices.Contains(PageSizes, c.UI.PageSize) {
		return fmt.Errorf("%w: ui.page_size must be one of %v", ErrInvalidConfig, PageSizes)
	}
	if c.UI.NotificationSeconds <= 0 {
		return fmt.Errorf("%w: ui.notification_seconds must be positive", ErrInvalidConfig)
	}
	if c.UI.MinSearchLength < 1 {
		return fmt.Errorf("%w: ui.min_search_length must be at least 1", ErrInvalidConfig)
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
