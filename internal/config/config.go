// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/bcard-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete bcard configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Session SessionConfig `toml:"session"`
	Login   LoginConfig   `toml:"login"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

// APIConfig describes how to reach the card directory REST API.
type APIConfig struct {
	// BaseURL has no trailing slash so paths can be appended directly.
	BaseURL     string `toml:"base_url"`
	TimeoutSecs int    `toml:"timeout_secs"`
	// RatePerSec caps outgoing requests; 0 disables the limiter.
	RatePerSec float64 `toml:"rate_per_sec"`
	Burst      int     `toml:"burst"`
}

// SessionConfig controls session token persistence.
type SessionConfig struct {
	// TokenFile is where the session token survives restarts.
	// Empty means ~/.bcard/token.
	TokenFile string `toml:"token_file"`
	// Watch re-syncs the identity when another bcard process changes the
	// token file (login or logout in a second terminal).
	Watch bool `toml:"watch"`
}

// LoginConfig controls the client-side attempt display.
type LoginConfig struct {
	// MaxAttempts is the attempt budget shown on a fresh login form.
	MaxAttempts int `toml:"max_attempts"`
	// CheckIntervalMillis is how often a running lockout is compared
	// against the wall clock.
	CheckIntervalMillis int `toml:"check_interval_ms"`
}

// CacheConfig controls the local copy of the public card directory.
type CacheConfig struct {
	// Enabled keeps the copy for search and for listing while offline.
	Enabled bool `toml:"enabled"`
	// File is the SQLite database. Empty means ~/.bcard/cards.db.
	File string `toml:"file"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `toml:"level"`
	// File is the log destination. The TUI owns stdout, so logs never go there.
	File string `toml:"file"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	Theme   string `toml:"theme"`
	Compact bool   `toml:"compact"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultBaseURL is the public card directory deployment.
	DefaultBaseURL = "https://cards-server-boris.onrender.com"

	// DefaultMaxAttempts matches the server's lockout threshold.
	DefaultMaxAttempts = 3

	// DefaultCheckInterval is the lockout polling cadence.
	DefaultCheckInterval = 2 * time.Second
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     DefaultBaseURL,
			TimeoutSecs: 30,
			RatePerSec:  5,
			Burst:       10,
		},
		Session: SessionConfig{
			TokenFile: "",
			Watch:     true,
		},
		Login: LoginConfig{
			MaxAttempts:         DefaultMaxAttempts,
			CheckIntervalMillis: int(DefaultCheckInterval / time.Millisecond),
		},
		Cache: CacheConfig{
			Enabled: true,
			File:    "",
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
		UI: UIConfig{
			Theme:   "dark",
			Compact: false,
		},
	}
}

// Timeout returns the per-request timeout.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSecs) * time.Second
}

// CheckInterval returns the lockout polling cadence as a duration.
func (l LoginConfig) CheckInterval() time.Duration {
	if l.CheckIntervalMillis <= 0 {
		return DefaultCheckInterval
	}
	return time.Duration(l.CheckIntervalMillis) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the bcard configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("BCARD_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".bcard"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// TokenPath returns the resolved session token file.
func (c *Config) TokenPath() (string, error) {
	if c.Session.TokenFile != "" {
		return c.Session.TokenFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token"), nil
}

// CachePath returns the resolved card cache database.
func (c *Config) CachePath() (string, error) {
	if c.Cache.File != "" {
		return c.Cache.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cards.db"), nil
}

// LogPath returns the resolved log file.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bcard.log"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when it does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file. A missing file
// is not an error; the defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
	}

	// .env is optional; godotenv.Load never overrides variables that are
	// already present in the environment.
	_ = godotenv.Load()

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to the default TOML config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# bcard configuration file\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.WriteFileAtomic(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies BCARD_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("BCARD_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("BCARD_TOKEN_FILE"); v != "" {
		c.Session.TokenFile = v
	}
	if v := os.Getenv("BCARD_CACHE_FILE"); v != "" {
		c.Cache.File = v
	}
	if v := os.Getenv("BCARD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BCARD_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	defaults := Default()

	c.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.API.Burst == 0 {
		c.API.Burst = defaults.API.Burst
	}
	if c.Login.MaxAttempts == 0 {
		c.Login.MaxAttempts = defaults.Login.MaxAttempts
	}
	if c.Login.CheckIntervalMillis == 0 {
		c.Login.CheckIntervalMillis = defaults.Login.CheckIntervalMillis
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL '%s'", c.API.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
		})
	}

	if c.API.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "api.timeout_secs", Message: "must not be negative"})
	}
	if c.API.RatePerSec < 0 {
		errs = append(errs, ValidationError{Field: "api.rate_per_sec", Message: "must not be negative"})
	}
	if c.API.Burst < 1 {
		errs = append(errs, ValidationError{Field: "api.burst", Message: "must be at least 1"})
	}

	if c.Login.MaxAttempts < 1 || c.Login.MaxAttempts > 10 {
		errs = append(errs, ValidationError{
			Field:   "login.max_attempts",
			Message: fmt.Sprintf("%d out of range, must be 1-10", c.Login.MaxAttempts),
		})
	}
	if c.Login.CheckIntervalMillis < 100 {
		errs = append(errs, ValidationError{
			Field:   "login.check_interval_ms",
			Message: "must be at least 100",
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
