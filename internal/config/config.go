// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Environment variables read by FromEnv.
const (
	EnvAPIURL  = "RESUME_API_URL"
	EnvTokenDB = "RESUME_TOKEN_DB"
	EnvLogFile = "RESUME_LOG_FILE"
	EnvTimeout = "RESUME_TIMEOUT_SECONDS"
)

const (
	DefaultAPIURL             = "http://localhost:5000"
	DefaultTimeoutSeconds     = 30
	DefaultProgressIntervalMS = 200
	DefaultLogLevel           = "warn"
)

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true,
}

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	// Backend
	APIURL         string `json:"api_url,omitempty"`         // Base URL of the resume backend
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"` // Per-request timeout

	// Local state
	TokenDB string `json:"token_db,omitempty"` // SQLite file holding the session token

	// Upload
	ProgressIntervalMS int `json:"progress_interval_ms,omitempty"` // Synthetic progress tick

	// Logging
	LogFile  string `json:"log_file,omitempty"`  // Log destination, stderr when empty
	LogLevel string `json:"log_level,omitempty"` // zerolog level name
	Verbose  bool   `json:"verbose,omitempty"`   // Print detailed debug information
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:             DefaultAPIURL,
		TimeoutSeconds:     DefaultTimeoutSeconds,
		TokenDB:            DefaultTokenDB(),
		ProgressIntervalMS: DefaultProgressIntervalMS,
		LogLevel:           DefaultLogLevel,
	}
}

// DefaultTokenDB is ~/.resume-studio/session.db, or a file in the working
// directory when there is no home directory.
func DefaultTokenDB() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "resume-studio-session.db"
	}
	return filepath.Join(home, ".resume-studio", "session.db")
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv returns a Config holding only the values set in the environment.
func FromEnv() (Config, error) {
	cfg := Config{
		APIURL:  os.Getenv(EnvAPIURL),
		TokenDB: os.Getenv(EnvTokenDB),
		LogFile: os.Getenv(EnvLogFile),
	}
	if raw := os.Getenv(EnvTimeout); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %v", EnvTimeout, err)
		}
		cfg.TimeoutSeconds = seconds
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
// Empty fields are accepted; they are filled by MergeWithDefaults.
func (c *Config) Validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'api_url' must be an absolute URL, got %q", c.APIURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("config error: 'api_url' scheme must be http or https, got %q", u.Scheme)
		}
	}

	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'timeout_seconds' must be non-negative")
	}
	if c.ProgressIntervalMS < 0 {
		return fmt.Errorf("config error: 'progress_interval_ms' must be non-negative")
	}

	if c.LogLevel != "" && !logLevels[c.LogLevel] {
		return fmt.Errorf("config error: unknown 'log_level' %q", c.LogLevel)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// It is applied in layers: flags over environment over file over built-ins.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.TokenDB == "" {
		result.TokenDB = defaults.TokenDB
	}
	if result.LogFile == "" {
		result.LogFile = defaults.LogFile
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	// Int fields: use default if zero
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.ProgressIntervalMS == 0 {
		result.ProgressIntervalMS = defaults.ProgressIntervalMS
	}

	// Bool fields: a true default wins since unset and false look the same
	if defaults.Verbose {
		result.Verbose = true
	}

	return result
}

// Timeout is the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ProgressInterval is the upload progress tick.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalMS) * time.Millisecond
}
