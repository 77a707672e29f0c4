// Copyright 2026 The Fader Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the faderd daemon configuration.
type Config struct {
	// SocketPath is the Unix socket the daemon listens on. A leading
	// "@" selects the Linux abstract namespace (no filesystem entry).
	SocketPath string `yaml:"socket_path"`

	// StatePath is the SQLite file persisting mixer state across
	// restarts. Empty disables persistence.
	StatePath string `yaml:"state_path"`

	// RulesPath is the JSONC file declaring program routing rules.
	// Empty disables the rules file and its change watcher.
	RulesPath string `yaml:"rules_path"`

	// MaxClients caps concurrent client connections. Connections
	// beyond the cap are accepted and immediately closed.
	MaxClients int `yaml:"max_clients"`

	// PollTimeout bounds each readiness wait, and therefore how
	// quickly the daemon notices shutdown and rules-file changes.
	// Duration string ("500ms").
	PollTimeout string `yaml:"poll_timeout"`

	// DrainTimeout bounds the flush of queued replies during
	// shutdown. Duration string ("1s").
	DrainTimeout string `yaml:"drain_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the default configuration. faderd runs on these
// values when no config file is supplied.
func Default() *Config {
	return &Config{
		SocketPath:   defaultSocketPath(),
		MaxClients:   64,
		PollTimeout:  "500ms",
		DrainTimeout: "1s",
		LogLevel:     "info",
	}
}

// defaultSocketPath places the socket under XDG_RUNTIME_DIR when set,
// falling back to /tmp for systems without a session runtime dir.
func defaultSocketPath() string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "fader", "faderd.sock")
	}
	return fmt.Sprintf("/tmp/fader-%d/faderd.sock", os.Getuid())
}

// Load loads configuration from the FADER_CONFIG environment variable,
// or returns Default when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("FADER_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging the
// file's values over Default. The config file is the single source of
// truth; environment variables do not override its values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors. All problems are
// reported at once.
func (c *Config) Validate() error {
	var errs []error

	if c.SocketPath == "" {
		errs = append(errs, fmt.Errorf("socket_path is required"))
	}
	if c.MaxClients < 1 {
		errs = append(errs, fmt.Errorf("max_clients must be at least 1, got %d", c.MaxClients))
	}
	if _, err := time.ParseDuration(c.PollTimeout); err != nil {
		errs = append(errs, fmt.Errorf("poll_timeout: %w", err))
	}
	if _, err := time.ParseDuration(c.DrainTimeout); err != nil {
		errs = append(errs, fmt.Errorf("drain_timeout: %w", err))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error: got %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// PollTimeoutDuration returns the parsed poll timeout. Call Validate
// first; an unparseable value falls back to the default.
func (c *Config) PollTimeoutDuration() time.Duration {
	duration, err := time.ParseDuration(c.PollTimeout)
	if err != nil {
		return 500 * time.Millisecond
	}
	return duration
}

// DrainTimeoutDuration returns the parsed drain timeout. Call
// Validate first; an unparseable value falls back to the default.
func (c *Config) DrainTimeoutDuration() time.Duration {
	duration, err := time.ParseDuration(c.DrainTimeout)
	if err != nil {
		return time.Second
	}
	return duration
}

// SlogLevel maps the configured log level to a slog.Level. Unknown
// values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
