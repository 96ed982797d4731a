// Package config loads taskcore settings from a YAML file and the environment.
//
// Precedence, highest first: command-line flags (applied by the caller),
// TASKCORE_DB, the config file, built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvDatabase overrides the database path from the config file.
const EnvDatabase = "TASKCORE_DB"

// Defaults.
const (
	DefaultDatabase        = "taskcore.db"
	DefaultHighlightWindow = 2 * time.Second
	DefaultLogLevel        = "warn"
)

// Config holds resolved settings.
type Config struct {
	// Database is the SQLite file path.
	Database string `yaml:"database"`

	// HighlightWindow is how long a toggled or edited task stays highlighted.
	HighlightWindow Duration `yaml:"highlight_window"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Duration is a time.Duration that reads from a Go duration string ("2s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:        DefaultDatabase,
		HighlightWindow: Duration(DefaultHighlightWindow),
		LogLevel:        DefaultLogLevel,
	}
}

// Load reads the config file at path over the defaults, then applies the
// environment. An empty path, or a path that does not exist, yields the
// defaults plus environment.
//
// Unknown fields are rejected so typos surface instead of being ignored.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			decoder := yaml.NewDecoder(bytes.NewReader(data))
			decoder.KnownFields(true)
			if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
				return Config{}, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if db := strings.TrimSpace(os.Getenv(EnvDatabase)); db != "" {
		cfg.Database = db
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return errors.New("config: database must not be empty")
	}
	if c.HighlightWindow <= 0 {
		return fmt.Errorf("config: highlight_window must be positive, got %s", time.Duration(c.HighlightWindow))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Level returns the slog level for LogLevel. Call after Validate.
func (c Config) Level() slog.Level {
	lvl, _ := ParseLevel(c.LogLevel)
	return lvl
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
