package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Supported output formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// Config selects the level and output format of the root logger.
type Config struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Env maps logging config fields to environment variable names for override injection.
type Env struct {
	Level  string
	Format string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}

// SlogLevel returns the configured level. Unknown values resolve to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *Config) loadDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatText
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Level != "" {
		if v := os.Getenv(env.Level); v != "" {
			c.Level = v
		}
	}
	if env.Format != "" {
		if v := os.Getenv(env.Format); v != "" {
			c.Format = v
		}
	}
}

func (c *Config) validate() error {
	c.Format = strings.ToLower(c.Format)
	switch c.Format {
	case FormatText, FormatJSON, FormatPretty:
	default:
		return fmt.Errorf("invalid format %q: want text, json or pretty", c.Format)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("invalid level %q: %w", c.Level, err)
	}
	return nil
}
