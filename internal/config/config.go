// Package config loads the service configuration from config.toml, an
// optional environment overlay, and STAMPER_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/stamper/pkg/logging"
	"github.com/JaimeStill/stamper/pkg/storage"
	"github.com/JaimeStill/stamper/pkg/tracing"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvStamperEnv             = "STAMPER_ENV"
	EnvStamperShutdownTimeout = "STAMPER_SHUTDOWN_TIMEOUT"
	EnvStamperVersion         = "STAMPER_VERSION"
)

var storageEnv = &storage.Env{
	Root: "STAMPER_STORAGE_ROOT",
}

var loggingEnv = &logging.Env{
	Level:  "STAMPER_LOG_LEVEL",
	Format: "STAMPER_LOG_FORMAT",
}

var tracingEnv = &tracing.Env{
	Enabled:     "STAMPER_TRACING_ENABLED",
	Protocol:    "STAMPER_TRACING_PROTOCOL",
	Endpoint:    "STAMPER_TRACING_ENDPOINT",
	Insecure:    "STAMPER_TRACING_INSECURE",
	ServiceName: "STAMPER_TRACING_SERVICE_NAME",
	Sampler:     "STAMPER_TRACING_SAMPLER",
	SamplerArg:  "STAMPER_TRACING_SAMPLER_ARG",
}

// Config is the root configuration for the stamper service and CLI.
type Config struct {
	Server          ServerConfig   `toml:"server"`
	Storage         storage.Config `toml:"storage"`
	Render          RenderConfig   `toml:"render"`
	API             APIConfig      `toml:"api"`
	Logging         logging.Config `toml:"logging"`
	Tracing         tracing.Config `toml:"tracing"`
	ShutdownTimeout string         `toml:"shutdown_timeout"`
	Version         string         `toml:"version"`
}

// Env returns the STAMPER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvStamperEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads config.toml from the working directory. See LoadFile.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile reads the base config at path (if present), merges the
// config.<env>.toml overlay found beside it, and finalizes all values. When
// no base file exists, defaults and environment variables provide all
// configuration.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(filepath.Dir(path)); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Storage.Merge(&overlay.Storage)
	c.Render.Merge(&overlay.Render)
	c.API.Merge(&overlay.API)
	c.Logging.Merge(&overlay.Logging)
	c.Tracing.Merge(&overlay.Tracing)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Render.Finalize(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Tracing.Finalize(tracingEnv); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvStamperShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvStamperVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	env := os.Getenv(EnvStamperEnv)
	if env == "" {
		return ""
	}

	path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
