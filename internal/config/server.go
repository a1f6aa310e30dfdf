package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost            = "STAMPER_SERVER_HOST"
	EnvServerPort            = "STAMPER_SERVER_PORT"
	EnvServerReadTimeout     = "STAMPER_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "STAMPER_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout     = "STAMPER_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout = "STAMPER_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. Timeouts are Go duration
// strings.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration.
func (c *ServerConfig) ReadTimeoutDuration() time.Duration { return duration(c.ReadTimeout) }

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *ServerConfig) WriteTimeoutDuration() time.Duration { return duration(c.WriteTimeout) }

// IdleTimeoutDuration returns IdleTimeout as a time.Duration.
func (c *ServerConfig) IdleTimeoutDuration() time.Duration { return duration(c.IdleTimeout) }

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration { return duration(c.ShutdownTimeout) }

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for dst, src := range c.timeouts(overlay) {
		if src != "" {
			*dst = src
		}
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8081
	}
	defaults := map[*string]string{
		&c.ReadTimeout:     "1m",
		&c.WriteTimeout:    "5m",
		&c.IdleTimeout:     "2m",
		&c.ShutdownTimeout: "30s",
	}
	for dst, v := range defaults {
		if *dst == "" {
			*dst = v
		}
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	vars := map[*string]string{
		&c.ReadTimeout:     EnvServerReadTimeout,
		&c.WriteTimeout:    EnvServerWriteTimeout,
		&c.IdleTimeout:     EnvServerIdleTimeout,
		&c.ShutdownTimeout: EnvServerShutdownTimeout,
	}
	for dst, name := range vars {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	checks := []struct {
		name  string
		value string
	}{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"idle_timeout", c.IdleTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	}
	for _, check := range checks {
		if _, err := time.ParseDuration(check.value); err != nil {
			return fmt.Errorf("invalid %s: %w", check.name, err)
		}
	}
	return nil
}

// timeouts pairs each timeout field of c with the same field of other.
func (c *ServerConfig) timeouts(other *ServerConfig) map[*string]string {
	return map[*string]string{
		&c.ReadTimeout:     other.ReadTimeout,
		&c.WriteTimeout:    other.WriteTimeout,
		&c.IdleTimeout:     other.IdleTimeout,
		&c.ShutdownTimeout: other.ShutdownTimeout,
	}
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
