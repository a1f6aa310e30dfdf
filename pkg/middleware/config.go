package middleware

import (
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds the cross-origin policy for browser clients.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	ExposedHeaders   []string `toml:"exposed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv names the environment variables that override CORSConfig fields.
// List values are comma separated.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	ExposedHeaders   string
	AllowCredentials string
	MaxAge           string
}

// Finalize applies defaults, environment overrides and validation.
func (c *CORSConfig) Finalize(env *CORSEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Booleans always apply; lists apply
// when set and MaxAge when positive.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = overlay.Enabled
	c.AllowCredentials = overlay.AllowCredentials

	for dst, src := range map[*[]string][]string{
		&c.Origins:        overlay.Origins,
		&c.AllowedMethods: overlay.AllowedMethods,
		&c.AllowedHeaders: overlay.AllowedHeaders,
		&c.ExposedHeaders: overlay.ExposedHeaders,
	} {
		if src != nil {
			*dst = src
		}
	}
	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) loadDefaults() {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", RequestIDHeader}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{"Content-Disposition", RequestIDHeader}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}
}

func (c *CORSConfig) loadEnv(env *CORSEnv) {
	if v, ok := envBool(env.Enabled); ok {
		c.Enabled = v
	}
	if v, ok := envBool(env.AllowCredentials); ok {
		c.AllowCredentials = v
	}
	if v, ok := envList(env.Origins); ok {
		c.Origins = v
	}
	if v, ok := envList(env.AllowedMethods); ok {
		c.AllowedMethods = v
	}
	if v, ok := envList(env.AllowedHeaders); ok {
		c.AllowedHeaders = v
	}
	if v, ok := envList(env.ExposedHeaders); ok {
		c.ExposedHeaders = v
	}
	if name := env.MaxAge; name != "" {
		if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
			c.MaxAge = n
		}
	}
}

func (c *CORSConfig) validate() error {
	if c.AllowCredentials && slices.Contains(c.Origins, "*") {
		return errors.New("wildcard origin cannot be combined with allow_credentials")
	}
	return nil
}

func envBool(name string) (bool, bool) {
	if name == "" {
		return false, false
	}
	v, err := strconv.ParseBool(os.Getenv(name))
	return v, err == nil
}

func envList(name string) ([]string, bool) {
	if name == "" {
		return nil, false
	}
	raw := os.Getenv(name)
	if raw == "" {
		return nil, false
	}

	var items []string
	for item := range strings.SplitSeq(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items, len(items) > 0
}
