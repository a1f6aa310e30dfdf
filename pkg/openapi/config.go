package openapi

import (
	"os"
	"strings"
)

// Config holds the document metadata that is not derived from routes.
type Config struct {
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Servers     []string `toml:"servers"`
}

// ConfigEnv names the environment variables that override Config fields.
// Servers is read as a comma separated list.
type ConfigEnv struct {
	Title       string
	Description string
	Servers     string
}

// Finalize applies defaults and environment variable overrides.
func (c *Config) Finalize(env *ConfigEnv) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.Servers != nil {
		c.Servers = overlay.Servers
	}
}

// Apply copies the metadata onto spec.
func (c *Config) Apply(spec *Spec) {
	spec.Info.Title = c.Title
	spec.SetDescription(c.Description)
	for _, url := range c.Servers {
		spec.AddServer(url)
	}
}

func (c *Config) loadDefaults() {
	if c.Title == "" {
		c.Title = "Stamper API"
	}
	if c.Description == "" {
		c.Description = "Upload, stamp and preview PDF documents."
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	if v := getenv(env.Title); v != "" {
		c.Title = v
	}
	if v := getenv(env.Description); v != "" {
		c.Description = v
	}
	if v := getenv(env.Servers); v != "" {
		c.Servers = c.Servers[:0]
		for url := range strings.SplitSeq(v, ",") {
			if url = strings.TrimSpace(url); url != "" {
				c.Servers = append(c.Servers, url)
			}
		}
	}
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
