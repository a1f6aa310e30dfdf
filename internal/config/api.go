package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/stamper/pkg/formatting"
	"github.com/JaimeStill/stamper/pkg/middleware"
	"github.com/JaimeStill/stamper/pkg/openapi"
)

const (
	EnvAPIBasePath      = "STAMPER_API_BASE_PATH"
	EnvAPIMaxUploadSize = "STAMPER_API_MAX_UPLOAD_SIZE"

	defaultMaxUploadSize = 50 * 1024 * 1024
)

// DefaultCORSOrigin is the development frontend allowed when no origins
// are configured.
const DefaultCORSOrigin = "http://localhost:3000"

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "STAMPER_OPENAPI_TITLE",
	Description: "STAMPER_OPENAPI_DESCRIPTION",
	Servers:     "STAMPER_OPENAPI_SERVERS",
}

var corsEnv = &middleware.CORSEnv{
	Enabled:          "STAMPER_CORS_ENABLED",
	Origins:          "STAMPER_CORS_ORIGINS",
	AllowedMethods:   "STAMPER_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "STAMPER_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "STAMPER_CORS_EXPOSED_HEADERS",
	AllowCredentials: "STAMPER_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "STAMPER_CORS_MAX_AGE",
}

// APIConfig holds API routing, upload limits, CORS and OpenAPI settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes, falling back to 50MB
// when the value cannot be parsed.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil || size <= 0 {
		return defaultMaxUploadSize
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	if len(c.CORS.Origins) == 0 {
		c.CORS.Origins = []string{DefaultCORSOrigin}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("invalid base_path %q: want a single segment such as /api", c.BasePath)
	}
	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	return nil
}
