package config

import "os"

const EnvRenderTempDir = "STAMPER_RENDER_TEMP_DIR"

// RenderConfig holds rasterizer settings. Thumbnails are always rendered
// at 300 DPI; only the scratch location is configurable.
type RenderConfig struct {
	TempDir string `toml:"temp_dir"`
}

// Finalize applies defaults and environment variable overrides.
func (c *RenderConfig) Finalize() error {
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if v := os.Getenv(EnvRenderTempDir); v != "" {
		c.TempDir = v
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *RenderConfig) Merge(overlay *RenderConfig) {
	if overlay.TempDir != "" {
		c.TempDir = overlay.TempDir
	}
}
