package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/stamper/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8081
read_timeout = "1m"
write_timeout = "5m"
shutdown_timeout = "30s"

[storage]
root = "./data"

[api]
base_path = "/api"
max_upload_size = "20MB"

[api.cors]
enabled = true
origins = ["http://localhost:3000"]

[logging]
level = "debug"
format = "json"

[tracing]
enabled = false
protocol = "grpc"
`

const overlayConfig = `
[server]
port = 9090

[storage]
root = "/srv/stamper"

[logging]
format = "pretty"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func loadBase(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadBase(t)

	if cfg.Server.Port != 8081 {
		t.Errorf("server port: got %d, want 8081", cfg.Server.Port)
	}
	if cfg.Storage.Root != "./data" {
		t.Errorf("storage root: got %s, want ./data", cfg.Storage.Root)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path: got %s, want /api", cfg.API.BasePath)
	}
	if got := cfg.API.MaxUploadSizeBytes(); got != 20*1024*1024 {
		t.Errorf("max upload size: got %d, want 20MB", got)
	}
	if !cfg.API.CORS.Enabled {
		t.Error("cors should be enabled")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging: got %+v", cfg.Logging)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv(config.EnvStamperEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Storage.Root != "/srv/stamper" {
		t.Errorf("storage root: got %s, want /srv/stamper (from overlay)", cfg.Storage.Root)
	}
	if cfg.Logging.Format != "pretty" {
		t.Errorf("logging format: got %s, want pretty (from overlay)", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level: got %s, want debug (from base)", cfg.Logging.Level)
	}
}

func TestLoadFileOverlayBesideBase(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "custom.toml", baseConfig)
	writeConfig(t, dir, "config.prod.toml", overlayConfig)
	chdir(t, t.TempDir())

	t.Setenv(config.EnvStamperEnv, "prod")

	cfg, err := config.LoadFile(filepath.Join(dir, "custom.toml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	t.Setenv("STAMPER_VERSION", "2.0.0")
	t.Setenv("STAMPER_SERVER_PORT", "3000")
	t.Setenv("STAMPER_STORAGE_ROOT", "/tmp/uploads")
	t.Setenv("STAMPER_LOG_LEVEL", "warn")
	t.Setenv("STAMPER_TRACING_ENABLED", "true")
	t.Setenv("STAMPER_RENDER_TEMP_DIR", "/scratch")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Storage.Root != "/tmp/uploads" {
		t.Errorf("storage root: got %s, want /tmp/uploads", cfg.Storage.Root)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging level: got %s, want warn", cfg.Logging.Level)
	}
	if !cfg.Tracing.Enabled {
		t.Error("tracing should be enabled from env")
	}
	if cfg.Render.TempDir != "/scratch" {
		t.Errorf("render temp_dir: got %s, want /scratch", cfg.Render.TempDir)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("server port default: got %d, want 8081", cfg.Server.Port)
	}
	if cfg.Storage.Root != "./uploads" {
		t.Errorf("storage root default: got %s, want ./uploads", cfg.Storage.Root)
	}
	if len(cfg.API.CORS.Origins) != 1 || cfg.API.CORS.Origins[0] != config.DefaultCORSOrigin {
		t.Errorf("cors origins default: got %v", cfg.API.CORS.Origins)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("logging format default: got %s, want text", cfg.Logging.Format)
	}
	if cfg.Render.TempDir == "" {
		t.Error("render temp_dir should default to the system temp dir")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, `[server`)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnvDefault(t *testing.T) {
	cfg := loadBase(t)

	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
}

func TestEnvFromEnvVar(t *testing.T) {
	cfg := loadBase(t)
	t.Setenv(config.EnvStamperEnv, "production")

	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestDurations(t *testing.T) {
	cfg := loadBase(t)

	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
	if d := cfg.Server.WriteTimeoutDuration(); d != 5*time.Minute {
		t.Errorf("write timeout: got %v, want 5m", d)
	}
	if d := cfg.Server.IdleTimeoutDuration(); d != 2*time.Minute {
		t.Errorf("idle timeout default: got %v, want 2m", d)
	}
}

func TestServerAddr(t *testing.T) {
	cfg := loadBase(t)

	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8081" {
		t.Errorf("addr: got %s, want 0.0.0.0:8081", addr)
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"valid 50MB", "50MB", 50 * 1024 * 1024},
		{"valid 10MB", "10MB", 10 * 1024 * 1024},
		{"valid 1GB", "1GB", 1024 * 1024 * 1024},
		{"invalid falls back to 50MB", "bad", 50 * 1024 * 1024},
		{"empty falls back to 50MB", "", 50 * 1024 * 1024},
		{"zero falls back to 50MB", "0", 50 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			if got := cfg.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMaxUploadSizeEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	t.Setenv(config.EnvAPIMaxUploadSize, "100MB")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if got := cfg.API.MaxUploadSizeBytes(); got != 100*1024*1024 {
		t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, 100*1024*1024)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{"invalid port", "[server]\nport = 99999\n", "invalid port"},
		{"invalid read_timeout", "[server]\nread_timeout = \"bad\"\n", "invalid read_timeout"},
		{"invalid shutdown_timeout", "shutdown_timeout = \"soon\"\n", "invalid shutdown_timeout"},
		{"nested base_path", "[api]\nbase_path = \"/api/v1\"\n", "invalid base_path"},
		{"invalid max_upload_size", "[api]\nmax_upload_size = \"lots\"\n", "invalid max_upload_size"},
		{"invalid log format", "[logging]\nformat = \"xml\"\n", "invalid format"},
		{"invalid tracing protocol", "[tracing]\nprotocol = \"udp\"\n", "unsupported OTLP protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, config.BaseConfigFile, tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
