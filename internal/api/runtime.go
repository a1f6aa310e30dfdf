package api

import (
	"github.com/JaimeStill/stamper/internal/config"
	"github.com/JaimeStill/stamper/internal/infrastructure"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	BasePath      string
	MaxUploadSize int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		BasePath:       cfg.API.BasePath,
		MaxUploadSize:  cfg.API.MaxUploadSizeBytes(),
	}
}
