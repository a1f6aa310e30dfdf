// Package api assembles the API module with the document systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/stamper/internal/config"
	"github.com/JaimeStill/stamper/internal/infrastructure"
	"github.com/JaimeStill/stamper/pkg/middleware"
	"github.com/JaimeStill/stamper/pkg/module"
)

// NewModule creates the API module with the document handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	requests, err := middleware.NewMetrics(runtime.Registry)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.SpanName(cfg.API.BasePath))
	m.Use(requests.Handler())

	return m, nil
}
