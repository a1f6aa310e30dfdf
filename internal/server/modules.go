package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/stamper/internal/api"
	"github.com/JaimeStill/stamper/internal/config"
	"github.com/JaimeStill/stamper/internal/infrastructure"
	"github.com/JaimeStill/stamper/pkg/middleware"
	"github.com/JaimeStill/stamper/pkg/module"
)

// Modules holds the mounted HTTP modules.
type Modules struct {
	API *module.Module
}

// NewModules creates every module served by the process.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

// Mount registers the modules on router.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})

	router.Handle("GET "+middleware.MetricsPath, promhttp.HandlerFor(infra.Registry, promhttp.HandlerOpts{
		Registry: infra.Registry,
	}))

	return router
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": message})
}
