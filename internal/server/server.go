// Package server assembles the HTTP service: infrastructure, the API
// module, probes, metrics and the listener.
package server

import (
	"io"
	"net/http"
	"time"

	"github.com/JaimeStill/stamper/internal/config"
	"github.com/JaimeStill/stamper/internal/infrastructure"
)

// Server owns the infrastructure, mounted modules and HTTP listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	handler http.Handler
	http    *httpServer
}

// New assembles the service from cfg, logging to w, without starting it.
func New(cfg *config.Config, w io.Writer) (*Server, error) {
	infra, err := infrastructure.NewWithWriter(cfg, w)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"root", cfg.Storage.Root,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		handler: router,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Handler returns the routed handler without tracing instrumentation.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts infrastructure then the listener. Readiness flips once
// every startup hook has finished.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Error("startup failed", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown cancels the lifecycle and waits for shutdown hooks.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
