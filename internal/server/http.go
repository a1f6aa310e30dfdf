package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/JaimeStill/stamper/internal/config"
	"github.com/JaimeStill/stamper/pkg/lifecycle"
	"github.com/JaimeStill/stamper/pkg/middleware"
)

type httpServer struct {
	http            *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// newHTTPServer wraps handler in a server span. The span starts out named by
// method alone because the route pattern is unknown until a ServeMux has
// matched; SpanName renames it afterwards so document names never reach
// span names.
func newHTTPServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger, opts ...otelhttp.Option) *httpServer {
	opts = append(opts, otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		return r.Method
	}))
	traced := otelhttp.NewHandler(middleware.SpanName("")(handler), "stamper", opts...)

	return &httpServer{
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      traced,
			ReadTimeout:  cfg.ReadTimeoutDuration(),
			WriteTimeout: cfg.WriteTimeoutDuration(),
			IdleTimeout:  cfg.IdleTimeoutDuration(),
		},
		logger:          logger.With("system", "http"),
		shutdownTimeout: cfg.ShutdownTimeoutDuration(),
	}
}

func (s *httpServer) Start(lc *lifecycle.Coordinator) error {
	go func() {
		s.logger.Info("server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("server shutdown error", "error", err)
			return
		}
		s.logger.Info("server shutdown complete")
	})

	return nil
}
