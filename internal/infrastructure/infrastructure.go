// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, storage, PDF codec, metrics,
// tracing) that the document systems require.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/stamper/internal/config"
	"github.com/JaimeStill/stamper/internal/filestore"
	"github.com/JaimeStill/stamper/pkg/imaging"
	"github.com/JaimeStill/stamper/pkg/lifecycle"
	"github.com/JaimeStill/stamper/pkg/logging"
	"github.com/JaimeStill/stamper/pkg/pdf"
	"github.com/JaimeStill/stamper/pkg/storage"
	"github.com/JaimeStill/stamper/pkg/tracing"
)

// Infrastructure holds the core systems required by the document domain.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Storage   storage.System
	Files     filestore.Store
	Codec     pdf.Codec
	Encoder   imaging.Encoder
	Registry  *prometheus.Registry

	shutdownTracing tracing.ShutdownFunc
}

// New creates an Infrastructure logging to stderr. See NewWithWriter.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates an Infrastructure from the application configuration
// with log output sent to w. It initializes all systems but does not start
// them; call Start separately.
func NewWithWriter(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging, w)

	sys, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	shutdown, err := tracing.Init(lc.Context(), &cfg.Tracing, logger)
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Infrastructure{
		Lifecycle:       lc,
		Logger:          logger,
		Storage:         sys,
		Files:           filestore.New(sys, logger),
		Codec:           pdf.NewCodec(pdf.NewMagickRasterizer(cfg.Render.TempDir)),
		Encoder:         imaging.NewJPEG(imaging.DefaultQuality),
		Registry:        registry,
		shutdownTracing: shutdown,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Storage must start before the file store so the root exists when the
// thumbnail directory is created.
func (i *Infrastructure) Start() error {
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Files.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("file store start failed: %w", err)
	}

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		if err := i.shutdownTracing(context.Background()); err != nil {
			i.Logger.Error("tracing shutdown failed", "error", err)
		}
	})

	return nil
}
