package api

import (
	"fmt"

	"github.com/JaimeStill/stamper/internal/documents"
	"github.com/JaimeStill/stamper/internal/stamping"
	"github.com/JaimeStill/stamper/internal/thumbnails"
)

// Domain holds the document systems that comprise the API.
type Domain struct {
	Thumbnails *thumbnails.Cache
	Stamping   *stamping.Orchestrator
	Documents  documents.System
}

// NewDomain creates the document systems from the runtime and registers
// their metrics with the runtime registry.
func NewDomain(runtime *Runtime) (*Domain, error) {
	thumbMetrics, err := thumbnails.NewMetrics(runtime.Registry)
	if err != nil {
		return nil, fmt.Errorf("thumbnail metrics: %w", err)
	}
	stampMetrics, err := stamping.NewMetrics(runtime.Registry)
	if err != nil {
		return nil, fmt.Errorf("stamp metrics: %w", err)
	}

	cache := thumbnails.New(
		runtime.Files,
		runtime.Codec,
		runtime.Encoder,
		thumbMetrics,
		runtime.Logger,
	)

	orchestrator := stamping.New(
		runtime.Files,
		runtime.Codec,
		cache,
		stampMetrics,
		runtime.Logger,
	)

	return &Domain{
		Thumbnails: cache,
		Stamping:   orchestrator,
		Documents:  documents.New(runtime.Files, cache, orchestrator, runtime.Logger),
	}, nil
}
