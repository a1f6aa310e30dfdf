// Package thumbnails serves first-page JPEG previews of stored documents,
// rendering them on first request and reusing the stored image afterwards.
//
// A cached thumbnail is returned whenever it exists. Nothing checks it
// against the document it was rendered from; callers that change a
// document's content call Generate to refresh it.
package thumbnails

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/stamper/internal/faults"
	"github.com/JaimeStill/stamper/internal/filestore"
	"github.com/JaimeStill/stamper/internal/naming"
	"github.com/JaimeStill/stamper/pkg/imaging"
	"github.com/JaimeStill/stamper/pkg/pdf"
)

// DPI is the resolution thumbnails are rendered at.
const DPI = 300

// Provider returns the thumbnail of a stored document.
type Provider interface {
	GetOrGenerate(ctx context.Context, name string) ([]byte, error)
}

// Generator produces or refreshes the thumbnail of a stored document.
type Generator interface {
	Generate(ctx context.Context, name string) ([]byte, error)
}

// Cache is the file-backed thumbnail cache.
type Cache struct {
	store   filestore.Store
	codec   pdf.Codec
	encoder imaging.Encoder
	metrics *Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	group   singleflight.Group
}

// New creates a thumbnail cache. metrics may be nil.
func New(
	store filestore.Store,
	codec pdf.Codec,
	encoder imaging.Encoder,
	metrics *Metrics,
	logger *slog.Logger,
) *Cache {
	return &Cache{
		store:   store,
		codec:   codec,
		encoder: encoder,
		metrics: metrics,
		logger:  logger.With("system", "thumbnails"),
		tracer:  otel.Tracer("github.com/JaimeStill/stamper/internal/thumbnails"),
	}
}

// GetOrGenerate returns the stored thumbnail for name, rendering and
// storing it first when none exists. Concurrent misses for the same name
// share one render.
func (c *Cache) GetOrGenerate(ctx context.Context, name string) ([]byte, error) {
	name, err := naming.Sanitize(name)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "thumbnails.GetOrGenerate",
		trace.WithAttributes(attribute.String("document", name)))
	defer span.End()

	data, err := c.store.LoadThumbnail(ctx, name)
	if err == nil {
		c.metrics.hit()
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return data, nil
	}
	if !errors.Is(err, faults.ErrNotFound) {
		return nil, recordErr(span, err)
	}

	c.metrics.miss()
	span.SetAttributes(attribute.Bool("cache_hit", false))

	v, err, shared := c.group.Do(name, func() (any, error) {
		return c.generate(ctx, name)
	})
	if err != nil {
		return nil, recordErr(span, err)
	}
	if shared {
		c.logger.Debug("thumbnail render shared", "name", name)
	}

	return v.([]byte), nil
}

// Generate renders the thumbnail for name and overwrites any stored one.
func (c *Cache) Generate(ctx context.Context, name string) ([]byte, error) {
	name, err := naming.Sanitize(name)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "thumbnails.Generate",
		trace.WithAttributes(attribute.String("document", name)))
	defer span.End()

	data, err := c.generate(ctx, name)
	if err != nil {
		return nil, recordErr(span, err)
	}
	return data, nil
}

func (c *Cache) generate(ctx context.Context, name string) ([]byte, error) {
	source, err := c.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	doc, err := c.codec.Open(ctx, source)
	if err != nil {
		return nil, c.processingErr(err, "open %s", name)
	}
	defer doc.Release()

	img, err := doc.RenderPage(ctx, 0, DPI)
	if err != nil {
		return nil, c.processingErr(err, "render %s", name)
	}

	data, err := c.encoder.Encode(img)
	if err != nil {
		return nil, c.processingErr(err, "encode %s", name)
	}

	if err := c.store.StoreThumbnail(ctx, name, data); err != nil {
		return nil, err
	}

	c.logger.Info("thumbnail generated", "name", name, "size", len(data))
	return data, nil
}

func (c *Cache) processingErr(err error, format string, args ...any) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	c.metrics.failure()
	return fmt.Errorf("%w: %s: %w", faults.ErrProcessing, fmt.Sprintf(format, args...), err)
}

func recordErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
