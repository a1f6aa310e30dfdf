// Package stamping draws a date, name and comment footer onto every page
// of a stored document and saves the result as a new document.
//
// Stamping only adds content. Stamping a document twice produces the same
// target name both times, and stamping a stamped document layers a second
// footer over the first.
package stamping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/stamper/internal/faults"
	"github.com/JaimeStill/stamper/internal/filestore"
	"github.com/JaimeStill/stamper/internal/naming"
	"github.com/JaimeStill/stamper/internal/thumbnails"
	"github.com/JaimeStill/stamper/pkg/pdf"
)

// Outcome labels recorded by Metrics.
const (
	OutcomeStamped = "stamped"
	OutcomeFailed  = "failed"
	// OutcomeDegraded marks a stamp that succeeded but whose thumbnail
	// could not be regenerated.
	OutcomeDegraded = "thumbnail_failed"
)

// Orchestrator runs the stamp use case.
type Orchestrator struct {
	store      filestore.Store
	codec      pdf.Codec
	thumbnails thumbnails.Generator
	metrics    *Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates a stamp orchestrator. metrics may be nil.
func New(
	store filestore.Store,
	codec pdf.Codec,
	thumbs thumbnails.Generator,
	metrics *Metrics,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		codec:      codec,
		thumbnails: thumbs,
		metrics:    metrics,
		logger:     logger.With("system", "stamping"),
		tracer:     otel.Tracer("github.com/JaimeStill/stamper/internal/stamping"),
	}
}

// Stamp appends req to every page of source, stores the result under
// naming.StampedName(source) and refreshes its thumbnail. It returns the
// stamped name. A thumbnail failure is logged and does not fail the call.
func (o *Orchestrator) Stamp(ctx context.Context, source string, req Request) (string, error) {
	name, err := naming.Sanitize(source)
	if err != nil {
		o.metrics.record(OutcomeFailed)
		return "", err
	}
	target := naming.StampedName(name)

	ctx, span := o.tracer.Start(ctx, "stamping.Stamp", trace.WithAttributes(
		attribute.String("source", name),
		attribute.String("target", target),
	))
	defer span.End()

	stamped, err := o.render(ctx, name, req)
	if err != nil {
		o.metrics.record(OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if err := o.store.Replace(ctx, target, stamped); err != nil {
		o.metrics.record(OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if _, err := o.thumbnails.Generate(ctx, target); err != nil {
		o.metrics.record(OutcomeDegraded)
		span.AddEvent("thumbnail regeneration failed")
		o.logger.Warn("thumbnail regeneration failed", "name", target, "error", err)
	} else {
		o.metrics.record(OutcomeStamped)
	}

	o.logger.Info("document stamped", "source", name, "target", target)
	return target, nil
}

// render produces the stamped bytes without touching the store.
func (o *Orchestrator) render(ctx context.Context, name string, req Request) ([]byte, error) {
	data, err := o.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	doc, err := o.codec.Open(ctx, data)
	if err != nil {
		return nil, processingErr(err, "open %s", name)
	}
	defer doc.Release()

	block := req.Block()
	for page := range doc.PageCount() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := doc.AppendText(page, block); err != nil {
			return nil, processingErr(err, "stamp page %d of %s", page+1, name)
		}
	}

	out, err := doc.Serialize()
	if err != nil {
		return nil, processingErr(err, "serialize %s", name)
	}
	return out, nil
}

func processingErr(err error, format string, args ...any) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", faults.ErrProcessing, fmt.Sprintf(format, args...), err)
}
