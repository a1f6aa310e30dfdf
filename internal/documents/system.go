package documents

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/stamper/internal/filestore"
	"github.com/JaimeStill/stamper/internal/stamping"
	"github.com/JaimeStill/stamper/internal/thumbnails"
)

// System defines the public contract for document operations.
type System interface {
	Handler(basePath string, maxUploadSize int64) *Handler

	Upload(ctx context.Context, data []byte, contentType, rawName string) (string, error)
	List(ctx context.Context) ([]Document, error)
	Download(ctx context.Context, name string) ([]byte, error)
	Thumbnail(ctx context.Context, name string) ([]byte, error)
	Stamp(ctx context.Context, cmd StampCommand) (string, error)
	Delete(ctx context.Context, name string) (bool, error)
}

type system struct {
	store      filestore.Store
	thumbnails thumbnails.Provider
	stamper    *stamping.Orchestrator
	logger     *slog.Logger
}

// New creates the document system.
func New(
	store filestore.Store,
	thumbs thumbnails.Provider,
	stamper *stamping.Orchestrator,
	logger *slog.Logger,
) System {
	return &system{
		store:      store,
		thumbnails: thumbs,
		stamper:    stamper,
		logger:     logger.With("system", "documents"),
	}
}

func (s *system) Handler(basePath string, maxUploadSize int64) *Handler {
	return NewHandler(s, s.logger, basePath, maxUploadSize)
}

func (s *system) Upload(ctx context.Context, data []byte, contentType, rawName string) (string, error) {
	return s.store.Store(ctx, data, contentType, rawName)
}

func (s *system) List(ctx context.Context) ([]Document, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, len(names))
	for i, name := range names {
		docs[i] = FromName(name)
	}
	return docs, nil
}

func (s *system) Download(ctx context.Context, name string) ([]byte, error) {
	return s.store.Load(ctx, name)
}

func (s *system) Thumbnail(ctx context.Context, name string) ([]byte, error) {
	return s.thumbnails.GetOrGenerate(ctx, name)
}

func (s *system) Stamp(ctx context.Context, cmd StampCommand) (string, error) {
	return s.stamper.Stamp(ctx, cmd.Source, stamping.Request{
		Date:    cmd.Date,
		Name:    cmd.Name,
		Comment: cmd.Comment,
	})
}

func (s *system) Delete(ctx context.Context, name string) (bool, error) {
	return s.store.Delete(ctx, name)
}
