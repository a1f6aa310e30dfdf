// Package filestore persists uploaded and stamped documents, and their
// thumbnails, beneath a single storage root.
//
// Documents live directly under the root; thumbnails live in the
// thumbnails subdirectory under the same base name with a .jpg suffix.
// Every name is passed through naming.Sanitize before the filesystem is
// touched.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"slices"
	"strings"

	"github.com/JaimeStill/stamper/internal/faults"
	"github.com/JaimeStill/stamper/internal/naming"
	"github.com/JaimeStill/stamper/pkg/lifecycle"
	"github.com/JaimeStill/stamper/pkg/storage"
)

const (
	// ThumbnailDir is the subdirectory holding cached thumbnails.
	ThumbnailDir = "thumbnails"
	// ContentType is the only accepted declared content type.
	ContentType = "application/pdf"
)

// Store is the document persistence contract used by the stamping and
// thumbnail components and the request surface.
type Store interface {
	// Start ensures the thumbnail directory exists. The storage root itself
	// is created by the underlying storage system.
	Start(lc *lifecycle.Coordinator) error

	// Store validates the declared content type and name, then atomically
	// writes data. An existing document with the same name is replaced.
	Store(ctx context.Context, data []byte, contentType, rawName string) (string, error)
	// Load returns the content of a stored document.
	Load(ctx context.Context, rawName string) ([]byte, error)
	// Replace atomically writes data under an already derived name.
	Replace(ctx context.Context, rawName string, data []byte) error
	// List returns the stored document names, sorted.
	List(ctx context.Context) ([]string, error)
	// Delete removes a document and its thumbnail. It reports whether the
	// document existed.
	Delete(ctx context.Context, rawName string) (bool, error)

	LoadThumbnail(ctx context.Context, document string) ([]byte, error)
	StoreThumbnail(ctx context.Context, document string, data []byte) error
}

type store struct {
	storage storage.System
	logger  *slog.Logger
}

// New creates a document store over the given storage system.
func New(sys storage.System, logger *slog.Logger) Store {
	return &store{
		storage: sys,
		logger:  logger.With("system", "filestore"),
	}
}

func (s *store) Start(lc *lifecycle.Coordinator) error {
	if err := s.storage.Ensure(lc.Context(), ThumbnailDir); err != nil {
		return fmt.Errorf("%w: create thumbnail directory: %w", faults.ErrIO, err)
	}
	return nil
}

func (s *store) Store(ctx context.Context, data []byte, contentType, rawName string) (string, error) {
	if !acceptsContentType(contentType) {
		return "", fmt.Errorf("%w: content type %q is not %s", faults.ErrInvalidInput, contentType, ContentType)
	}

	name, err := naming.Sanitize(rawName)
	if err != nil {
		return "", err
	}

	if err := s.storage.Write(ctx, name, data); err != nil {
		return "", classify(err, "store %s", name)
	}

	s.logger.Info("document stored", "name", name, "size", len(data))
	return name, nil
}

func (s *store) Load(ctx context.Context, rawName string) ([]byte, error) {
	name, err := naming.Sanitize(rawName)
	if err != nil {
		return nil, err
	}

	data, err := s.storage.Read(ctx, name)
	if err != nil {
		return nil, classify(err, "load %s", name)
	}
	return data, nil
}

func (s *store) Replace(ctx context.Context, rawName string, data []byte) error {
	name, err := naming.Sanitize(rawName)
	if err != nil {
		return err
	}

	if err := s.storage.Write(ctx, name, data); err != nil {
		return classify(err, "replace %s", name)
	}
	return nil
}

func (s *store) List(ctx context.Context) ([]string, error) {
	entries, err := s.storage.List(ctx, "")
	if err != nil {
		return nil, classify(err, "list documents")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if naming.IsDocument(entry) {
			names = append(names, entry)
		}
	}
	slices.Sort(names)

	return names, nil
}

func (s *store) Delete(ctx context.Context, rawName string) (bool, error) {
	name, err := naming.Sanitize(rawName)
	if err != nil {
		return false, err
	}

	existed := true
	if err := s.storage.Delete(ctx, name); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return false, classify(err, "delete %s", name)
		}
		existed = false
	}

	thumb := thumbnailKey(name)
	if err := s.storage.Delete(ctx, thumb); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("no thumbnail to delete", "name", name)
		} else {
			s.logger.Warn("thumbnail delete failed", "name", name, "thumbnail", thumb, "error", err)
		}
	}

	if existed {
		s.logger.Info("document deleted", "name", name)
	}
	return existed, nil
}

func (s *store) LoadThumbnail(ctx context.Context, document string) ([]byte, error) {
	name, err := naming.Sanitize(document)
	if err != nil {
		return nil, err
	}

	data, err := s.storage.Read(ctx, thumbnailKey(name))
	if err != nil {
		return nil, classify(err, "load thumbnail for %s", name)
	}
	return data, nil
}

func (s *store) StoreThumbnail(ctx context.Context, document string, data []byte) error {
	name, err := naming.Sanitize(document)
	if err != nil {
		return err
	}

	if err := s.storage.Write(ctx, thumbnailKey(name), data); err != nil {
		return classify(err, "store thumbnail for %s", name)
	}
	return nil
}

func thumbnailKey(name string) string {
	return path.Join(ThumbnailDir, naming.ThumbnailName(name))
}

func acceptsContentType(declared string) bool {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return strings.EqualFold(mediaType, ContentType)
}

// classify wraps a storage error in the matching fault class.
func classify(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %s", faults.ErrNotFound, msg)
	case errors.Is(err, storage.ErrEmptyKey), errors.Is(err, storage.ErrInvalidKey):
		return fmt.Errorf("%w: %s: %w", faults.ErrInvalidInput, msg, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", msg, err)
	default:
		return fmt.Errorf("%w: %s: %w", faults.ErrIO, msg, err)
	}
}
