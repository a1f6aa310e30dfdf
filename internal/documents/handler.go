package documents

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/JaimeStill/stamper/pkg/handlers"
	"github.com/JaimeStill/stamper/pkg/routes"
)

const routePrefix = "/files"

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	basePath      string
	maxUploadSize int64
}

// NewHandler creates a Handler. basePath is the path the API module is
// mounted under and is used to build absolute links.
func NewHandler(sys System, logger *slog.Logger, basePath string, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		basePath:      basePath,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: routePrefix,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/list", Handler: h.List},
			{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			{Method: "GET", Pattern: "/download/{name}", Handler: h.Download},
			{Method: "GET", Pattern: "/thumbnail/{name}", Handler: h.Thumbnail},
			{Method: "POST", Pattern: "/stamp/{name}", Handler: h.Stamp},
			{Method: "DELETE", Pattern: "/{name}", Handler: h.Delete},
		},
	}
}

// List returns every stored document with its download and thumbnail links.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.sys.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	l := newLinker(r, h.basePath)
	entries := make([]ListEntry, len(docs))
	for i, doc := range docs {
		entries[i] = l.entry(doc)
	}

	handlers.RespondJSON(w, http.StatusOK, entries)
}

// Upload stores the PDF in the multipart field "file" under its client
// file name. The part's declared content type must be application/pdf;
// when the part declares none, the type is detected from the content.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrMissingFile, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrMissingFile, err))
		return
	}

	rawName, err := clientFileName(header)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	contentType := declaredContentType(header.Header.Get("Content-Type"), data)

	name, err := h.sys.Upload(r.Context(), data, contentType, rawName)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, newLinker(r, h.basePath).links(name))
}

// Download returns the document bytes as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	data, err := h.sys.Download(r.Context(), name)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondBytes(w, "application/pdf", disposition("attachment", name), data)
}

// Thumbnail returns the first-page JPEG preview, rendering it on first use.
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	data, err := h.sys.Thumbnail(r.Context(), name)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondBytes(w, "image/jpeg", disposition("inline", name), data)
}

// Stamp draws the date, name and comment parameters onto every page of
// the named document and returns links to the stamped copy.
func (h *Handler) Stamp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrMissingParam, err))
		return
	}

	for _, param := range []string{"date", "name", "comment"} {
		if !r.Form.Has(param) {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %s", ErrMissingParam, param))
			return
		}
	}

	cmd := StampCommand{
		Source:  r.PathValue("name"),
		Date:    r.Form.Get("date"),
		Name:    r.Form.Get("name"),
		Comment: r.Form.Get("comment"),
	}

	stamped, err := h.sys.Stamp(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, newLinker(r, h.basePath).links(stamped))
}

// Delete removes the named document and its thumbnail.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.sys.Delete(r.Context(), r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, DeleteResult{Deleted: deleted})
}

func declaredContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" {
		return header
	}
	return mimetype.Detect(data).String()
}

func disposition(kind, name string) string {
	return mime.FormatMediaType(kind, map[string]string{"filename": name})
}

// clientFileName returns the filename parameter exactly as the client sent
// it. multipart.FileHeader.Filename has already been reduced to its base
// name, which would hide traversal attempts from naming.Sanitize.
func clientFileName(header *multipart.FileHeader) (string, error) {
	_, params, err := mime.ParseMediaType(header.Header.Get("Content-Disposition"))
	if err != nil {
		return "", fmt.Errorf("%w: content disposition: %w", ErrMissingFile, err)
	}
	return params["filename"], nil
}
