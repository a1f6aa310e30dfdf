package documents

import (
	"net/http"
	"net/url"
	"strings"
)

// FileLinks is returned by upload and stamp.
type FileLinks struct {
	FileName        string `json:"fileName"`
	FileDownloadURI string `json:"fileDownloadUri"`
	ThumbnailURI    string `json:"thumbnailUri"`
}

// ListEntry is one element of the list response.
type ListEntry struct {
	Document
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Stamped      bool   `json:"stamped"`
}

// DeleteResult is returned by delete.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// linker builds absolute download and thumbnail URIs from the request's
// scheme and host.
type linker struct {
	origin string
	prefix string
}

func newLinker(r *http.Request, basePath string) linker {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	return linker{
		origin: scheme + "://" + r.Host,
		prefix: strings.TrimSuffix(basePath, "/") + routePrefix,
	}
}

func (l linker) download(name string) string {
	return l.origin + l.prefix + "/download/" + url.PathEscape(name)
}

func (l linker) thumbnail(name string) string {
	return l.origin + l.prefix + "/thumbnail/" + url.PathEscape(name)
}

func (l linker) links(name string) FileLinks {
	return FileLinks{
		FileName:        name,
		FileDownloadURI: l.download(name),
		ThumbnailURI:    l.thumbnail(name),
	}
}

func (l linker) entry(doc Document) ListEntry {
	return ListEntry{
		Document:     doc,
		URL:          l.download(doc.Name),
		ThumbnailURL: l.thumbnail(doc.Name),
		Stamped:      doc.Stamped(),
	}
}
