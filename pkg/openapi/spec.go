package openapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// Version is the OpenAPI revision every generated document declares.
const Version = "3.1.0"

// Spec represents an OpenAPI 3.1 document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec creates a Spec with the given title and version and the shared
// error responses registered as components.
func NewSpec(title, version string) *Spec {
	return &Spec{
		OpenAPI:    Version,
		Info:       &Info{Title: title, Version: version},
		Components: NewComponents(),
		Paths:      make(map[string]*PathItem),
	}
}

// AddServer appends a server URL to the spec.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// SetDescription sets the API description in the info object.
func (s *Spec) SetDescription(desc string) {
	s.Info.Description = desc
}

// AddPaths registers path items, replacing any already present.
func (s *Spec) AddPaths(paths map[string]*PathItem) {
	for path, item := range paths {
		s.Paths[path] = item
	}
}

// Handler serializes spec once and returns a handler serving the bytes.
// Later changes to spec are not reflected.
func Handler(spec *Spec) (http.Handler, error) {
	data, err := MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}
	return ServeSpec(data), nil
}

// ServeSpec returns a handler that serves pre-serialized JSON spec bytes.
// HEAD and conditional requests are handled by http.ServeContent.
func ServeSpec(specBytes []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		http.ServeContent(w, r, "openapi.json", time.Time{}, bytes.NewReader(specBytes))
	}
}
