// Package module mounts self-contained HTTP surfaces under single-segment
// path prefixes, each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/stamper/pkg/middleware"
)

// Module serves an inner handler beneath a prefix such as "/api". Requests
// reach the inner handler with the prefix removed.
type Module struct {
	prefix string
	router http.Handler
	chain  middleware.Chain
}

// New creates a Module. It panics if prefix is empty, lacks a leading slash,
// or spans more than one path segment.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		router: router,
	}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's stack. The first middleware added
// runs first.
func (m *Module) Use(mw middleware.Middleware) {
	m.chain.Use(mw)
}

// Handler returns the inner router wrapped with the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.chain.Then(m.router)
}

// Serve dispatches req to the inner router with the prefix stripped from
// both the decoded and the escaped path.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, m.strip(req))
}

func (m *Module) strip(req *http.Request) *http.Request {
	u := new(url.URL)
	*u = *req.URL
	u.Path = trimPrefix(req.URL.Path, m.prefix)
	if req.URL.RawPath != "" {
		u.RawPath = trimPrefix(req.URL.RawPath, m.prefix)
	}

	stripped := new(http.Request)
	*stripped = *req
	stripped.URL = u
	return stripped
}

func trimPrefix(path, prefix string) string {
	if rest := strings.TrimPrefix(path, prefix); rest != "" {
		return rest
	}
	return "/"
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}
