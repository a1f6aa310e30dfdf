// Package routes declares HTTP endpoints as data and registers them on a
// ServeMux using method-qualified patterns.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

func (r Route) pattern(prefix string) string {
	return r.Method + " " + prefix + r.Pattern
}
