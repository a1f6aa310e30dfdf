package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// SpanName renames the active server span after the matched route pattern
// once the request has been served, prefixed with the mount point of the
// handler. Requests that match no pattern keep the span's existing name.
// Like Metrics, it only sees the pattern when no later middleware replaces
// the request before it reaches the ServeMux.
func SpanName(prefix string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			if r.Pattern == "" {
				return
			}
			trace.SpanFromContext(r.Context()).SetName(r.Method + " " + prefix + routePath(r.Pattern))
		})
	}
}
