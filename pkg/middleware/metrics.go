package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsPath is excluded from request counting.
const MetricsPath = "/metrics"

// Metrics counts handled requests by method, route pattern and status.
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics registers the request counter with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
	}

	if err := reg.Register(m.requests); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler returns middleware recording every request except MetricsPath.
// The path label is the matched route pattern so that path parameters do
// not create new series; unmatched requests share the "unmatched" label.
// The pattern is only visible when no later middleware replaces the
// request, so it belongs at the end of a stack.
func (m *Metrics) Handler() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == MetricsPath {
				next.ServeHTTP(w, r)
				return
			}

			rec := record(w)
			next.ServeHTTP(rec, r)

			m.requests.WithLabelValues(
				r.Method,
				routePath(r.Pattern),
				strconv.Itoa(rec.Status()),
			).Inc()
		})
	}
}

func routePath(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}
