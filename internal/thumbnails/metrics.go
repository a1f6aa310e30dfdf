package thumbnails

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache lookups and generation failures. A nil *Metrics
// records nothing.
type Metrics struct {
	lookups  *prometheus.CounterVec
	failures prometheus.Counter
}

// NewMetrics registers the thumbnail counters with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stamper_thumbnail_cache_total",
				Help: "Thumbnail cache lookups by result.",
			},
			[]string{"result"},
		),
		failures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stamper_thumbnail_failures_total",
				Help: "Thumbnail generations that failed to render or encode.",
			},
		),
	}

	if err := reg.Register(m.lookups); err != nil {
		return nil, err
	}
	if err := reg.Register(m.failures); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) hit() {
	if m != nil {
		m.lookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.lookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) failure() {
	if m != nil {
		m.failures.Inc()
	}
}
