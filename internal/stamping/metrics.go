package stamping

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts stamp outcomes. A nil *Metrics records nothing.
type Metrics struct {
	stamps *prometheus.CounterVec
}

// NewMetrics registers the stamping counters with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		stamps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stamper_stamps_total",
				Help: "Stamp operations by outcome.",
			},
			[]string{"outcome"},
		),
	}

	if err := reg.Register(m.stamps); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) record(outcome string) {
	if m != nil {
		m.stamps.WithLabelValues(outcome).Inc()
	}
}
