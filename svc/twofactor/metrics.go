package twofactor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Enrollments counts enrollment steps by result: started, confirmed, error.
	Enrollments *prometheus.CounterVec

	// Verifications counts code checks by flow and outcome.
	Verifications *prometheus.CounterVec

	// StoreLatency tracks secret store call latency by operation.
	StoreLatency *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Enrollments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "totpguard",
				Name:      "enrollments_total",
				Help:      "Total number of two-factor enrollment steps",
			},
			[]string{"result"},
		),

		Verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "totpguard",
				Name:      "verifications_total",
				Help:      "Total number of two-factor code verifications",
			},
			[]string{"flow", "outcome"},
		),

		StoreLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "totpguard",
				Name:      "store_latency_seconds",
				Help:      "Latency of secret store operations",
				Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"op"},
		),
	}

	for _, c := range []prometheus.Collector{m.Enrollments, m.Verifications, m.StoreLatency} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNewMetrics is NewMetrics that panics on registration errors.
func MustNewMetrics(registry prometheus.Registerer) *Metrics {
	m, err := NewMetrics(registry)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) enrollment(result string) {
	if m == nil {
		return
	}
	m.Enrollments.WithLabelValues(result).Inc()
}

func (m *Metrics) verification(flow string, outcome Outcome) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(flow, outcome.String()).Inc()
}
