package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusSink exports scheduler telemetry as prometheus metrics.
// Counters land in schedq_events_total{event=...}; observations in
// schedq_observations{name=...}.
type PrometheusSink struct {
	events       *prometheus.CounterVec
	observations *prometheus.HistogramVec
}

// NewPrometheusSink registers the sink's collectors on reg. Pass
// prometheus.DefaultRegisterer to expose them through the default
// /metrics handler.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)

	return &PrometheusSink{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schedq_events_total",
			Help: "Total number of scheduler events by type",
		}, []string{"event"}),

		observations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "schedq_observations",
			Help:    "Scheduler measurements by name",
			Buckets: prometheus.DefBuckets,
		}, []string{"name"}),
	}
}

func (s *PrometheusSink) Increment(name string) {
	s.events.WithLabelValues(name).Inc()
}

func (s *PrometheusSink) Observe(name string, value float64) {
	s.observations.WithLabelValues(name).Observe(value)
}
