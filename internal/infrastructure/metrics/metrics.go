package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service collectors. Register them once per registry.
type Metrics struct {
	TransitionsTotal   *prometheus.CounterVec
	TransitionDuration *prometheus.HistogramVec
	PublishedTotal     prometheus.Counter
	PublishErrorsTotal prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_order_transitions_total",
				Help: "Order transition attempts by transition and outcome",
			},
			[]string{"transition", "outcome"},
		),
		TransitionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_order_transition_duration_seconds",
				Help:    "Time to validate and commit an order transition",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
			},
			[]string{"transition"},
		),
		PublishedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "loan_order_events_published_total",
			Help: "Outbox events delivered to the event sinks",
		}),
		PublishErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "loan_order_event_publish_errors_total",
			Help: "Failed attempts to deliver an outbox event",
		}),
	}
}

func (m *Metrics) ObserveTransition(kind, outcome string, elapsed time.Duration) {
	m.TransitionsTotal.WithLabelValues(kind, outcome).Inc()
	m.TransitionDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) EventsPublished(n int) { m.PublishedTotal.Add(float64(n)) }

func (m *Metrics) PublishFailed() { m.PublishErrorsTotal.Inc() }
