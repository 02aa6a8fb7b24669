package events

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

var eventsEmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ntak_submission_events_total",
	Help: "Submission lifecycle events by topic.",
}, []string{"topic"})

func init() {
	prometheus.MustRegister(eventsEmittedTotal)
}

// MetricsNotifier counts emitted events per topic.
type MetricsNotifier struct{}

// Notify implements Notifier.
func (MetricsNotifier) Notify(_ context.Context, ev Event) error {
	eventsEmittedTotal.WithLabelValues(ev.Topic).Inc()
	return nil
}
