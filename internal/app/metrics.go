package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"dispatch-console/internal/metrics"
)

// Metrics bundles the dispatch counters registered with the default registry.
type Metrics struct {
	AssignmentConflicts prometheus.Counter
	StorageRetries      prometheus.Counter
	EventsPublished     prometheus.Counter
	SubscribersDropped  prometheus.Counter
	RateLimitExceeded   prometheus.Counter
	IdentityRetries     prometheus.Counter
	Subscribers         prometheus.Gauge
}

// NewMetrics creates and registers the dispatch counters.
func NewMetrics() *Metrics {
	return newMetricsWith(prometheus.DefaultRegisterer)
}

func newMetricsWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AssignmentConflicts: metrics.NewAssignmentConflictsTotal(),
		StorageRetries:      metrics.NewStorageConflictRetriesTotal(),
		EventsPublished:     metrics.NewEventsPublishedTotal(),
		SubscribersDropped:  metrics.NewSubscribersDroppedTotal(),
		RateLimitExceeded:   metrics.NewRateLimitExceededTotal(),
		IdentityRetries:     metrics.NewIdentityRetriesTotal(),
		Subscribers:         metrics.NewBroadcastSubscribers(),
	}
	reg.MustRegister(
		m.AssignmentConflicts,
		m.StorageRetries,
		m.EventsPublished,
		m.SubscribersDropped,
		m.RateLimitExceeded,
		m.IdentityRetries,
		m.Subscribers,
	)
	return m
}
