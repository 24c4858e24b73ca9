package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewAssignmentConflictsTotal returns a Prometheus counter for assignment attempts
// that lost the claim race
func NewAssignmentConflictsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_conflicts_total",
		Help: "Total number of assignment attempts rejected because the order was already taken",
	})
}

// NewStorageConflictRetriesTotal returns a Prometheus counter for read-decide-write
// cycles repeated after a conditional write missed its guard
func NewStorageConflictRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storage_conflict_retries_total",
		Help: "Total number of coordinator retries caused by conditional write conflicts",
	})
}

// NewEventsPublishedTotal returns a Prometheus counter for events fanned out by the broadcaster
func NewEventsPublishedTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_events_published_total",
		Help: "Total number of events published to subscriber channels",
	})
}

// NewSubscribersDroppedTotal returns a Prometheus counter for subscribers closed
// because their buffer overflowed
func NewSubscribersDroppedTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_subscribers_dropped_total",
		Help: "Total number of subscribers disconnected after falling behind",
	})
}

// NewBroadcastSubscribers returns a Prometheus gauge for the number of connected
// event stream subscribers
func NewBroadcastSubscribers() prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "broadcast_subscribers",
		Help: "Number of currently connected event stream subscribers",
	})
}

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected
// HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewIdentityRetriesTotal returns a Prometheus counter for retry attempts performed
// by the identity gateway
func NewIdentityRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "identity_retries_total",
		Help: "Total number of retry attempts performed by the identity gateway",
	})
}
