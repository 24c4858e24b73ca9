package dispatch

import (
	"dispatch-console/internal/broadcast"
)

// Broadcaster publishes state-change events after successful commits.
type Broadcaster interface {
	Publish(ev broadcast.Event)
}

// Counter is the minimal metrics surface the coordinator needs.
type Counter interface {
	Inc()
}
