package broadcast

import (
	"time"

	"dispatch-console/internal/domain"
)

// Kind identifies the type of a state-change event.
type Kind string

// List of event kinds emitted after coordinator commits
const (
	KindOrderCreated               Kind = "order_created"
	KindOrderAssigned              Kind = "order_assigned"
	KindOrderStatusChanged         Kind = "order_status_changed"
	KindOrderCancelled             Kind = "order_cancelled"
	KindPartnerAvailabilityChanged Kind = "partner_availability_changed"
)

// Event is a single state-change notification. It is not the system of
// record: a subscriber that missed events re-reads current state instead.
type Event struct {
	Kind         Kind                       `json:"kind"`
	OrderID      string                     `json:"order_id,omitempty"`
	PartnerID    string                     `json:"partner_id,omitempty"`
	Status       domain.OrderStatus         `json:"status,omitempty"`
	Availability domain.PartnerAvailability `json:"availability,omitempty"`
	Reason       string                     `json:"reason,omitempty"`
	At           time.Time                  `json:"at"`
}

// ManagerChannel is the channel key receiving every event of the operation.
const ManagerChannel = "manager"

const partnerPrefix = "partner:"

// PartnerChannel returns the channel key for a single partner identity.
func PartnerChannel(partnerID string) string {
	return partnerPrefix + partnerID
}
