package domain

// List of possible order statuses
const (
	OrderStatusPrep      OrderStatus = "prep"
	OrderStatusPicked    OrderStatus = "picked"
	OrderStatusOnRoute   OrderStatus = "on_route"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// List of possible partner availabilities
const (
	AvailabilityAvailable PartnerAvailability = "available"
	AvailabilityBusy      PartnerAvailability = "busy"
	AvailabilityOffline   PartnerAvailability = "offline"
)

// transitions is the only source of truth for the order lifecycle.
// prep -> picked is the assignment transition and goes through
// RequestAssignment; everything else goes through AdvanceStatus.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPrep:    {OrderStatusPicked, OrderStatusCancelled},
	OrderStatusPicked:  {OrderStatusOnRoute, OrderStatusCancelled},
	OrderStatusOnRoute: {OrderStatusDelivered, OrderStatusCancelled},
}

var allowedAvailabilities = [...]PartnerAvailability{
	AvailabilityAvailable, AvailabilityBusy, AvailabilityOffline,
}

// Valid checks if the OrderStatus is valid.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPrep, OrderStatusPicked, OrderStatusOnRoute,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves this status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition reports whether s -> target is in the transition table.
func (s OrderStatus) CanTransition(target OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Valid checks if the PartnerAvailability is valid.
func (a PartnerAvailability) Valid() bool {
	for _, v := range allowedAvailabilities {
		if a == v {
			return true
		}
	}
	return false
}
