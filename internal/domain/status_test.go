package domain

import "testing"

func TestOrderStatus_Valid(t *testing.T) {
	valid := []OrderStatus{
		OrderStatusPrep, OrderStatusPicked, OrderStatusOnRoute,
		OrderStatusDelivered, OrderStatusCancelled,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("status %q: expected valid", s)
		}
	}
	for _, s := range []OrderStatus{"", "PREP", "done", "in_route"} {
		if s.Valid() {
			t.Errorf("status %q: expected invalid", s)
		}
	}
}

func TestOrderStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPrep, OrderStatusPicked, true},
		{OrderStatusPrep, OrderStatusCancelled, true},
		{OrderStatusPrep, OrderStatusOnRoute, false},
		{OrderStatusPrep, OrderStatusDelivered, false},
		{OrderStatusPicked, OrderStatusOnRoute, true},
		{OrderStatusPicked, OrderStatusCancelled, true},
		{OrderStatusPicked, OrderStatusDelivered, false},
		{OrderStatusPicked, OrderStatusPrep, false},
		{OrderStatusOnRoute, OrderStatusDelivered, true},
		{OrderStatusOnRoute, OrderStatusCancelled, true},
		{OrderStatusOnRoute, OrderStatusPicked, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusPrep, false},
		{OrderStatusCancelled, OrderStatusPrep, false},
		{OrderStatusCancelled, OrderStatusPicked, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		if !s.Terminal() {
			t.Errorf("status %q: expected terminal", s)
		}
	}
	for _, s := range []OrderStatus{OrderStatusPrep, OrderStatusPicked, OrderStatusOnRoute} {
		if s.Terminal() {
			t.Errorf("status %q: expected non-terminal", s)
		}
	}
}

func TestPartnerAvailability_Valid(t *testing.T) {
	for _, a := range []PartnerAvailability{AvailabilityAvailable, AvailabilityBusy, AvailabilityOffline} {
		if !a.Valid() {
			t.Errorf("availability %q: expected valid", a)
		}
	}
	for _, a := range []PartnerAvailability{"", "free", "BUSY"} {
		if a.Valid() {
			t.Errorf("availability %q: expected invalid", a)
		}
	}
}
