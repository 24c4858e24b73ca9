package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// OrderStatus represents the lifecycle state of an order.
	OrderStatus string
	// AssignmentMode distinguishes who initiated an assignment.
	AssignmentMode string
)

// List of assignment modes. Both funnel into the same commit path so the
// race contract holds regardless of who initiates.
const (
	ModeManagerPush AssignmentMode = "manager_push"
	ModePartnerPull AssignmentMode = "partner_pull"
)

// OrderItem is a single ordered line item.
type OrderItem struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Customer holds contact details for the delivery destination.
type Customer struct {
	Name    string
	Phone   string
	Address string
	Point   *GeoPoint
}

// Order represents a customer purchase moving through preparation and delivery.
type Order struct {
	ID                string
	Number            string
	Items             []OrderItem
	Customer          Customer
	PrepTimeMinutes   int
	Status            OrderStatus
	AssignedPartnerID *string
	AssignedAt        *time.Time
	CancelReason      string
	CreatedAt         time.Time
}

// TotalAmount is always derived from the line items, never stored on its own.
func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Assigned reports whether a partner is bound to the order.
func (o *Order) Assigned() bool {
	return o.AssignedPartnerID != nil && *o.AssignedPartnerID != ""
}

// VisibleInPullFeed reports whether the order may appear in a partner's
// "available orders" feed.
func (o *Order) VisibleInPullFeed() bool {
	return o.Status == OrderStatusPrep && !o.Assigned()
}

// Valid checks if the AssignmentMode is valid.
func (m AssignmentMode) Valid() bool {
	return m == ModeManagerPush || m == ModePartnerPull
}
