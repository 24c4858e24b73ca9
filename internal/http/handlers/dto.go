package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"dispatch-console/internal/domain"
)

type geoPointDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type orderItemDTO struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type customerDTO struct {
	Name    string       `json:"name"`
	Phone   string       `json:"phone"`
	Address string       `json:"address"`
	Point   *geoPointDTO `json:"point,omitempty"`
}

type orderDTO struct {
	ID                string             `json:"id"`
	Number            string             `json:"number"`
	Items             []orderItemDTO     `json:"items"`
	Customer          customerDTO        `json:"customer"`
	PrepTimeMinutes   int                `json:"prep_time_minutes"`
	Status            domain.OrderStatus `json:"status"`
	AssignedPartnerID *string            `json:"assigned_partner_id,omitempty"`
	AssignedAt        *time.Time         `json:"assigned_at,omitempty"`
	CancelReason      string             `json:"cancel_reason,omitempty"`
	Total             decimal.Decimal    `json:"total"`
	CreatedAt         time.Time          `json:"created_at"`
}

type partnerDTO struct {
	ID              string                     `json:"id"`
	Name            string                     `json:"name"`
	Phone           string                     `json:"phone"`
	Vehicle         string                     `json:"vehicle"`
	Availability    domain.PartnerAvailability `json:"availability"`
	CurrentOrderID  *string                    `json:"current_order_id,omitempty"`
	Rating          float64                    `json:"rating"`
	CompletedCount  int                        `json:"completed_count"`
	TodayDeliveries int                        `json:"today_deliveries"`
	Earnings        decimal.Decimal            `json:"earnings"`
	Location        *geoPointDTO               `json:"location,omitempty"`
}

type createOrderRequest struct {
	Items           []orderItemDTO `json:"items"`
	Customer        customerDTO    `json:"customer"`
	PrepTimeMinutes int            `json:"prep_time_minutes"`
}

type createPartnerRequest struct {
	Name         string                     `json:"name"`
	Phone        string                     `json:"phone"`
	Vehicle      string                     `json:"vehicle"`
	Availability domain.PartnerAvailability `json:"availability"`
	Location     *geoPointDTO               `json:"location,omitempty"`
}

type updatePartnerRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Vehicle *string `json:"vehicle,omitempty"`
}

type assignRequest struct {
	PartnerID string `json:"partner_id"`
}

type advanceStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type toggleAvailabilityRequest struct {
	Availability domain.PartnerAvailability `json:"availability"`
}

type assignResultDTO struct {
	OrderID     string                `json:"order_id"`
	OrderNumber string                `json:"order_number"`
	PartnerID   string                `json:"partner_id"`
	Mode        domain.AssignmentMode `json:"mode"`
	AssignedAt  time.Time             `json:"assigned_at"`
}
