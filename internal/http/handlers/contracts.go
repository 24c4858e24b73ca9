package handlers

import (
	"context"

	"dispatch-console/internal/broadcast"
	"dispatch-console/internal/domain"
	"dispatch-console/internal/service/dispatch"
	"dispatch-console/internal/service/orders"
	"dispatch-console/internal/service/partner"
)

type orderQuery interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus, limit, offset *int) ([]domain.Order, error)
}

// NewOrderQuery wires the order read service into an orderQuery.
func NewOrderQuery(svc *orders.Service) orderQuery {
	return svc
}

type rosterUsecase interface {
	Get(ctx context.Context, id string) (*domain.Partner, error)
	List(ctx context.Context, limit, offset *int) ([]domain.Partner, error)
	Create(ctx context.Context, p *domain.Partner) (string, error)
	UpdatePartial(ctx context.Context, u domain.PartialPartnerUpdate) (bool, error)
}

// NewRosterUsecase wires the partner roster service into a rosterUsecase.
func NewRosterUsecase(svc *partner.Service) rosterUsecase {
	return svc
}

type dispatchUsecase interface {
	CreateOrder(ctx context.Context, in dispatch.CreateOrderInput) (*domain.Order, error)
	RequestAssignment(ctx context.Context, orderID, partnerID string, mode domain.AssignmentMode) (domain.AssignResult, error)
	AdvanceStatus(ctx context.Context, orderID, callerPartnerID string, target domain.OrderStatus) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID, reason string, caller domain.Caller) (*domain.Order, error)
	ToggleAvailability(ctx context.Context, partnerID string, target domain.PartnerAvailability) (*domain.Partner, error)
	AvailableOrders(ctx context.Context, partnerID string) ([]domain.Order, error)
	SuggestPartner(ctx context.Context, orderID string) (*domain.Partner, error)
}

// NewDispatchUsecase wires the coordinator into a dispatchUsecase.
func NewDispatchUsecase(c *dispatch.Coordinator) dispatchUsecase {
	return c
}

type eventSource interface {
	Subscribe(channelKey string) *broadcast.Subscription
	Unsubscribe(sub *broadcast.Subscription)
}

// NewEventSource wires the broker into an eventSource.
func NewEventSource(b *broadcast.Broker) eventSource {
	return b
}
