package dispatchtx

import (
	"context"

	"dispatch-console/internal/domain"
)

// Store is the durable state surface the coordinator commits through.
//
// PutOrder and PutPartner are conditional writes: they fail with
// apperr.ErrStorageConflict when the stored status/availability no longer
// matches the expected prior value. That guard is the basis of the per-record
// serialization; the coordinator never writes unconditionally.
type Store interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	CreateOrder(ctx context.Context, o *domain.Order) error
	PutOrder(ctx context.Context, o *domain.Order, expectedPriorStatus domain.OrderStatus) error
	AppendOrderHistory(ctx context.Context, o *domain.Order) error
	ListOpenOrders(ctx context.Context) ([]domain.Order, error)

	GetPartner(ctx context.Context, id string) (*domain.Partner, error)
	PutPartner(ctx context.Context, p *domain.Partner, expectedPriorAvailability domain.PartnerAvailability) error
	ListAvailablePartners(ctx context.Context) ([]domain.Partner, error)
}

// Runner executes fn inside one atomic unit: either every write fn issued is
// visible afterwards or none is.
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
