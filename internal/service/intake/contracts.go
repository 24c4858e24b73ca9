package intake

import (
	"context"

	"dispatch-console/internal/domain"
	"dispatch-console/internal/service/dispatch"
)

// DispatchPort abstracts the subset of coordinator operations needed by the
// intake Processor when handling POS order events.
type DispatchPort interface {
	CreateOrder(ctx context.Context, in dispatch.CreateOrderInput) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID, reason string, caller domain.Caller) (*domain.Order, error)
}
