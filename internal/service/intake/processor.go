// Package intake turns POS order events into coordinator calls. Rejections
// that re-consuming cannot fix are acknowledged and dropped; only transient
// failures propagate so the consumer group redelivers.
package intake

import (
	"context"
	"errors"
	"strings"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
	"dispatch-console/internal/logx"
	"dispatch-console/internal/service/dispatch"
)

// Processor processes POS order events.
type Processor struct {
	dispatch DispatchPort
	logger   logx.Logger
	factory  *actionFactory
}

// NewProcessor creates a new intake Processor.
func NewProcessor(d DispatchPort, logger logx.Logger) *Processor {
	p := &Processor{dispatch: d, logger: logger}
	p.factory = newActionFactory(p.onCreated, p.onCanceled)
	return p
}

// Handle processes a single intake.Event.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	fn, ok := p.factory.get(e.Status)
	if !ok {
		return nil
	}
	return fn(ctx, e)
}

func (p *Processor) onCreated(ctx context.Context, e Event) error {
	in := dispatch.CreateOrderInput{
		ID: e.OrderID,
		Customer: domain.Customer{
			Name:    e.Customer.Name,
			Phone:   e.Customer.Phone,
			Address: e.Customer.Address,
		},
		PrepTimeMinutes: e.PrepTimeMinutes,
	}
	if e.Customer.Lat != nil && e.Customer.Lng != nil {
		in.Customer.Point = &domain.GeoPoint{Lat: *e.Customer.Lat, Lng: *e.Customer.Lng}
	}
	for _, it := range e.Items {
		in.Items = append(in.Items, domain.OrderItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	_, err := p.dispatch.CreateOrder(ctx, in)
	switch {
	case errors.Is(err, apperr.ErrValidation):
		// redelivery cannot repair a malformed order
		p.logger.Warn("intake: dropping invalid order event",
			logx.String("order_id", e.OrderID),
			logx.Err(err),
		)
		return nil
	case errors.Is(err, apperr.ErrConflict):
		// at-least-once delivery: this order id already landed
		p.logger.Debug("intake: order already created",
			logx.String("order_id", e.OrderID),
		)
		return nil
	}
	return err
}

func (p *Processor) onCanceled(ctx context.Context, e Event) error {
	reason := strings.TrimSpace(e.Reason)
	if reason == "" {
		reason = "cancelled upstream"
	}
	_, err := p.dispatch.CancelOrder(ctx, e.OrderID, reason, domain.Caller{Role: domain.RoleManager})
	switch {
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrInvalidTransition):
		return nil
	}
	return err
}

type actionFunc func(context.Context, Event) error

type actionFactory struct {
	byStatus map[string]actionFunc
}

func newActionFactory(onCreated, onCanceled actionFunc) *actionFactory {
	return &actionFactory{
		byStatus: map[string]actionFunc{
			"created":   onCreated,
			"canceled":  onCanceled,
			"cancelled": onCanceled,
			"deleted":   onCanceled,
		},
	}
}

func (f *actionFactory) get(status string) (actionFunc, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	fn, ok := f.byStatus[status]
	return fn, ok
}
