package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/broadcast"
	"dispatch-console/internal/domain"
	"dispatch-console/internal/logx"
	"dispatch-console/internal/ports/dispatchtx"
	"dispatch-console/internal/service/policy"
)

// Config stores coordinator tuning knobs.
type Config struct {
	OperationTimeout      time.Duration
	MaxPrepTimeMinutes    int
	ConflictRetryAttempts int
}

// Coordinator is the single authority for every change to an order's status
// and a partner's availability. All mutation requests funnel through it; the
// commit path is one transaction guarded by conditional writes, so concurrent
// requests touching the same order resolve to exactly one winner.
type Coordinator struct {
	repo      dispatchtx.Runner
	policy    policy.Policy
	events    Broadcaster
	logger    logx.Logger
	cfg       Config
	conflicts Counter
	retries   Counter
	now       func() time.Time
	newID     func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator creates and configures a Coordinator.
func NewCoordinator(
	repo dispatchtx.Runner,
	pol policy.Policy,
	events Broadcaster,
	cfg Config,
	conflicts, retries Counter,
	logger logx.Logger,
) *Coordinator {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 3 * time.Second
	}
	if cfg.MaxPrepTimeMinutes <= 0 {
		cfg.MaxPrepTimeMinutes = 180
	}
	if cfg.ConflictRetryAttempts <= 0 {
		cfg.ConflictRetryAttempts = 3
	}
	return &Coordinator{
		repo:      repo,
		policy:    pol,
		events:    events,
		logger:    logger,
		cfg:       cfg,
		conflicts: conflicts,
		retries:   retries,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.OperationTimeout)
}

// lockFor returns the serialization lock for a commit key, creating it on
// first use. One lock per order (or per partner, for availability toggles).
func (c *Coordinator) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// commit runs fn transactionally and, when the commit lands, publishes the
// events fn recorded, in commit order. The key lock is held from the start of
// the transaction until the last event is published, so back-to-back commits
// against the same order reach subscribers in the order they landed.
// A conditional-write conflict is the expected signature of a resolved race:
// the read-decide-write cycle is repeated a bounded number of times so the
// re-read can turn the conflict into a deterministic business answer.
func (c *Coordinator) commit(ctx context.Context, key string, fn func(tx dispatchtx.Store, emit func(broadcast.Event)) error) error {
	l := c.lockFor(key)
	l.Lock()
	defer l.Unlock()

	var lastErr error
	for attempt := 1; attempt <= c.cfg.ConflictRetryAttempts; attempt++ {
		var pending []broadcast.Event
		emit := func(ev broadcast.Event) { pending = append(pending, ev) }

		err := c.repo.WithTx(ctx, func(tx dispatchtx.Store) error {
			return fn(tx, emit)
		})
		if err == nil {
			for _, ev := range pending {
				c.events.Publish(ev)
			}
			return nil
		}
		lastErr = err
		if !errors.Is(err, apperr.ErrStorageConflict) || ctx.Err() != nil {
			return err
		}
		if c.retries != nil {
			c.retries.Inc()
		}
		c.logger.Debug("storage conflict, retrying",
			logx.Int("attempt", attempt),
		)
	}
	return lastErr
}

// CreateOrderInput carries everything needed to open an order. ID is the
// upstream identifier (POS order id); when empty the coordinator mints one.
type CreateOrderInput struct {
	ID              string
	Items           []domain.OrderItem
	Customer        domain.Customer
	PrepTimeMinutes int
}

// CreateOrder opens a new order in preparation with no partner bound. Orders
// arriving from POS keep their upstream id, so a later cancel event for the
// same id lands on the right record and a redelivered create collides with
// the first one instead of opening a duplicate.
func (c *Coordinator) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := c.validateCreate(in); err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = c.newID()
	}
	order := &domain.Order{
		ID:              id,
		Number:          orderNumber(id),
		Items:           in.Items,
		Customer:        in.Customer,
		PrepTimeMinutes: in.PrepTimeMinutes,
		Status:          domain.OrderStatusPrep,
		CreatedAt:       c.now(),
	}

	err := c.commit(ctx, "order:"+id, func(tx dispatchtx.Store, emit func(broadcast.Event)) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		emit(broadcast.Event{
			Kind:    broadcast.KindOrderCreated,
			OrderID: order.ID,
			Status:  order.Status,
			At:      order.CreatedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("order created",
		logx.String("event", "order_created"),
		logx.String("order_id", order.ID),
		logx.String("order_number", order.Number),
		logx.String("total", order.TotalAmount().String()),
	)
	return order, nil
}

func (c *Coordinator) validateCreate(in CreateOrderInput) error {
	if len(in.Items) == 0 {
		return apperr.ErrValidation
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.Name) == "" || it.Quantity <= 0 || !it.UnitPrice.IsPositive() {
			return apperr.ErrValidation
		}
	}
	if in.PrepTimeMinutes <= 0 || in.PrepTimeMinutes > c.cfg.MaxPrepTimeMinutes {
		return apperr.ErrValidation
	}
	if strings.TrimSpace(in.Customer.Address) == "" {
		return apperr.ErrValidation
	}
	return nil
}

func orderNumber(id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return "ORD-" + strings.ToUpper(short)
}

// RequestAssignment binds a partner to an order. Manager push and partner
// pull share this one entry point, so the at-most-one-winner contract holds
// no matter who initiates. Exactly one concurrent caller succeeds; the rest
// observe ErrAlreadyAssigned.
func (c *Coordinator) RequestAssignment(ctx context.Context, orderID, partnerID string, mode domain.AssignmentMode) (domain.AssignResult, error) {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(partnerID) == "" || !mode.Valid() {
		return domain.AssignResult{}, apperr.ErrValidation
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var result domain.AssignResult

	err := c.commit(ctx, "order:"+orderID, func(tx dispatchtx.Store, emit func(broadcast.Event)) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperr.ErrNotFound
		}
		switch {
		case order.Status == domain.OrderStatusCancelled:
			return apperr.ErrInvalidTransition
		case order.Status != domain.OrderStatusPrep || order.Assigned():
			return apperr.ErrAlreadyAssigned
		}

		partner, err := tx.GetPartner(ctx, partnerID)
		if err != nil {
			return err
		}
		if partner == nil {
			return apperr.ErrNotFound
		}
		if !c.policy.Eligible(order, partner) {
			return apperr.ErrPartnerNotAvailable
		}

		now := c.now()
		order.Status = domain.OrderStatusPicked
		order.AssignedPartnerID = &partner.ID
		order.AssignedAt = &now
		partner.Availability = domain.AvailabilityBusy
		partner.CurrentOrderID = &order.ID

		// Both guards inside one transaction: the order side and the partner
		// side commit together or not at all.
		if err := tx.PutOrder(ctx, order, domain.OrderStatusPrep); err != nil {
			return err
		}
		if err := tx.PutPartner(ctx, partner, domain.AvailabilityAvailable); err != nil {
			return err
		}

		result = domain.AssignResult{
			OrderID:     order.ID,
			OrderNumber: order.Number,
			PartnerID:   partner.ID,
			Mode:        mode,
			AssignedAt:  now,
		}
		emit(broadcast.Event{
			Kind:      broadcast.KindOrderAssigned,
			OrderID:   order.ID,
			PartnerID: partner.ID,
			Status:    order.Status,
			At:        now,
		})
		emit(broadcast.Event{
			Kind:         broadcast.KindPartnerAvailabilityChanged,
			PartnerID:    partner.ID,
			Availability: partner.Availability,
			At:           now,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyAssigned) && c.conflicts != nil {
			c.conflicts.Inc()
		}
		return domain.AssignResult{}, err
	}

	c.logger.Info("partner assigned",
		logx.String("event", "partner_assigned"),
		logx.String("order_id", result.OrderID),
		logx.String("partner_id", result.PartnerID),
		logx.String("mode", string(result.Mode)),
	)
	return result, nil
}

// statusRank orders the happy-path statuses so a moved-past request can be
// told apart from a plainly illegal one.
var statusRank = map[domain.OrderStatus]int{
	domain.OrderStatusPrep:      0,
	domain.OrderStatusPicked:    1,
	domain.OrderStatusOnRoute:   2,
	domain.OrderStatusDelivered: 3,
}

// AdvanceStatus applies the transition table. The caller must be the partner
// bound to the order. Retrying the same target from the same state is an
// idempotent no-op; requesting a status the order already moved past fails
// with ErrStaleTransition.
func (c *Coordinator) AdvanceStatus(ctx context.Context, orderID, callerPartnerID string, target domain.OrderStatus) (*domain.Order, error) {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(callerPartnerID) == "" || !target.Valid() {
		return nil, apperr.ErrValidation
	}
	if target == domain.OrderStatusCancelled {
		// cancellation carries a reason and its own authorization rules
		return nil, apperr.ErrValidation
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var result *domain.Order

	err := c.commit(ctx, "order:"+orderID, func(tx dispatchtx.Store, emit func(broadcast.Event)) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperr.ErrNotFound
		}

		if order.Status == target {
			// Retry of a transition that already landed. The responses to
			// flaky clients stay idempotent; no second event is emitted.
			if order.AssignedPartnerID == nil || *order.AssignedPartnerID != callerPartnerID {
				return apperr.ErrNotAssignedPartner
			}
			result = order
			return nil
		}

		if !order.Status.CanTransition(target) {
			cur, curKnown := statusRank[order.Status]
			tgt := statusRank[target]
			if curKnown && tgt < cur {
				return apperr.ErrStaleTransition
			}
			return apperr.ErrInvalidTransition
		}
		if order.Status == domain.OrderStatusPrep {
			// prep -> picked is the assignment transition and must carry a
			// partner through RequestAssignment
			return apperr.ErrValidation
		}
		if order.AssignedPartnerID == nil || *order.AssignedPartnerID != callerPartnerID {
			return apperr.ErrNotAssignedPartner
		}

		prior := order.Status
		now := c.now()
		order.Status = target

		if err := tx.PutOrder(ctx, order, prior); err != nil {
			return err
		}
		emit(broadcast.Event{
			Kind:      broadcast.KindOrderStatusChanged,
			OrderID:   order.ID,
			PartnerID: callerPartnerID,
			Status:    target,
			At:        now,
		})

		if target == domain.OrderStatusDelivered {
			if err := c.completeDelivery(ctx, tx, order, emit, now); err != nil {
				return err
			}
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("order status advanced",
		logx.String("event", "order_status_changed"),
		logx.String("order_id", result.ID),
		logx.String("status", string(result.Status)),
	)
	return result, nil
}

// completeDelivery releases the partner and settles the rolling counters,
// inside the same transaction as the order's terminal transition.
func (c *Coordinator) completeDelivery(ctx context.Context, tx dispatchtx.Store, order *domain.Order, emit func(broadcast.Event), now time.Time) error {
	partner, err := tx.GetPartner(ctx, *order.AssignedPartnerID)
	if err != nil {
		return err
	}
	if partner == nil {
		return apperr.ErrNotFound
	}

	partner.Availability = domain.AvailabilityAvailable
	partner.CurrentOrderID = nil
	partner.CompletedCount++
	partner.TodayDeliveries++
	partner.Earnings = partner.Earnings.Add(order.TotalAmount())

	if err := tx.PutPartner(ctx, partner, domain.AvailabilityBusy); err != nil {
		return err
	}
	if err := tx.AppendOrderHistory(ctx, order); err != nil {
		return err
	}
	emit(broadcast.Event{
		Kind:         broadcast.KindPartnerAvailabilityChanged,
		PartnerID:    partner.ID,
		Availability: partner.Availability,
		At:           now,
	})
	return nil
}

// CancelOrder terminates a non-terminal order and releases the bound partner,
// if any, in the same commit. Managers may cancel any order; a partner may
// cancel only an order bound to them.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID, reason string, caller domain.Caller) (*domain.Order, error) {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(reason) == "" {
		return nil, apperr.ErrValidation
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var result *domain.Order

	err := c.commit(ctx, "order:"+orderID, func(tx dispatchtx.Store, emit func(broadcast.Event)) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperr.ErrNotFound
		}
		if order.Status.Terminal() {
			return apperr.ErrInvalidTransition
		}
		if !caller.IsManager() {
			if order.AssignedPartnerID == nil || *order.AssignedPartnerID != caller.PartnerID {
				return apperr.ErrNotAssignedPartner
			}
		}

		prior := order.Status
		now := c.now()
		order.Status = domain.OrderStatusCancelled
		order.CancelReason = reason

		if err := tx.PutOrder(ctx, order, prior); err != nil {
			return err
		}
		emit(broadcast.Event{
			Kind:    broadcast.KindOrderCancelled,
			OrderID: order.ID,
			Reason:  reason,
			At:      now,
		})

		if order.Assigned() {
			partner, err := tx.GetPartner(ctx, *order.AssignedPartnerID)
			if err != nil {
				return err
			}
			if partner == nil {
				return apperr.ErrNotFound
			}
			partner.Availability = domain.AvailabilityAvailable
			partner.CurrentOrderID = nil
			if err := tx.PutPartner(ctx, partner, domain.AvailabilityBusy); err != nil {
				return err
			}
			emit(broadcast.Event{
				Kind:         broadcast.KindPartnerAvailabilityChanged,
				PartnerID:    partner.ID,
				Availability: partner.Availability,
				At:           now,
			})
		}

		if err := tx.AppendOrderHistory(ctx, order); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("order cancelled",
		logx.String("event", "order_cancelled"),
		logx.String("order_id", result.ID),
		logx.String("reason", reason),
	)
	return result, nil
}

// ToggleAvailability flips a partner between available and offline. Busy is
// coordinator-set only: a partner cannot self-declare busy, and a busy
// partner cannot toggle until released.
func (c *Coordinator) ToggleAvailability(ctx context.Context, partnerID string, target domain.PartnerAvailability) (*domain.Partner, error) {
	if strings.TrimSpace(partnerID) == "" {
		return nil, apperr.ErrValidation
	}
	if target != domain.AvailabilityAvailable && target != domain.AvailabilityOffline {
		return nil, apperr.ErrValidation
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var result *domain.Partner

	err := c.commit(ctx, "partner:"+partnerID, func(tx dispatchtx.Store, emit func(broadcast.Event)) error {
		partner, err := tx.GetPartner(ctx, partnerID)
		if err != nil {
			return err
		}
		if partner == nil {
			return apperr.ErrNotFound
		}
		if partner.Availability == target {
			result = partner
			return nil
		}
		if partner.Availability == domain.AvailabilityBusy {
			return apperr.ErrInvalidTransition
		}

		prior := partner.Availability
		partner.Availability = target
		if err := tx.PutPartner(ctx, partner, prior); err != nil {
			return err
		}
		emit(broadcast.Event{
			Kind:         broadcast.KindPartnerAvailabilityChanged,
			PartnerID:    partner.ID,
			Availability: target,
			At:           c.now(),
		})
		result = partner
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AvailableOrders returns the pull feed for a partner: unassigned orders in
// preparation the partner is eligible for.
func (c *Coordinator) AvailableOrders(ctx context.Context, partnerID string) ([]domain.Order, error) {
	if strings.TrimSpace(partnerID) == "" {
		return nil, apperr.ErrValidation
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var feed []domain.Order
	err := c.repo.WithTx(ctx, func(tx dispatchtx.Store) error {
		partner, err := tx.GetPartner(ctx, partnerID)
		if err != nil {
			return err
		}
		if partner == nil {
			return apperr.ErrNotFound
		}
		open, err := tx.ListOpenOrders(ctx)
		if err != nil {
			return err
		}
		for i := range open {
			if c.policy.FeedVisible(&open[i], partner) {
				feed = append(feed, open[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feed, nil
}

// SuggestPartner returns the top-ranked eligible partner for a push
// assignment. The suggestion is advisory; the manager may pick someone else.
func (c *Coordinator) SuggestPartner(ctx context.Context, orderID string) (*domain.Partner, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperr.ErrValidation
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var suggestion *domain.Partner
	err := c.repo.WithTx(ctx, func(tx dispatchtx.Store) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperr.ErrNotFound
		}
		if !order.VisibleInPullFeed() {
			if order.Status == domain.OrderStatusCancelled {
				return apperr.ErrInvalidTransition
			}
			return apperr.ErrAlreadyAssigned
		}
		partners, err := tx.ListAvailablePartners(ctx)
		if err != nil {
			return err
		}
		suggestion = c.policy.Suggest(order, partners)
		if suggestion == nil {
			return apperr.ErrPartnerNotAvailable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}
