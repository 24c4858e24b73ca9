// Package inmem is the in-memory twin of the postgres store. It implements
// the same conditional-write contract (guarded puts, atomic multi-record
// commits, per-key serialization) and backs unit tests and database-less runs.
package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
	"dispatch-console/internal/ports/dispatchtx"
)

// Store keeps orders and partners in maps. Commits lock only the records they
// touch, so requests for unrelated orders do not serialize against each other.
type Store struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	partners map[string]domain.Partner
	history  []domain.Order

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		orders:   make(map[string]domain.Order),
		partners: make(map[string]domain.Partner),
		locks:    make(map[string]*sync.Mutex),
	}
}

// WithTx buffers the writes fn issues and commits them as one unit: every
// guard is re-checked under the touched records' locks, and either all writes
// land or none do.
func (s *Store) WithTx(ctx context.Context, fn func(tx dispatchtx.Store) error) error {
	t := &txn{s: s}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.commit()
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

func copyOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.AssignedPartnerID != nil {
		id := *o.AssignedPartnerID
		o.AssignedPartnerID = &id
	}
	if o.AssignedAt != nil {
		at := *o.AssignedAt
		o.AssignedAt = &at
	}
	if o.Customer.Point != nil {
		p := *o.Customer.Point
		o.Customer.Point = &p
	}
	return o
}

func copyPartner(p domain.Partner) domain.Partner {
	if p.CurrentOrderID != nil {
		id := *p.CurrentOrderID
		p.CurrentOrderID = &id
	}
	if p.Location != nil {
		loc := *p.Location
		p.Location = &loc
	}
	return p
}

type writeKind int

const (
	writeCreateOrder writeKind = iota
	writePutOrder
	writeAppendHistory
	writePutPartner
)

type write struct {
	kind            writeKind
	order           domain.Order
	partner         domain.Partner
	expStatus       domain.OrderStatus
	expAvailability domain.PartnerAvailability
}

func (w write) key() string {
	if w.kind == writePutPartner {
		return "partner:" + w.partner.ID
	}
	return "order:" + w.order.ID
}

type txn struct {
	s      *Store
	writes []write
}

// GetOrder returns the order as the transaction sees it: buffered writes
// shadow the store.
func (t *txn) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	for i := len(t.writes) - 1; i >= 0; i-- {
		w := t.writes[i]
		if (w.kind == writeCreateOrder || w.kind == writePutOrder) && w.order.ID == id {
			o := copyOrder(w.order)
			return &o, nil
		}
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	o, ok := t.s.orders[id]
	if !ok {
		return nil, nil
	}
	o = copyOrder(o)
	return &o, nil
}

func (t *txn) CreateOrder(_ context.Context, o *domain.Order) error {
	t.writes = append(t.writes, write{kind: writeCreateOrder, order: copyOrder(*o)})
	return nil
}

func (t *txn) PutOrder(_ context.Context, o *domain.Order, expected domain.OrderStatus) error {
	t.writes = append(t.writes, write{kind: writePutOrder, order: copyOrder(*o), expStatus: expected})
	return nil
}

func (t *txn) AppendOrderHistory(_ context.Context, o *domain.Order) error {
	t.writes = append(t.writes, write{kind: writeAppendHistory, order: copyOrder(*o)})
	return nil
}

func (t *txn) ListOpenOrders(_ context.Context) ([]domain.Order, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	var out []domain.Order
	for _, o := range t.s.orders {
		if o.VisibleInPullFeed() {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *txn) GetPartner(_ context.Context, id string) (*domain.Partner, error) {
	for i := len(t.writes) - 1; i >= 0; i-- {
		w := t.writes[i]
		if w.kind == writePutPartner && w.partner.ID == id {
			p := copyPartner(w.partner)
			return &p, nil
		}
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	p, ok := t.s.partners[id]
	if !ok {
		return nil, nil
	}
	p = copyPartner(p)
	return &p, nil
}

func (t *txn) PutPartner(_ context.Context, p *domain.Partner, expected domain.PartnerAvailability) error {
	t.writes = append(t.writes, write{kind: writePutPartner, partner: copyPartner(*p), expAvailability: expected})
	return nil
}

func (t *txn) ListAvailablePartners(_ context.Context) ([]domain.Partner, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	var out []domain.Partner
	for _, p := range t.s.partners {
		if p.Availability == domain.AvailabilityAvailable {
			out = append(out, copyPartner(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// commit re-validates every guard and applies all buffered writes, holding the
// locks of exactly the records the transaction touched. Locks are taken in
// sorted key order to stay deadlock-free.
func (t *txn) commit() error {
	if len(t.writes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(t.writes))
	seen := make(map[string]struct{}, len(t.writes))
	for _, w := range t.writes {
		if _, ok := seen[w.key()]; !ok {
			seen[w.key()] = struct{}{}
			keys = append(keys, w.key())
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		m := t.s.keyLock(k)
		m.Lock()
		defer m.Unlock()
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for _, w := range t.writes {
		switch w.kind {
		case writeCreateOrder:
			if _, ok := t.s.orders[w.order.ID]; ok {
				return apperr.ErrConflict
			}
		case writePutOrder:
			cur, ok := t.s.orders[w.order.ID]
			if !ok {
				return apperr.ErrNotFound
			}
			if cur.Status != w.expStatus {
				return apperr.ErrStorageConflict
			}
		case writePutPartner:
			cur, ok := t.s.partners[w.partner.ID]
			if !ok {
				return apperr.ErrNotFound
			}
			if cur.Availability != w.expAvailability {
				return apperr.ErrStorageConflict
			}
		case writeAppendHistory:
			// append-only, no guard
		default:
			return fmt.Errorf("inmem: unknown write kind %d", w.kind)
		}
	}

	for _, w := range t.writes {
		switch w.kind {
		case writeCreateOrder, writePutOrder:
			t.s.orders[w.order.ID] = w.order
		case writePutPartner:
			t.s.partners[w.partner.ID] = w.partner
		case writeAppendHistory:
			t.s.history = append(t.s.history, w.order)
		}
	}
	return nil
}

var (
	_ dispatchtx.Store  = (*txn)(nil)
	_ dispatchtx.Runner = (*Store)(nil)
)
