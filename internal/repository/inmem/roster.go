package inmem

import (
	"context"
	"sort"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
)

// The methods below mirror the postgres roster and console read repositories,
// so the in-memory store can stand in for them wholesale.

// Get - returns the partner by its ID, nil if absent.
func (s *Store) Get(_ context.Context, id string) (*domain.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partners[id]
	if !ok {
		return nil, nil
	}
	p = copyPartner(p)
	return &p, nil
}

// List returns partners ordered by id.
func (s *Store) List(_ context.Context, limit, offset *int) ([]domain.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Partner, 0, len(s.partners))
	for _, p := range s.partners {
		out = append(out, copyPartner(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, limit, offset), nil
}

// Create - onboards a new partner.
func (s *Store) Create(_ context.Context, p *domain.Partner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partners[p.ID]; ok {
		return apperr.ErrConflict
	}
	for _, existing := range s.partners {
		if existing.Phone == p.Phone {
			return apperr.ErrConflict
		}
	}
	s.partners[p.ID] = copyPartner(*p)
	return nil
}

// UpdatePartial applies a partial roster update and returns true if the partner exists.
func (s *Store) UpdatePartial(_ context.Context, u domain.PartialPartnerUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[u.ID]
	if !ok {
		return false, nil
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Vehicle != nil {
		p.Vehicle = *u.Vehicle
	}
	s.partners[u.ID] = p
	return true, nil
}

// GetOrder - returns the order by its ID outside of any transaction.
func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	o = copyOrder(o)
	return &o, nil
}

// ListOrders returns orders newest first, optionally filtered by status.
func (s *Store) ListOrders(_ context.Context, status *domain.OrderStatus, limit, offset *int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return window(out, limit, offset), nil
}

// History returns a copy of the append-only terminal order snapshots.
func (s *Store) History() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0, len(s.history))
	for _, o := range s.history {
		out = append(out, copyOrder(o))
	}
	return out
}

func window[T any](list []T, limit, offset *int) []T {
	if offset != nil {
		if *offset >= len(list) {
			return nil
		}
		list = list[*offset:]
	}
	if limit != nil && *limit < len(list) {
		list = list[:*limit]
	}
	return list
}
