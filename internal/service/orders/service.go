// Package orders serves the console's read side for orders. Writes never pass
// through here; every mutation goes to the dispatch coordinator.
package orders

import (
	"context"
	"strings"
	"time"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
)

// orderReader defines the storage reads required by the console.
type orderReader interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus, limit, offset *int) ([]domain.Order, error)
}

// Service answers order lookups and listings for the console views.
type Service struct {
	repo             orderReader
	operationTimeout time.Duration
}

// NewService creates and configures an order read Service.
func NewService(r orderReader, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{repo: r, operationTimeout: timeout}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Get retrieves an order by its ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.ErrValidation
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.ErrNotFound
	}
	return o, nil
}

// List returns orders, optionally filtered by status, with pagination.
func (s *Service) List(ctx context.Context, status *domain.OrderStatus, limit, offset *int) ([]domain.Order, error) {
	if status != nil && !status.Valid() {
		return nil, apperr.ErrValidation
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.List(ctx, status, limit, offset)
}
