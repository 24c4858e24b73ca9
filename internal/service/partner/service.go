// Package partner manages the delivery partner roster: profile records and
// their static attributes. Availability is out of scope here; it moves only
// through the dispatch coordinator.
package partner

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
)

// Service coordinates partner roster logic and orchestrates repository calls.
type Service struct {
	repo             rosterRepository
	operationTimeout time.Duration
	newID            func() string
}

// NewService creates and configures a roster Service.
func NewService(r rosterRepository, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{repo: r, operationTimeout: timeout, newID: uuid.NewString}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// validateCreate validates a partner for registration.
func validateCreate(p *domain.Partner) error {
	if p == nil {
		return apperr.ErrValidation
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperr.ErrValidation
	}
	if !domain.ValidatePhone(p.Phone) {
		return apperr.ErrValidation
	}
	if p.Availability == "" {
		p.Availability = domain.AvailabilityOffline
	}
	if !p.Availability.Valid() {
		return apperr.ErrValidation
	}
	if p.Availability == domain.AvailabilityBusy || p.CurrentOrderID != nil {
		// nobody registers mid-delivery
		return apperr.ErrValidation
	}
	if p.Rating < 0 || p.Rating > 5 {
		return apperr.ErrValidation
	}
	return nil
}

func validateUpdate(u *domain.PartialPartnerUpdate) error {
	if strings.TrimSpace(u.ID) == "" {
		return apperr.ErrValidation
	}
	if u.Name == nil && u.Phone == nil && u.Vehicle == nil {
		return apperr.ErrValidation
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return apperr.ErrValidation
	}
	if u.Phone != nil && !domain.ValidatePhone(*u.Phone) {
		return apperr.ErrValidation
	}
	return nil
}

// Get retrieves a partner by its ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Partner, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	return p, nil
}

// List returns partners with optional pagination.
func (s *Service) List(ctx context.Context, limit, offset *int) ([]domain.Partner, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.List(ctx, limit, offset)
}

// Create registers a new partner and returns its generated ID.
func (s *Service) Create(ctx context.Context, p *domain.Partner) (string, error) {
	if err := validateCreate(p); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = s.newID()
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// UpdatePartial applies a partial update to a partner's profile. It returns
// true if a record was updated.
func (s *Service) UpdatePartial(ctx context.Context, u domain.PartialPartnerUpdate) (bool, error) {
	if err := validateUpdate(&u); err != nil {
		return false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ok, err := s.repo.UpdatePartial(ctx, u)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, apperr.ErrNotFound
	}
	return true, nil
}
