package partner

import (
	"context"

	"dispatch-console/internal/domain"
)

// rosterRepository defines storage operations required by the roster layer.
type rosterRepository interface {
	Get(ctx context.Context, id string) (*domain.Partner, error)
	List(ctx context.Context, limit, offset *int) ([]domain.Partner, error)
	Create(ctx context.Context, p *domain.Partner) error
	UpdatePartial(ctx context.Context, u domain.PartialPartnerUpdate) (bool, error)
}
