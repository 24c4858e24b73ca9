package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
)

// PartnerRepo represents the partner roster repository.
type PartnerRepo struct{ db *pgxpool.Pool }

// NewPartnerRepo creates a new PartnerRepo.
func NewPartnerRepo(db *pgxpool.Pool) *PartnerRepo { return &PartnerRepo{db: db} }

// Get - returns the partner by its ID, nil if absent.
func (r *PartnerRepo) Get(ctx context.Context, id string) (*domain.Partner, error) {
	return getPartner(ctx, r.db, id)
}

// List returns partners ordered by id. If limit/offset are nil, returns the full list.
func (r *PartnerRepo) List(ctx context.Context, limit, offset *int) ([]domain.Partner, error) {
	q := `SELECT ` + partnerColumns + ` FROM partners ORDER BY id`
	args := make([]any, 0, 2)
	if limit != nil {
		args = append(args, *limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset != nil {
		args = append(args, *offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	var out []domain.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Create - onboards a new partner.
func (r *PartnerRepo) Create(ctx context.Context, p *domain.Partner) error {
	var lat, lng *float64
	if p.Location != nil {
		lat, lng = &p.Location.Lat, &p.Location.Lng
	}
	_, err := r.db.Exec(ctx, `
        INSERT INTO partners (id, name, phone, vehicle, availability, rating,
                              completed_count, today_deliveries, earnings, lat, lng)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    `, p.ID, p.Name, p.Phone, p.Vehicle, p.Availability, p.Rating,
		p.CompletedCount, p.TodayDeliveries, p.Earnings, lat, lng)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("create partner: %w", err)
	}
	return nil
}

// UpdatePartial applies a partial roster update and returns true if a row was affected.
// Availability and the current order binding are excluded: only the coordinator
// writes those.
func (r *PartnerRepo) UpdatePartial(ctx context.Context, u domain.PartialPartnerUpdate) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE partners
        SET
            name       = COALESCE($2, name),
            phone      = COALESCE($3, phone),
            vehicle    = COALESCE($4, vehicle),
            updated_at = now()
        WHERE id = $1
    `, u.ID, u.Name, u.Phone, u.Vehicle)
	if err != nil {
		if IsDuplicate(err) {
			return false, apperr.ErrConflict
		}
		return false, fmt.Errorf("update partner %q: %w", u.ID, err)
	}
	return ct.RowsAffected() > 0, nil
}
