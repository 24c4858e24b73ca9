package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"dispatch-console/internal/domain"
)

// OrderRepo serves console read queries over orders.
type OrderRepo struct{ db *pgxpool.Pool }

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo { return &OrderRepo{db: db} }

// Get - returns the order by its ID, nil if absent.
func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, r.db, id)
}

// List returns orders newest first, optionally filtered by status.
func (r *OrderRepo) List(ctx context.Context, status *domain.OrderStatus, limit, offset *int) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders`
	args := make([]any, 0, 3)
	if status != nil {
		args = append(args, *status)
		q += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	q += " ORDER BY created_at DESC"
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
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
