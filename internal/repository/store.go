package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dispatch-console/internal/apperr"
	"dispatch-console/internal/domain"
	"dispatch-console/internal/ports/dispatchtx"
)

// querier is the subset of pgx operations shared by the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the durable order/partner store backed by postgres.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a new Store.
func NewStore(db *pgxpool.Pool) *Store { return &Store{db: db} }

// WithTx opens a transaction and executes fn within it. The conditional write
// guards inside the transaction keep concurrent dispatch requests touching the
// same order or partner from interleaving.
func (s *Store) WithTx(ctx context.Context, fn func(tx dispatchtx.Store) error) (err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	wrapped := &TxStore{q: tx}

	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// TxStore is the transaction-scoped view of the store.
type TxStore struct {
	q querier
}

const orderColumns = `id, number, items, customer_name, customer_phone, customer_address,
       customer_lat, customer_lng, prep_minutes, status, assigned_partner_id,
       assigned_at, cancel_reason, created_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o        domain.Order
		rawItems []byte
		lat, lng *float64
	)
	err := row.Scan(&o.ID, &o.Number, &rawItems, &o.Customer.Name, &o.Customer.Phone,
		&o.Customer.Address, &lat, &lng, &o.PrepTimeMinutes, &o.Status,
		&o.AssignedPartnerID, &o.AssignedAt, &o.CancelReason, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if o.Items, err = unmarshalItems(rawItems); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		o.Customer.Point = &domain.GeoPoint{Lat: *lat, Lng: *lng}
	}
	return &o, nil
}

func getOrder(ctx context.Context, q querier, id string) (*domain.Order, error) {
	row := q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %q: %w", id, err)
	}
	return o, nil
}

// GetOrder - returns the order by its ID, nil if absent.
func (t *TxStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, t.q, id)
}

// CreateOrder - inserts a new order.
func (t *TxStore) CreateOrder(ctx context.Context, o *domain.Order) error {
	rawItems, err := marshalItems(o.Items)
	if err != nil {
		return err
	}
	var lat, lng *float64
	if p := o.Customer.Point; p != nil {
		lat, lng = &p.Lat, &p.Lng
	}
	_, err = t.q.Exec(ctx, `
        INSERT INTO orders (id, number, items, customer_name, customer_phone, customer_address,
                            customer_lat, customer_lng, prep_minutes, status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    `, o.ID, o.Number, rawItems, o.Customer.Name, o.Customer.Phone, o.Customer.Address,
		lat, lng, o.PrepTimeMinutes, o.Status, o.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// PutOrder writes the mutable order fields, guarded by the expected prior
// status. A guard miss means another request committed first.
func (t *TxStore) PutOrder(ctx context.Context, o *domain.Order, expected domain.OrderStatus) error {
	rawItems, err := marshalItems(o.Items)
	if err != nil {
		return err
	}
	ct, err := t.q.Exec(ctx, `
        UPDATE orders
        SET items = $2,
            status = $3,
            assigned_partner_id = $4,
            assigned_at = $5,
            cancel_reason = $6,
            updated_at = now()
        WHERE id = $1 AND status = $7
    `, o.ID, rawItems, o.Status, o.AssignedPartnerID, o.AssignedAt, o.CancelReason, expected)
	if err != nil {
		return fmt.Errorf("put order %q: %w", o.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return t.orderGuardMiss(ctx, o.ID)
	}
	return nil
}

func (t *TxStore) orderGuardMiss(ctx context.Context, id string) error {
	var exists bool
	if err := t.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("order guard check %q: %w", id, err)
	}
	if !exists {
		return apperr.ErrNotFound
	}
	return apperr.ErrStorageConflict
}

// AppendOrderHistory records an immutable snapshot of a terminal order.
func (t *TxStore) AppendOrderHistory(ctx context.Context, o *domain.Order) error {
	snapshot, err := marshalSnapshot(o)
	if err != nil {
		return err
	}
	_, err = t.q.Exec(ctx, `
        INSERT INTO order_history (order_id, snapshot, recorded_at)
        VALUES ($1, $2, now())
    `, o.ID, snapshot)
	if err != nil {
		return fmt.Errorf("append order history %q: %w", o.ID, err)
	}
	return nil
}

// ListOpenOrders returns unassigned orders still in preparation, oldest first.
func (t *TxStore) ListOpenOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := t.q.Query(ctx, `
        SELECT `+orderColumns+`
        FROM orders
        WHERE status = $1 AND assigned_partner_id IS NULL
        ORDER BY created_at
    `, domain.OrderStatusPrep)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
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

const partnerColumns = `id, name, phone, vehicle, availability, current_order_id,
       rating, completed_count, today_deliveries, earnings, lat, lng`

func scanPartner(row pgx.Row) (*domain.Partner, error) {
	var (
		p        domain.Partner
		lat, lng *float64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Vehicle, &p.Availability,
		&p.CurrentOrderID, &p.Rating, &p.CompletedCount, &p.TodayDeliveries,
		&p.Earnings, &lat, &lng)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		p.Location = &domain.GeoPoint{Lat: *lat, Lng: *lng}
	}
	return &p, nil
}

func getPartner(ctx context.Context, q querier, id string) (*domain.Partner, error) {
	row := q.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
	p, err := scanPartner(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner %q: %w", id, err)
	}
	return p, nil
}

// GetPartner - returns the partner by its ID, nil if absent.
func (t *TxStore) GetPartner(ctx context.Context, id string) (*domain.Partner, error) {
	return getPartner(ctx, t.q, id)
}

// PutPartner writes the mutable partner fields, guarded by the expected prior
// availability.
func (t *TxStore) PutPartner(ctx context.Context, p *domain.Partner, expected domain.PartnerAvailability) error {
	ct, err := t.q.Exec(ctx, `
        UPDATE partners
        SET availability = $2,
            current_order_id = $3,
            rating = $4,
            completed_count = $5,
            today_deliveries = $6,
            earnings = $7,
            updated_at = now()
        WHERE id = $1 AND availability = $8
    `, p.ID, p.Availability, p.CurrentOrderID, p.Rating, p.CompletedCount,
		p.TodayDeliveries, p.Earnings, expected)
	if err != nil {
		return fmt.Errorf("put partner %q: %w", p.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return t.partnerGuardMiss(ctx, p.ID)
	}
	return nil
}

func (t *TxStore) partnerGuardMiss(ctx context.Context, id string) error {
	var exists bool
	if err := t.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM partners WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("partner guard check %q: %w", id, err)
	}
	if !exists {
		return apperr.ErrNotFound
	}
	return apperr.ErrStorageConflict
}

// ListAvailablePartners returns partners currently able to take an order.
func (t *TxStore) ListAvailablePartners(ctx context.Context) ([]domain.Partner, error) {
	rows, err := t.q.Query(ctx, `
        SELECT `+partnerColumns+`
        FROM partners
        WHERE availability = $1
        ORDER BY today_deliveries, rating DESC, id
    `, domain.AvailabilityAvailable)
	if err != nil {
		return nil, fmt.Errorf("list available partners: %w", err)
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

var _ dispatchtx.Store = (*TxStore)(nil)
