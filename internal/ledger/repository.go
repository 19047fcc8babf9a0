package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the raw event log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListOperations returns every operation recorded against the entity.
func (r *Repository) ListOperations(ctx context.Context, kind EntityKind, entityID int64) ([]RawOperation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, entity_id, occurred_on, value FROM operations WHERE entity_kind=$1 AND entity_id=$2 ORDER BY occurred_on`, string(kind), entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ops []RawOperation
	for rows.Next() {
		var op RawOperation
		if err := rows.Scan(&op.ID, &op.EntityID, &op.Date, &op.Value); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}

// ListPayments returns every manual payment recorded against the entity.
func (r *Repository) ListPayments(ctx context.Context, kind EntityKind, entityID int64) ([]RawPayment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, entity_id, paid_on, amount FROM payments WHERE entity_kind=$1 AND entity_id=$2 ORDER BY paid_on`, string(kind), entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []RawPayment
	for rows.Next() {
		var p RawPayment
		if err := rows.Scan(&p.ID, &p.EntityID, &p.Date, &p.Amount); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

// CreatePayment inserts a manual payment and returns its id.
func (r *Repository) CreatePayment(ctx context.Context, kind EntityKind, entityID int64, amount float64, date time.Time) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO payments (entity_kind, entity_id, amount, paid_on, created_at) VALUES ($1, $2, $3, $4, NOW()) RETURNING id`, string(kind), entityID, amount, date).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
