package masterdata

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian/internal/invoicing"
	"github.com/meridian-erp/meridian/internal/ledger"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entityColumns = `id, kind, name, rate, pricing_type, created_at, updated_at`

func scanEntity(row pgx.Row) (Entity, error) {
	var entity Entity
	var pricing *string
	if err := row.Scan(&entity.ID, &entity.Kind, &entity.Name, &entity.Rate, &pricing, &entity.CreatedAt, &entity.UpdatedAt); err != nil {
		return Entity{}, err
	}
	if pricing != nil {
		entity.PricingType = invoicing.PricingType(*pricing)
	}
	return entity, nil
}

// CreateEntity inserts a new entity and returns its id.
func (r *Repository) CreateEntity(ctx context.Context, entity Entity) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO entities (kind, name, rate, pricing_type, created_at, updated_at) VALUES ($1, $2, $3, NULLIF($4, ''), NOW(), NOW()) RETURNING id`,
		string(entity.Kind), entity.Name, entity.Rate, string(entity.PricingType)).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

// UpdateEntity persists changes to an existing entity.
func (r *Repository) UpdateEntity(ctx context.Context, entity Entity) error {
	tag, err := r.pool.Exec(ctx, `UPDATE entities SET name=$2, rate=$3, pricing_type=NULLIF($4, ''), updated_at=NOW() WHERE id=$1`,
		entity.ID, entity.Name, entity.Rate, string(entity.PricingType))
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetEntity loads one entity by kind and id.
func (r *Repository) GetEntity(ctx context.Context, kind ledger.EntityKind, id int64) (Entity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entityColumns+` FROM entities WHERE kind=$1 AND id=$2`, string(kind), id)
	entity, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entity{}, ErrNotFound
		}
		return Entity{}, err
	}
	return entity, nil
}

// GetEntityByID loads one entity regardless of kind.
func (r *Repository) GetEntityByID(ctx context.Context, id int64) (Entity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entityColumns+` FROM entities WHERE id=$1`, id)
	entity, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entity{}, ErrNotFound
		}
		return Entity{}, err
	}
	return entity, nil
}

// ListEntities returns a page of entities of one kind and the total count.
func (r *Repository) ListEntities(ctx context.Context, kind ledger.EntityKind, limit, offset int) ([]Entity, int, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entityColumns+` FROM entities WHERE kind=$1 ORDER BY name LIMIT $2 OFFSET $3`, string(kind), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entities []Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, 0, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM entities WHERE kind=$1`, string(kind)).Scan(&total); err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

// mapPgError converts unique violations into ErrDuplicate.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
