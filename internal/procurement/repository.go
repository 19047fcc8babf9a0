package procurement

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	UpdateItem(ctx context.Context, item ShoppingListItem) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetItem returns one shopping list item.
func (r *Repository) GetItem(ctx context.Context, id int64) (ShoppingListItem, error) {
	var item ShoppingListItem
	err := r.pool.QueryRow(ctx, `SELECT id, list_id, product_id, ordered_qty, received_qty, defective_qty, returned_qty, status, updated_at FROM shopping_list_items WHERE id=$1`, id).
		Scan(&item.ID, &item.ListID, &item.ProductID, &item.OrderedQty, &item.ReceivedQty, &item.DefectiveQty, &item.ReturnedQty, &item.Status, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ShoppingListItem{}, ErrNotFound
		}
		return ShoppingListItem{}, err
	}
	return item, nil
}

// ListItems returns every item of a shopping list.
func (r *Repository) ListItems(ctx context.Context, listID int64) ([]ShoppingListItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, list_id, product_id, ordered_qty, received_qty, defective_qty, returned_qty, status, updated_at FROM shopping_list_items WHERE list_id=$1 ORDER BY id`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ShoppingListItem
	for rows.Next() {
		var item ShoppingListItem
		if err := rows.Scan(&item.ID, &item.ListID, &item.ProductID, &item.OrderedQty, &item.ReceivedQty, &item.DefectiveQty, &item.ReturnedQty, &item.Status, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (t *txRepo) UpdateItem(ctx context.Context, item ShoppingListItem) error {
	tag, err := t.tx.Exec(ctx, `UPDATE shopping_list_items SET received_qty=$2, defective_qty=$3, returned_qty=$4, status=$5, updated_at=NOW() WHERE id=$1`,
		item.ID, item.ReceivedQty, item.DefectiveQty, item.ReturnedQty, string(item.Status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
