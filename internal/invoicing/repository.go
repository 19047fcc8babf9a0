package invoicing

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
	CreateInvoice(ctx context.Context, inv Invoice) (int64, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error
	ReplaceLineItems(ctx context.Context, invoiceID int64, items []LineItem) error
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

// GetInvoice returns the invoice header and its line items.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	var inv Invoice
	err := r.pool.QueryRow(ctx, `SELECT id, number, primary_carrier_id, secondary_carrier_id, cross_border_surcharge_rate, created_at, updated_at FROM invoices WHERE id=$1`, id).
		Scan(&inv.ID, &inv.Number, &inv.PrimaryCarrierID, &inv.SecondaryCarrierID, &inv.CrossBorderSurchargeRate, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, quantity, unit_value, unit_weight FROM invoice_line_items WHERE invoice_id=$1 ORDER BY id`, id)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line LineItem
		if err := rows.Scan(&line.ID, &line.ProductID, &line.Quantity, &line.UnitValue, &line.UnitWeight); err != nil {
			return Invoice{}, err
		}
		inv.LineItems = append(inv.LineItems, line)
	}
	if err := rows.Err(); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// ListInvoices returns a page of invoice headers and the total count.
func (r *Repository) ListInvoices(ctx context.Context, limit, offset int) ([]Invoice, int, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, number, primary_carrier_id, secondary_carrier_id, cross_border_surcharge_rate, created_at, updated_at FROM invoices ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.PrimaryCarrierID, &inv.SecondaryCarrierID, &inv.CrossBorderSurchargeRate, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (t *txRepo) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO invoices (number, primary_carrier_id, secondary_carrier_id, cross_border_surcharge_rate, created_at, updated_at) VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING id`,
		inv.Number, inv.PrimaryCarrierID, inv.SecondaryCarrierID, inv.CrossBorderSurchargeRate).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (t *txRepo) UpdateInvoice(ctx context.Context, inv Invoice) error {
	tag, err := t.tx.Exec(ctx, `UPDATE invoices SET number=$2, primary_carrier_id=$3, secondary_carrier_id=$4, cross_border_surcharge_rate=$5, updated_at=NOW() WHERE id=$1`,
		inv.ID, inv.Number, inv.PrimaryCarrierID, inv.SecondaryCarrierID, inv.CrossBorderSurchargeRate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) ReplaceLineItems(ctx context.Context, invoiceID int64, items []LineItem) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM invoice_line_items WHERE invoice_id=$1`, invoiceID); err != nil {
		return err
	}
	for _, line := range items {
		if _, err := t.tx.Exec(ctx, `INSERT INTO invoice_line_items (invoice_id, product_id, quantity, unit_value, unit_weight) VALUES ($1, $2, $3, $4, $5)`,
			invoiceID, line.ProductID, line.Quantity, line.UnitValue, line.UnitWeight); err != nil {
			return err
		}
	}
	return nil
}
