package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"credit_analysis/pkg/core/reshape"
)

// DebtRepo provides storage for the debt schedule of assessed companies.
// Records reach it only after reshape.ParseDebtRecords accepted them.
type DebtRepo struct {
	pool *pgxpool.Pool
}

// NewDebtRepo creates a new debt repository
func NewDebtRepo(pool *pgxpool.Pool) *DebtRepo {
	return &DebtRepo{pool: pool}
}

// List retrieves the stored schedule of a company ordered by index.
func (r *DebtRepo) List(ctx context.Context, taxID string) ([]reshape.DebtRecord, error) {
	if r.pool == nil {
		return nil, ErrNoPool
	}

	query := `
		SELECT debt_index, creditor, kind, balance, installment, overdue
		FROM credit_debts
		WHERE tax_id = $1
		ORDER BY debt_index
	`
	rows, err := r.pool.Query(ctx, query, taxID)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}

	debts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (reshape.DebtRecord, error) {
		var d reshape.DebtRecord
		err := row.Scan(&d.Index, &d.Creditor, &d.Kind, &d.Balance, &d.Installment, &d.Overdue)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan debts: %w", err)
	}
	return debts, nil
}

// replaceDebts deletes and re-inserts the schedule inside tx.
func replaceDebts(ctx context.Context, tx pgx.Tx, taxID string, debts []reshape.DebtRecord) error {
	if _, err := tx.Exec(ctx, "DELETE FROM credit_debts WHERE tax_id = $1", taxID); err != nil {
		return fmt.Errorf("failed to clear debts: %w", err)
	}
	if len(debts) == 0 {
		return nil
	}

	query := `
		INSERT INTO credit_debts (
			tax_id, debt_index, creditor, kind, balance, installment, overdue
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	batch := &pgx.Batch{}
	for _, d := range debts {
		batch.Queue(query, taxID, d.Index, d.Creditor, d.Kind, d.Balance, d.Installment, d.Overdue)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save debts: %w", err)
	}
	return nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid assessment id %q: %w", s, err)
	}
	return id, nil
}
