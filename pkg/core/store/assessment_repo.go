package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"credit_analysis/pkg/core/pipeline"
	"credit_analysis/pkg/core/reshape"
)

// AssessmentRepo stores results in credit_assessments and keeps the debt
// schedule of the assessed company in credit_debts.
type AssessmentRepo struct {
	pool  *pgxpool.Pool
	debts *DebtRepo
}

// NewAssessmentRepo creates a new repository instance.
func NewAssessmentRepo(pool *pgxpool.Pool) *AssessmentRepo {
	return &AssessmentRepo{pool: pool, debts: NewDebtRepo(pool)}
}

// Record persists one successful run. The assessment row and the debt
// schedule are written in one transaction.
func (r *AssessmentRepo) Record(ctx context.Context, entry pipeline.HistoryEntry, res *pipeline.Result) error {
	if r.pool == nil {
		return ErrNoPool
	}
	if res == nil || res.Compliance == nil {
		return fmt.Errorf("result %s has no compliance section", entry.ID)
	}

	scoreJSON, err := json.Marshal(entry.Score)
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO credit_assessments (
			id, tax_id, company_name, total, rating,
			score_json, result_json, calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	company := res.Compliance.Company
	_, err = tx.Exec(ctx, query,
		entry.ID, company.TaxID, company.Name, entry.Score.Total, entry.Score.Rating,
		scoreJSON, resultJSON, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}

	if err := replaceDebts(ctx, tx, company.TaxID, res.Compliance.Debts); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit assessment: %w", err)
	}
	return nil
}

// History retrieves the stored score history of a company, oldest first.
func (r *AssessmentRepo) History(ctx context.Context, taxID string, limit int) ([]pipeline.HistoryEntry, error) {
	if r.pool == nil {
		return nil, ErrNoPool
	}

	query := `
		SELECT id::text, calculated_at, score_json
		FROM credit_assessments
		WHERE tax_id = $1
		ORDER BY calculated_at DESC
	`
	args := []any{taxID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []pipeline.HistoryEntry
	for rows.Next() {
		var (
			e         pipeline.HistoryEntry
			id        string
			scoreJSON []byte
		)
		if err := rows.Scan(&id, &e.Timestamp, &scoreJSON); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if e.ID, err = parseID(id); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(scoreJSON, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to unmarshal score %s: %w", id, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	slices.Reverse(entries)
	return entries, nil
}

// Latest retrieves the newest full result of a company.
func (r *AssessmentRepo) Latest(ctx context.Context, taxID string) (*pipeline.Result, error) {
	if r.pool == nil {
		return nil, ErrNoPool
	}

	query := `
		SELECT result_json FROM credit_assessments
		WHERE tax_id = $1
		ORDER BY calculated_at DESC
		LIMIT 1
	`
	var resultJSON []byte
	err := r.pool.QueryRow(ctx, query, taxID).Scan(&resultJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w for %s", ErrNotFound, taxID)
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}

	var res pipeline.Result
	if err := json.Unmarshal(resultJSON, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment: %w", err)
	}
	return &res, nil
}

// DebtSchedule reads the schedule kept in credit_debts.
func (r *AssessmentRepo) DebtSchedule(ctx context.Context, taxID string) ([]reshape.DebtRecord, error) {
	return r.debts.List(ctx, taxID)
}
