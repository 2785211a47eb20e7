package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// ErrNoPool is returned by the Postgres repositories when no pool is configured.
var ErrNoPool = errors.New("database pool not initialized")

// ErrNotFound is returned when no assessment exists for a company.
var ErrNotFound = errors.New("no assessment found")

// InitDB initializes the shared connection pool from dbURL.
func InitDB(ctx context.Context, dbURL string) error {
	var err error
	once.Do(func() {
		if dbURL == "" {
			err = fmt.Errorf("database URL not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
	})
	return err
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// schema is applied by EnsureSchema. Results are kept whole as JSONB; the
// scalar columns exist for listing and filtering.
const schema = `
CREATE TABLE IF NOT EXISTS credit_assessments (
	id            UUID PRIMARY KEY,
	tax_id        TEXT NOT NULL,
	company_name  TEXT NOT NULL,
	total         DOUBLE PRECISION NOT NULL,
	rating        TEXT NOT NULL,
	score_json    JSONB NOT NULL,
	result_json   JSONB NOT NULL,
	calculated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS credit_assessments_tax_id_idx ON credit_assessments (tax_id, calculated_at DESC);

CREATE TABLE IF NOT EXISTS credit_debts (
	tax_id      TEXT NOT NULL,
	debt_index  INTEGER NOT NULL,
	creditor    TEXT NOT NULL,
	kind        TEXT NOT NULL DEFAULT '',
	balance     DOUBLE PRECISION NOT NULL,
	installment DOUBLE PRECISION NOT NULL,
	overdue     BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (tax_id, debt_index)
);
`

// EnsureSchema creates the tables used by the Postgres repositories.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	if p == nil {
		return ErrNoPool
	}
	if _, err := p.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
