// Package store persists assessment results. Postgres (pgx, JSONB) is the
// primary backend; the file and in-memory repositories serve local runs and
// tests.
package store

import (
	"context"

	"credit_analysis/pkg/core/pipeline"
	"credit_analysis/pkg/core/reshape"
)

// Repository is implemented by every backend. Record makes it a
// pipeline.Recorder.
type Repository interface {
	pipeline.Recorder
	// History returns up to limit entries for a company, oldest first.
	// A limit <= 0 returns everything.
	History(ctx context.Context, taxID string, limit int) ([]pipeline.HistoryEntry, error)
	// Latest returns the newest stored result for a company.
	Latest(ctx context.Context, taxID string) (*pipeline.Result, error)
	// DebtSchedule returns the debt records of the newest stored result.
	DebtSchedule(ctx context.Context, taxID string) ([]reshape.DebtRecord, error)
}

var (
	_ Repository = (*AssessmentRepo)(nil)
	_ Repository = (*FileRepo)(nil)
	_ Repository = (*MemoryRepo)(nil)
)

func taxIDOf(res *pipeline.Result) string {
	if res == nil || res.Compliance == nil {
		return ""
	}
	return res.Compliance.Company.TaxID
}

func debtsOf(res *pipeline.Result) []reshape.DebtRecord {
	if res == nil || res.Compliance == nil {
		return nil
	}
	return res.Compliance.Debts
}

// lastN keeps the newest limit entries of an oldest-first slice.
func lastN[T any](items []T, limit int) []T {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[len(items)-limit:]
}
