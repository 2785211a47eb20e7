package store

import (
	"context"
	"fmt"
	"sync"

	"credit_analysis/pkg/core/pipeline"
	"credit_analysis/pkg/core/reshape"
)

type memoryRecord struct {
	entry  pipeline.HistoryEntry
	result *pipeline.Result
}

// MemoryRepo is an in-process Repository for tests and one-shot runs.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string][]memoryRecord
}

// NewMemoryRepo returns an empty repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: map[string][]memoryRecord{}}
}

func (r *MemoryRepo) Record(_ context.Context, entry pipeline.HistoryEntry, res *pipeline.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	taxID := taxIDOf(res)
	r.records[taxID] = append(r.records[taxID], memoryRecord{entry: entry, result: res})
	return nil
}

func (r *MemoryRepo) History(_ context.Context, taxID string, limit int) ([]pipeline.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := r.records[taxID]
	entries := make([]pipeline.HistoryEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, rec.entry)
	}
	return lastN(entries, limit), nil
}

func (r *MemoryRepo) Latest(_ context.Context, taxID string) (*pipeline.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := r.records[taxID]
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNotFound, taxID)
	}
	return recs[len(recs)-1].result, nil
}

func (r *MemoryRepo) DebtSchedule(ctx context.Context, taxID string) ([]reshape.DebtRecord, error) {
	res, err := r.Latest(ctx, taxID)
	if err != nil {
		return nil, err
	}
	return debtsOf(res), nil
}
