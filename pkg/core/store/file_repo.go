package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"credit_analysis/pkg/core/pipeline"
	"credit_analysis/pkg/core/reshape"
)

// FileRepo keeps one JSON file per result under dir. Used when no database
// is configured.
type FileRepo struct {
	dir string
}

// fileEntry is the on-disk layout of one result.
type fileEntry struct {
	TaxID  string                `json:"tax_id"`
	Entry  pipeline.HistoryEntry `json:"entry"`
	Result *pipeline.Result      `json:"result"`
}

// NewFileRepo creates the directory if needed. An empty dir defaults to
// .cache/assessments.
func NewFileRepo(dir string) (*FileRepo, error) {
	if dir == "" {
		dir = filepath.Join(".cache", "assessments")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create assessment dir: %w", err)
	}
	return &FileRepo{dir: dir}, nil
}

// Record writes the result as <taxId>_<id>.json.
func (r *FileRepo) Record(_ context.Context, entry pipeline.HistoryEntry, res *pipeline.Result) error {
	taxID := taxIDOf(res)
	data, err := json.MarshalIndent(fileEntry{TaxID: taxID, Entry: entry, Result: res}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("%s_%s.json", safeName(taxID), entry.ID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save to file store: %w", err)
	}
	return nil
}

// History scans the directory for the company's results.
func (r *FileRepo) History(_ context.Context, taxID string, limit int) ([]pipeline.HistoryEntry, error) {
	found, err := r.scan(taxID)
	if err != nil {
		return nil, err
	}
	entries := make([]pipeline.HistoryEntry, 0, len(found))
	for _, f := range found {
		entries = append(entries, f.Entry)
	}
	return lastN(entries, limit), nil
}

// Latest returns the newest stored result of the company.
func (r *FileRepo) Latest(_ context.Context, taxID string) (*pipeline.Result, error) {
	found, err := r.scan(taxID)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNotFound, taxID)
	}
	return found[len(found)-1].Result, nil
}

// DebtSchedule returns the debts carried by the newest stored result.
func (r *FileRepo) DebtSchedule(ctx context.Context, taxID string) ([]reshape.DebtRecord, error) {
	res, err := r.Latest(ctx, taxID)
	if err != nil {
		return nil, err
	}
	return debtsOf(res), nil
}

// scan loads every entry of taxID, oldest first. Unreadable files are skipped.
func (r *FileRepo) scan(taxID string) ([]fileEntry, error) {
	files, err := filepath.Glob(filepath.Join(r.dir, safeName(taxID)+"_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list file store: %w", err)
	}

	var found []fileEntry
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e fileEntry
		if err := json.Unmarshal(data, &e); err != nil || e.TaxID != taxID {
			continue
		}
		found = append(found, e)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Entry.Timestamp.Before(found[j].Entry.Timestamp)
	})
	return found, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// safeName strips punctuation from tax ids such as 12.345.678/0001-90.
func safeName(taxID string) string {
	s := unsafeChars.ReplaceAllString(taxID, "")
	if s == "" {
		return "unknown"
	}
	return s
}
