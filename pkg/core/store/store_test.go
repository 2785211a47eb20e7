package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit_analysis/pkg/core/pipeline"
	"credit_analysis/pkg/core/rules"
)

const taxID = "12.345.678/0001-90"

func assessmentInput() map[string]any {
	return map[string]any{
		"companyName":     "Comercial Exemplo",
		"taxId":           taxID,
		"debt_1_creditor": "Banco A",
		"debt_1_balance":  50000,

		"cash_p4":            60000,
		"inventory_p4":       40000,
		"suppliers_p4":       30000,
		"shareCapital_p4":    70000,
		"grossRevenue_p4":    400000,
		"costOfGoodsSold_p4": 250000,
	}
}

// runInto drives n real calculations through an orchestrator recording into repo.
func runInto(t *testing.T, repo Repository, n int) []*pipeline.Result {
	t.Helper()
	o := pipeline.NewOrchestrator(rules.MustDefault(), zerolog.Nop())
	o.SetRecorder(repo)
	o.SetInput(assessmentInput())

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var out []*pipeline.Result
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		o.SetClock(func() time.Time { return at })
		o.SetField("relationshipYears", i)
		res, err := o.Run(context.Background())
		require.NoError(t, err)
		out = append(out, res)
	}
	return out
}

func TestMemoryRepo(t *testing.T) {
	repo := NewMemoryRepo()
	results := runInto(t, repo, 3)
	ctx := context.Background()

	h, err := repo.History(ctx, taxID, 0)
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, results[0].ID, h[0].ID)

	h, err = repo.History(ctx, taxID, 2)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, results[1].ID, h[0].ID)
	assert.Equal(t, results[2].ID, h[1].ID)

	latest, err := repo.Latest(ctx, taxID)
	require.NoError(t, err)
	assert.Same(t, results[2], latest)

	_, err = repo.Latest(ctx, "00.000.000/0000-00")
	assert.ErrorIs(t, err, ErrNotFound)

	debts, err := repo.DebtSchedule(ctx, taxID)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	assert.Equal(t, "Banco A", debts[0].Creditor)

	_, err = repo.DebtSchedule(ctx, "00.000.000/0000-00")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileRepoRoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepo(dir)
	require.NoError(t, err)
	results := runInto(t, repo, 2)
	ctx := context.Background()

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Contains(t, filepath.Base(files[0]), "12345678000190_")

	h, err := repo.History(ctx, taxID, 0)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, results[0].ID, h[0].ID)
	assert.Equal(t, results[1].ID, h[1].ID)
	assert.Equal(t, results[1].Score.Total, h[1].Score.Total)

	latest, err := repo.Latest(ctx, taxID)
	require.NoError(t, err)
	assert.Equal(t, results[1].ID, latest.ID)
	assert.Equal(t, results[1].Score.Rating, latest.Score.Rating)
	require.NotNil(t, latest.Compliance)
	require.Len(t, latest.Compliance.Debts, 1)
	assert.Equal(t, "Banco A", latest.Compliance.Debts[0].Creditor)

	debts, err := repo.DebtSchedule(ctx, taxID)
	require.NoError(t, err)
	assert.Equal(t, latest.Compliance.Debts, debts)

	cl, ok := latest.Balance.Get("currentLiquidity")
	require.True(t, ok)
	want, _ := results[1].Balance.Get("currentLiquidity")
	assert.Equal(t, want.Value, cl.Value)
}

func TestFileRepoSkipsForeignAndBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepo(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "12345678000190_broken.json"), []byte("{not json"), 0o644))

	h, err := repo.History(context.Background(), taxID, 0)
	require.NoError(t, err)
	assert.Empty(t, h)

	_, err = repo.Latest(context.Background(), taxID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresReposRequirePool(t *testing.T) {
	ctx := context.Background()
	repo := NewAssessmentRepo(nil)

	assert.ErrorIs(t, repo.Record(ctx, pipeline.HistoryEntry{}, &pipeline.Result{}), ErrNoPool)
	_, err := repo.History(ctx, taxID, 10)
	assert.ErrorIs(t, err, ErrNoPool)
	_, err = repo.Latest(ctx, taxID)
	assert.ErrorIs(t, err, ErrNoPool)
	_, err = repo.DebtSchedule(ctx, taxID)
	assert.ErrorIs(t, err, ErrNoPool)
	assert.ErrorIs(t, EnsureSchema(ctx, nil), ErrNoPool)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "12345678000190", safeName(taxID))
	assert.Equal(t, "unknown", safeName("../"))
}
