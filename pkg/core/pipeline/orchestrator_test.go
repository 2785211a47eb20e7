package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit_analysis/pkg/core/calc"
	"credit_analysis/pkg/core/classify"
	"credit_analysis/pkg/core/rules"
	"credit_analysis/pkg/core/validate"
)

// --- Fixtures ---

var fixedNow = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

func sampleInput() map[string]any {
	return map[string]any{
		"companyName":       "Metalurgica Exemplo",
		"taxId":             "12.345.678/0001-90",
		"foundedYear":       2008,
		"taxClearance":      "yes",
		"laborClearance":    true,
		"guaranteeValue":    450000,
		"requestedCredit":   300000,
		"relationshipYears": 4,

		"debt_1_creditor": "Banco A",
		"debt_1_balance":  "120000",
		"debt_2_creditor": "Banco B",
		"debt_2_balance":  80000,

		"cash_p3":                    "80000",
		"accountsReceivable_p3":      "120000",
		"badDebtProvision_p3":        "-10000",
		"inventory_p3":               "60000",
		"fixedAssets_p3":             "300000",
		"accumulatedDepreciation_p3": "-50000",
		"suppliers_p3":               "90000",
		"shortTermLoans_p3":          "60000",
		"longTermLoans_p3":           "100000",
		"shareCapital_p3":            "250000",
		"grossRevenue_p3":            "1100000",
		"costOfGoodsSold_p3":         "650000",

		"cash_p4":                    100000,
		"accountsReceivable_p4":      150000,
		"badDebtProvision_p4":        15000,
		"inventory_p4":               80000,
		"fixedAssets_p4":             400000,
		"accumulatedDepreciation_p4": -100000,
		"intangibleAssets_p4":        50000,
		"accumulatedAmortization_p4": "10000",
		"suppliers_p4":               120000,
		"shortTermLoans_p4":          80000,
		"taxesPayable_p4":            20000,
		"longTermLoans_p4":           150000,
		"shareCapital_p4":            250000,
		"retainedEarnings_p4":        60000,
		"treasuryShares_p4":          "25000",
		"grossRevenue_p4":            "1300000",
		"salesDeductions_p4":         "100000",
		"costOfGoodsSold_p4":         "700000",
		"sellingExpenses_p4":         "80000",
		"administrativeExpenses_p4":  "120000",
		"financialExpenses_p4":       "40000",
		"incomeTax_p4":               "30000",
	}
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(rules.MustDefault(), zerolog.Nop())
	o.SetClock(func() time.Time { return fixedNow })
	return o
}

type holdKey struct{}

// holdAt blocks any run whose context carries holdKey until release closes.
func holdAt(o *Orchestrator, stage string, release <-chan struct{}) {
	o.stageHook = func(ctx context.Context, s string) {
		if s == stage && ctx.Value(holdKey{}) != nil {
			<-release
		}
	}
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []HistoryEntry
	err     error
}

func (m *memoryRecorder) Record(_ context.Context, entry HistoryEntry, _ *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

// --- Tests ---

func TestRunProducesEverySection(t *testing.T) {
	o := newTestOrchestrator(t)
	o.SetInput(sampleInput())

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)

	require.NotNil(t, res.Balance)
	require.NotNil(t, res.Income)
	cl, ok := res.Balance.Get("currentLiquidity")
	require.True(t, ok)
	// CA 315 000 / CL 220 000
	assert.Equal(t, 1.43, cl.Value.V)
	assert.Equal(t, classify.TierAttention, cl.Tier)

	require.NotNil(t, res.Trend)
	assert.Len(t, res.Trend.Periods, 2)
	require.NotNil(t, res.WorkingCapital)
	assert.Equal(t, "p4", res.WorkingCapital.Period)

	require.NotNil(t, res.Score)
	assert.NotEmpty(t, res.Score.Rating)
	assert.Len(t, res.Score.Categories, 5)

	require.NotNil(t, res.Compliance)
	assert.Equal(t, "Metalurgica Exemplo", res.Compliance.Company.Name)
	assert.Len(t, res.Compliance.Debts, 2)
	assert.Equal(t, 200000.0, res.Compliance.TotalDebt)

	assert.Equal(t, fixedNow, res.CalculatedAt)
	assert.Equal(t, StateClean, o.State())
	assert.False(t, o.Dirty())
	assert.Equal(t, fixedNow, o.LastSuccess())
	require.Len(t, o.History(), 1)
	assert.Equal(t, res.ID, o.History()[0].ID)
}

func TestStagesRunInFixedOrder(t *testing.T) {
	o := newTestOrchestrator(t)
	var seen []string
	o.stageHook = func(_ context.Context, s string) { seen = append(seen, s) }
	o.SetInput(sampleInput())

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stages, seen)
}

func TestRunFromCleanReturnsCachedResult(t *testing.T) {
	o := newTestOrchestrator(t)
	o.SetInput(sampleInput())

	first, err := o.Run(context.Background())
	require.NoError(t, err)
	second, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, o.History(), 1)

	cached := <-o.Start(context.Background())
	require.NoError(t, cached.Err)
	assert.Same(t, first, cached.Result)
}

func TestMutationMarksDirty(t *testing.T) {
	o := newTestOrchestrator(t)
	o.SetInput(sampleInput())
	first, err := o.Run(context.Background())
	require.NoError(t, err)

	o.SetField("protests", 2)
	assert.Equal(t, StateDirty, o.State())
	assert.True(t, o.Dirty())

	second, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Compliance.Restrictions)
	assert.Len(t, o.History(), 2)
}

func TestGateFailsFast(t *testing.T) {
	o := newTestOrchestrator(t)
	var stages []string
	o.stageHook = func(_ context.Context, s string) { stages = append(stages, s) }
	o.SetInput(map[string]any{
		"debt_1_balance": "abc",
	})

	res, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)

	var verr *validate.ValidationError
	require.True(t, errors.As(err, &verr))
	var causes []string
	for _, f := range verr.Fields {
		causes = append(causes, f.String())
	}
	assert.Contains(t, causes, "cadastral.Name: is required")
	assert.Contains(t, causes, "cadastral.TaxID: is required")
	assert.Contains(t, causes, "debt[1].creditor: is required")
	assert.Len(t, verr.Fields, 5)

	assert.Empty(t, stages, "no stage runs after a gate failure")
	assert.Equal(t, StateFailed, o.State())
	assert.True(t, o.Dirty())
	assert.Empty(t, o.History())
}

func TestFailedRunRetriesAfterCorrection(t *testing.T) {
	o := newTestOrchestrator(t)
	in := sampleInput()
	delete(in, "taxId")
	o.SetInput(in)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, o.State())

	// retrying from Failed without a fix fails again
	_, err = o.Run(context.Background())
	require.Error(t, err)

	o.SetField("taxId", "12.345.678/0001-90")
	assert.Equal(t, StateDirty, o.State())

	_, err = o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateClean, o.State())
	assert.False(t, o.Dirty())
}

func TestStrictValidationRejectsUnbalancedSheet(t *testing.T) {
	in := sampleInput()
	in["cash_p4"] = 100500

	lenient := newTestOrchestrator(t)
	lenient.SetInput(in)
	res, err := lenient.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, "balance sheet p4 out of balance by 500.00")

	strict := newTestOrchestrator(t)
	cfg := DefaultValidationConfig()
	cfg.EnableStrictValidation = true
	strict.SetValidationConfig(cfg)
	strict.SetInput(in)

	_, err = strict.Run(context.Background())
	var verr *validate.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "balance[p4]", verr.Fields[0].Record)
}

func TestMissingPrerequisitesOmitSections(t *testing.T) {
	o := newTestOrchestrator(t)
	o.SetInput(map[string]any{
		"companyName":     "Servicos Exemplo",
		"taxId":           "98.765.432/0001-10",
		"grossRevenue_p4": 500000,
		"incomeTax_p4":    10000,
	})

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Balance)
	assert.Nil(t, res.WorkingCapital)
	require.NotNil(t, res.Income)
	require.NotNil(t, res.Score)

	wc, ok := res.Score.Category("paymentCapacity")
	require.True(t, ok)
	for _, s := range wc.SubCriteria {
		if s.Name == "treasuryBalance" {
			assert.True(t, s.Fallback)
		}
	}
}

func TestRoundingBoundaryKeepsTiersConsistent(t *testing.T) {
	o := newTestOrchestrator(t)
	o.SetInput(map[string]any{
		"companyName":     "Comercio Exemplo",
		"taxId":           "11.222.333/0001-44",
		"grossRevenue_p4": 100000,
		"cash_p4":         14999,
		"suppliers_p4":    10000,
		"shareCapital_p4": 4999,
	})

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Balance)

	// 1.4999 is shown as 1.50 but sits below the 1.5 bound
	cl, ok := res.Balance.Get("currentLiquidity")
	require.True(t, ok)
	assert.Equal(t, calc.Some(1.5), cl.Value)
	assert.Equal(t, classify.TierAttention, cl.Tier)

	pay, ok := res.Score.Category("paymentCapacity")
	require.True(t, ok)
	var found bool
	for _, s := range pay.SubCriteria {
		if s.Name == "currentLiquidity" {
			found = true
			assert.Equal(t, "good", s.Tier)
			assert.Equal(t, 0.6, s.Fraction)
			assert.InDelta(t, 1.4999, s.Value.V, 1e-9)
		}
	}
	assert.True(t, found)
}

func TestListenersReceiveTransitions(t *testing.T) {
	o := newTestOrchestrator(t)
	var got []StateChange
	unsubscribe := o.Subscribe(func(c StateChange) { got = append(got, c) })

	o.SetInput(sampleInput())
	_, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, StateChange{From: StateDirty, To: StateCalculating, At: fixedNow}, got[0])
	assert.Equal(t, StateChange{From: StateCalculating, To: StateClean, At: fixedNow}, got[1])

	unsubscribe()
	o.SetField("sector", "metals")
	assert.Len(t, got, 2)
	assert.Equal(t, StateDirty, o.State())
}

func TestNewerRequestSupersedesInFlightRun(t *testing.T) {
	o := newTestOrchestrator(t)
	release := make(chan struct{})
	holdAt(o, StageScoring, release)
	o.SetInput(sampleInput())

	slow := context.WithValue(context.Background(), holdKey{}, true)
	first := o.Start(slow)
	second := o.Start(context.Background())

	out2 := <-second
	require.NoError(t, out2.Err)
	require.NotNil(t, out2.Result)

	close(release)
	out1 := <-first
	assert.ErrorIs(t, out1.Err, ErrSuperseded)
	assert.Nil(t, out1.Result)

	assert.Equal(t, StateClean, o.State())
	require.Len(t, o.History(), 1)
	assert.Equal(t, out2.Result.ID, o.History()[0].ID)
}

func TestMutationSupersedesInFlightRun(t *testing.T) {
	o := newTestOrchestrator(t)
	release := make(chan struct{})
	holdAt(o, StageIndicators, release)
	o.SetInput(sampleInput())

	out := o.Start(context.WithValue(context.Background(), holdKey{}, true))
	assert.Equal(t, StateCalculating, o.State())

	o.SetField("lawsuits", 1)
	assert.Equal(t, StateDirty, o.State())

	close(release)
	res := <-out
	assert.ErrorIs(t, res.Err, ErrSuperseded)
	assert.Equal(t, StateDirty, o.State())
	assert.Empty(t, o.History())
}

func TestCancelledContextFailsRun(t *testing.T) {
	o := newTestOrchestrator(t)
	o.SetInput(sampleInput())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, o.State())
}

func TestResetClearsSession(t *testing.T) {
	o := newTestOrchestrator(t)
	o.SetInput(sampleInput())
	_, err := o.Run(context.Background())
	require.NoError(t, err)

	o.Reset()
	assert.Equal(t, StateDirty, o.State())
	assert.Nil(t, o.Last())
	assert.Empty(t, o.History())
	assert.True(t, o.LastSuccess().IsZero())

	_, err = o.Run(context.Background())
	var verr *validate.ValidationError
	assert.True(t, errors.As(err, &verr), "input was cleared")
}

func TestRecorderPersistsSuccessfulRuns(t *testing.T) {
	o := newTestOrchestrator(t)
	rec := &memoryRecorder{}
	o.SetRecorder(rec)
	o.SetInput(sampleInput())

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, res.ID, rec.entries[0].ID)
	assert.Equal(t, *res.Score, rec.entries[0].Score)

	// a failing recorder does not fail the run
	rec.err = fmt.Errorf("db connection lost")
	o.SetField("sector", "metals")
	_, err = o.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, o.History(), 2)
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(HistoryCapacity)
	for i := 0; i < 12; i++ {
		h.Push(HistoryEntry{Timestamp: fixedNow.Add(time.Duration(i) * time.Minute)})
	}

	entries := h.Entries()
	require.Len(t, entries, HistoryCapacity)
	assert.Equal(t, fixedNow.Add(2*time.Minute), entries[0].Timestamp)
	assert.Equal(t, fixedNow.Add(11*time.Minute), entries[9].Timestamp)

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Entries())
}

func TestHistoryCapacityThroughOrchestrator(t *testing.T) {
	o := newTestOrchestrator(t)
	o.SetInput(sampleInput())
	var ids []string
	for i := 0; i < 12; i++ {
		o.SetField("relationshipYears", i)
		res, err := o.Run(context.Background())
		require.NoError(t, err)
		ids = append(ids, res.ID.String())
	}

	h := o.History()
	require.Len(t, h, HistoryCapacity)
	assert.Equal(t, ids[2], h[0].ID.String())
	assert.Equal(t, ids[11], h[9].ID.String())
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateDirty, StateCalculating, true},
		{StateDirty, StateClean, false},
		{StateCalculating, StateClean, true},
		{StateCalculating, StateFailed, true},
		{StateCalculating, StateDirty, true},
		{StateClean, StateDirty, true},
		{StateClean, StateCalculating, false},
		{StateFailed, StateCalculating, true},
		{StateFailed, StateClean, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestRunStageConvertsPanics(t *testing.T) {
	err := runStage(StageTrend, func() error { panic("index out of range") })
	var ce *validate.ComputationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StageTrend, ce.Stage)

	inner := errors.New("boom")
	err = runStage(StageScoring, func() error { return inner })
	assert.ErrorIs(t, err, inner)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StageScoring, ce.Stage)
}
