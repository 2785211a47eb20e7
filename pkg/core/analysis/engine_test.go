package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit_analysis/pkg/core/calc"
	"credit_analysis/pkg/core/reshape"
)

func twoPeriods() *reshape.Statements {
	return reshape.Reshape(map[string]any{
		"cash_p3":               50,
		"accountsReceivable_p3": 100,
		"inventory_p3":          50,
		"suppliers_p3":          80,
		"shareCapital_p3":       120,
		"grossRevenue_p3":       1000,
		"costOfGoodsSold_p3":    600,
		"incomeTax_p3":          300,

		"cash_p4":               60,
		"accountsReceivable_p4": 150,
		"inventory_p4":          90,
		"suppliers_p4":          100,
		"taxesPayable_p4":       20,
		"shortTermLoans_p4":     60,
		"shareCapital_p4":       120,
		"grossRevenue_p4":       1100,
		"costOfGoodsSold_p4":    650,
		"incomeTax_p4":          330,
	})
}

func TestTrendGrowthAndVertical(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	tr := e.Trend(twoPeriods())
	require.NotNil(t, tr)
	require.Len(t, tr.Periods, 2)

	// Rev Growth: (1100 - 1000) / 1000 = 10%
	rg, ok := tr.Growth.RevenueGrowth.Get()
	require.True(t, ok)
	assert.InDelta(t, 10.0, rg, 1e-9)

	// Net profit: 100 -> 120 = 20%
	assert.InDelta(t, 20.0, tr.Signal("netProfitGrowth").V, 1e-9)
	assert.False(t, tr.Signal("unknown").Valid)

	first, last := tr.Periods[0], tr.Periods[1]
	assert.Nil(t, first.BalanceHorizontal, "first period has no base")
	assert.InDelta(t, 100.0, last.BalanceVertical["totalAssets"].V, 1e-9)
	assert.InDelta(t, 100.0, last.IncomeVertical["netRevenue"].V, 1e-9)
	assert.InDelta(t, 20.0, last.BalanceHorizontal["cash"].V, 1e-9)

	// a line that was zero in the base period has no horizontal change
	assert.False(t, last.BalanceHorizontal[reshape.AccTaxesPayable].Valid)
}

func TestTrendSinglePeriodHasNoGrowth(t *testing.T) {
	tr := NewEngine(zerolog.Nop()).Trend(reshape.Reshape(map[string]any{"cash_p4": 10}))
	require.NotNil(t, tr)
	assert.Len(t, tr.Periods, 1)
	assert.False(t, tr.Growth.RevenueGrowth.Valid)
	assert.False(t, tr.Growth.EquityGrowth.Valid)
}

func TestTrendWithoutDataIsOmitted(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	assert.Nil(t, e.Trend(reshape.Reshape(map[string]any{})))
	assert.Nil(t, e.Trend(nil))
	assert.Nil(t, e.WorkingCapital(reshape.Reshape(map[string]any{})))
	assert.Nil(t, (*Trend)(nil).Signal("revenueGrowth").Ptr())
}

func TestWorkingCapital(t *testing.T) {
	w := NewEngine(zerolog.Nop()).WorkingCapital(twoPeriods())
	require.NotNil(t, w)
	assert.Equal(t, "p4", w.Period)

	// CA 300, CL 180
	assert.Equal(t, 120.0, w.WorkingCapital)
	// (150 + 90) - (100 + 20)
	assert.Equal(t, 120.0, w.NCG)
	assert.Equal(t, 0.0, w.TreasuryBalance)
	assert.InDelta(t, 120.0/1100*100, w.NCGToRevenue.V, 1e-9)
	assert.Equal(t, StructureSolid, w.Structure)
	assert.Equal(t, "solid", w.StructureName)

	assert.Equal(t, calc.Some(0), w.Signal("treasuryBalance"))
	assert.Equal(t, calc.Some(float64(StructureSolid)), w.Signal("structure"))
}

func TestClassifyStructure(t *testing.T) {
	tests := []struct {
		wc, ncg float64
		want    Structure
	}{
		{100, -50, StructureExcellent},
		{100, 50, StructureSolid},
		{100, 150, StructureUnsatisfactory},
		{-100, -150, StructureHighRisk},
		{-100, -50, StructureVeryPoor},
		{-100, 50, StructurePoor},
	}
	for _, tt := range tests {
		got := classifyStructure(tt.wc, tt.ncg, tt.wc-tt.ncg)
		assert.Equal(t, tt.want, got, "wc=%v ncg=%v", tt.wc, tt.ncg)
	}
}

// TestAnalysisOnSyntheticInput feeds random, partial and zero-valued inputs
// through every stage and checks nothing panics or leaks NaN/Inf.
func TestAnalysisOnSyntheticInput(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	accounts := []string{
		reshape.AccCash, reshape.AccAccountsReceivable, reshape.AccBadDebtProvision,
		reshape.AccInventory, reshape.AccFixedAssets, reshape.AccSuppliers,
		reshape.AccShortTermLoans, reshape.AccShareCapital, reshape.AccRetainedEarnings,
		reshape.AccGrossRevenue, reshape.AccCostOfGoodsSold, reshape.AccFinancialExpenses,
		reshape.AccVariableCosts, reshape.AccFixedCosts,
	}
	e := NewEngine(zerolog.Nop())

	for run := 0; run < 200; run++ {
		raw := map[string]any{}
		for p := 1; p <= reshape.PeriodCount; p++ {
			for _, acc := range accounts {
				switch r.Intn(4) {
				case 0: // missing
				case 1:
					raw[reshape.PeriodKey(acc, p)] = 0
				case 2:
					raw[reshape.PeriodKey(acc, p)] = fmt.Sprintf("%.2f", r.NormFloat64()*1e5)
				default:
					raw[reshape.PeriodKey(acc, p)] = r.Float64() * 1e6
				}
			}
		}

		s := reshape.Reshape(raw)
		tr := e.Trend(s)
		wc := e.WorkingCapital(s)
		in := calc.InputsFrom(s.Latest(), reshape.Concentration{})

		for _, kind := range calc.Kinds {
			for _, c := range calc.Compute(kind, in) {
				assertFinite(t, c.Value, c.Indicator.Name)
			}
		}
		if tr != nil {
			for _, p := range tr.Periods {
				for k, v := range p.BalanceHorizontal {
					assertFinite(t, v, k)
				}
				for k, v := range p.IncomeVertical {
					assertFinite(t, v, k)
				}
			}
		}
		if wc != nil {
			assertFinite(t, wc.NCGToRevenue, "ncgToRevenue")
		}
	}
}

func assertFinite(t *testing.T, v calc.Value, name string) {
	t.Helper()
	if v.Valid && (math.IsNaN(v.V) || math.IsInf(v.V, 0)) {
		t.Fatalf("%s leaked a non-finite value: %v", name, v.V)
	}
}
