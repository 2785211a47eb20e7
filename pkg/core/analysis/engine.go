// Package analysis runs the multi-period stages of an assessment: vertical
// and horizontal trend analysis and the dynamic working-capital analysis.
package analysis

import (
	"github.com/rs/zerolog"

	"credit_analysis/pkg/core/calc"
	"credit_analysis/pkg/core/reshape"
)

// Engine computes the trend and working-capital sections from reshaped
// statements. It holds no state between calls.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a new instance of the engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "analysis").Logger()}
}

// =============================================================================
// TREND (vertical / horizontal)
// =============================================================================

// Trend analyses every period that carries data, oldest first. It returns
// nil when no period does; growth needs two periods and is absent otherwise.
func (e *Engine) Trend(s *reshape.Statements) *Trend {
	if s == nil || !s.HasData() {
		e.log.Debug().Msg("trend skipped: no period with data")
		return nil
	}

	balances, incomes := s.Balances(), s.Incomes()

	t := &Trend{}
	var prevBal map[string]float64
	var prevInc map[string]float64
	prevIdx := -1

	for i := 0; i < reshape.PeriodCount; i++ {
		b, is := balances[i], incomes[i]
		if !b.Provided && !is.Provided {
			continue
		}

		bal, inc := b.Flatten(), is.Flatten()
		pa := PeriodAnalysis{
			Period:          b.Period,
			BalanceVertical: commonSize(bal, b.Assets.Total),
			IncomeVertical:  commonSize(inc, is.Revenue.Net),
		}
		if prevIdx >= 0 {
			pa.BalanceHorizontal = horizontal(bal, prevBal)
			pa.IncomeHorizontal = horizontal(inc, prevInc)
		}
		t.Periods = append(t.Periods, pa)

		prevBal, prevInc, prevIdx = bal, inc, i
	}

	t.Growth = growth(s)
	e.log.Debug().Int("periods", len(t.Periods)).Msg("trend computed")
	return t
}

func commonSize(lines map[string]float64, base float64) map[string]calc.Value {
	out := make(map[string]calc.Value, len(lines))
	for k, v := range lines {
		out[k] = calc.Percent(v, base)
	}
	return out
}

func horizontal(cur, prev map[string]float64) map[string]calc.Value {
	out := make(map[string]calc.Value, len(cur))
	for k, v := range cur {
		out[k] = calc.Change(v, prev[k])
	}
	return out
}

// growth compares the latest period with the one right before it.
func growth(s *reshape.Statements) GrowthMetrics {
	l := s.Latest()
	if l.PriorBalance == nil {
		return GrowthMetrics{}
	}

	var m GrowthMetrics
	if l.Balance.Provided {
		m.TotalAssetsGrowth = calc.Change(l.Balance.Assets.Total, l.PriorBalance.Assets.Total)
		m.EquityGrowth = calc.Change(l.Balance.Equity.Total, l.PriorBalance.Equity.Total)
	}
	prior, ok := s.Income(l.PriorBalance.Index)
	if ok && prior.Provided && l.Income.Provided {
		m.RevenueGrowth = calc.Change(l.Income.Revenue.Net, prior.Revenue.Net)
		m.OperatingProfitGrowth = calc.Change(l.Income.OperatingProfit, prior.OperatingProfit)
		m.NetProfitGrowth = calc.Change(l.Income.NetProfit, prior.NetProfit)
	}
	return m
}

// =============================================================================
// WORKING CAPITAL
// =============================================================================

// WorkingCapital analyses the latest balance sheet. It returns nil when the
// latest period has no balance data.
func (e *Engine) WorkingCapital(s *reshape.Statements) *WorkingCapital {
	if s == nil {
		return nil
	}
	l := s.Latest()
	if l.Balance == nil || !l.Balance.Provided {
		e.log.Debug().Msg("working capital skipped: no balance sheet")
		return nil
	}

	ca, cl := l.Balance.Assets.Current, l.Balance.Liabilities.Current

	w := &WorkingCapital{Period: l.Balance.Period}
	w.WorkingCapital = ca.Total - cl.Total
	operatingAssets := ca.NetReceivables + ca.Inventory
	operatingLiabilities := cl.Suppliers + cl.TaxesPayable + cl.PayrollObligations
	w.NCG = operatingAssets - operatingLiabilities
	w.TreasuryBalance = w.WorkingCapital - w.NCG

	if l.Income != nil && l.Income.Provided {
		w.NCGToRevenue = calc.Percent(w.NCG, l.Income.Revenue.Net)
		if r, ok := calc.Ratio(w.NCG, l.Income.Revenue.Net).Get(); ok {
			w.NCGDays = calc.Some(r * calc.DaysBase)
		}
	}

	w.Structure = classifyStructure(w.WorkingCapital, w.NCG, w.TreasuryBalance)
	w.StructureName = w.Structure.String()

	e.log.Debug().
		Float64("working_capital", w.WorkingCapital).
		Float64("ncg", w.NCG).
		Str("structure", w.StructureName).
		Msg("working capital computed")
	return w
}

// classifyStructure applies the Fleuriet sign table. Zero counts as positive.
func classifyStructure(wc, ncg, treasury float64) Structure {
	pos := func(v float64) bool { return v >= 0 }
	switch {
	case pos(wc) && !pos(ncg) && pos(treasury):
		return StructureExcellent
	case pos(wc) && pos(ncg) && pos(treasury):
		return StructureSolid
	case pos(wc) && pos(ncg) && !pos(treasury):
		return StructureUnsatisfactory
	case !pos(wc) && !pos(ncg) && pos(treasury):
		return StructureHighRisk
	case !pos(wc) && !pos(ncg) && !pos(treasury):
		return StructureVeryPoor
	case !pos(wc) && pos(ncg) && !pos(treasury):
		return StructurePoor
	}
	return StructureUnknown
}
