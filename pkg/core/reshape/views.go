package reshape

import (
	"credit_analysis/pkg/core/validate"
)

// =============================================================================
// ORDERED FORM
// =============================================================================

// Balances returns the balance snapshots ordered oldest to newest.
func (s *Statements) Balances() []BalanceSnapshot {
	out := make([]BalanceSnapshot, PeriodCount)
	copy(out, s.balances[:])
	return out
}

// Incomes returns the income snapshots ordered oldest to newest.
func (s *Statements) Incomes() []IncomeSnapshot {
	out := make([]IncomeSnapshot, PeriodCount)
	copy(out, s.incomes[:])
	return out
}

// Balance returns the balance snapshot of a 1-based period.
func (s *Statements) Balance(period int) (BalanceSnapshot, bool) {
	if period < 1 || period > PeriodCount {
		return BalanceSnapshot{}, false
	}
	return s.balances[period-1], true
}

// Income returns the income snapshot of a 1-based period.
func (s *Statements) Income(period int) (IncomeSnapshot, bool) {
	if period < 1 || period > PeriodCount {
		return IncomeSnapshot{}, false
	}
	return s.incomes[period-1], true
}

// =============================================================================
// MOST-RECENT HIERARCHICAL FORM
// =============================================================================

// Latest is the point-in-time view used by ratio calculators and scoring.
// Pointers reference copies; mutating them does not affect Statements.
type Latest struct {
	Balance      *BalanceSnapshot
	PriorBalance *BalanceSnapshot
	Income       *IncomeSnapshot
}

// Latest returns the newest period that carries data. Periods are filled
// oldest to newest, so the newest provided period wins; p4 is used when no
// period carries data. The prior balance is the period right before it,
// present only when that period carries data.
func (s *Statements) Latest() Latest {
	idx := s.latestIndex()

	bal := s.balances[idx]
	inc := s.incomes[idx]
	l := Latest{Balance: &bal, Income: &inc}

	if idx > 0 && s.balances[idx-1].Provided {
		prior := s.balances[idx-1]
		l.PriorBalance = &prior
	}
	return l
}

func (s *Statements) latestIndex() int {
	for i := PeriodCount - 1; i >= 0; i-- {
		if s.balances[i].Provided || s.incomes[i].Provided {
			return i
		}
	}
	return PeriodCount - 1
}

// HasData reports whether any period of either statement carries data.
func (s *Statements) HasData() bool {
	for i := 0; i < PeriodCount; i++ {
		if s.balances[i].Provided || s.incomes[i].Provided {
			return true
		}
	}
	return false
}

// =============================================================================
// PER-PERIOD FLAT FORM
// =============================================================================

// FlatPeriod is the flat form of one period, keyed by account or subtotal.
type FlatPeriod struct {
	Balance map[string]float64 `json:"balance"`
	Income  map[string]float64 `json:"income"`
}

// ByPeriod returns the flat form keyed by period tag ("p1".."p4").
func (s *Statements) ByPeriod() map[string]FlatPeriod {
	out := make(map[string]FlatPeriod, PeriodCount)
	for i := 0; i < PeriodCount; i++ {
		out[s.balances[i].Period] = FlatPeriod{
			Balance: s.balances[i].Flatten(),
			Income:  s.incomes[i].Flatten(),
		}
	}
	return out
}

// Flatten returns the snapshot as account/subtotal → value.
func (b BalanceSnapshot) Flatten() map[string]float64 {
	ca, nca := b.Assets.Current, b.Assets.NonCurrent
	cl, ncl := b.Liabilities.Current, b.Liabilities.NonCurrent
	eq := b.Equity

	return map[string]float64{
		AccCash:                       ca.Cash,
		AccFinancialInvestments:       ca.FinancialInvestments,
		AccAccountsReceivable:         ca.AccountsReceivable,
		AccBadDebtProvision:           ca.BadDebtProvision,
		"netReceivables":              ca.NetReceivables,
		AccInventory:                  ca.Inventory,
		AccOtherCurrentAssets:         ca.OtherCurrentAssets,
		"currentAssets":               ca.Total,
		AccLongTermReceivables:        nca.LongTermReceivables,
		AccInvestments:                nca.Investments,
		AccFixedAssets:                nca.FixedAssets,
		AccAccumulatedDepreciation:    nca.AccumulatedDepreciation,
		"netFixedAssets":              nca.NetFixedAssets,
		AccIntangibleAssets:           nca.IntangibleAssets,
		AccAccumulatedAmortization:    nca.AccumulatedAmortization,
		"netIntangibles":              nca.NetIntangibles,
		"nonCurrentAssets":            nca.Total,
		"totalAssets":                 b.Assets.Total,
		AccSuppliers:                  cl.Suppliers,
		AccShortTermLoans:             cl.ShortTermLoans,
		AccTaxesPayable:               cl.TaxesPayable,
		AccPayrollObligations:         cl.PayrollObligations,
		AccOtherCurrentLiabilities:    cl.OtherCurrentLiabilities,
		"currentLiabilities":          cl.Total,
		AccLongTermLoans:              ncl.LongTermLoans,
		AccOtherNonCurrentLiabilities: ncl.OtherNonCurrentLiabilities,
		"nonCurrentLiabilities":       ncl.Total,
		"totalLiabilities":            b.Liabilities.Total,
		AccShareCapital:               eq.ShareCapital,
		AccCapitalReserves:            eq.CapitalReserves,
		AccProfitReserves:             eq.ProfitReserves,
		AccRetainedEarnings:           eq.RetainedEarnings,
		AccTreasuryShares:             eq.TreasuryShares,
		"equity":                      eq.Total,
		"totalLiabilitiesAndEquity":   b.TotalLiabilitiesAndEquity(),
		AccOverdueReceivables:         b.Memo.OverdueReceivables,
		AccOverduePayables:            b.Memo.OverduePayables,
	}
}

// Flatten returns the snapshot as line/subtotal → value.
func (is IncomeSnapshot) Flatten() map[string]float64 {
	opex := is.OperatingExpenses
	return map[string]float64{
		AccGrossRevenue:             is.Revenue.Gross,
		AccSalesDeductions:          is.Revenue.Deductions,
		"netRevenue":                is.Revenue.Net,
		AccCostOfGoodsSold:          is.CostOfGoodsSold,
		"grossProfit":               is.GrossProfit,
		AccSellingExpenses:          opex.Selling,
		AccAdministrativeExpenses:   opex.Administrative,
		AccOtherOperatingExpenses:   opex.Other,
		AccOtherOperatingIncome:     opex.OtherIncome,
		AccDepreciationAmortization: is.DepreciationAmortization,
		"operatingExpenses":         opex.Total,
		"ebitda":                    is.EBITDA,
		"operatingProfit":           is.OperatingProfit,
		AccFinancialIncome:          is.Financial.Income,
		AccFinancialExpenses:        is.Financial.Expenses,
		"financialResult":           is.Financial.Net,
		"profitBeforeTax":           is.ProfitBeforeTax,
		AccIncomeTax:                is.IncomeTax,
		"netProfit":                 is.NetProfit,
		AccVariableCosts:            is.CostStructure.Variable,
		AccFixedCosts:               is.CostStructure.Fixed,
		"contributionMargin":        is.CostStructure.ContributionMargin,
	}
}

// =============================================================================
// INTEGRITY
// =============================================================================

// CheckBalances runs the accounting equation over every provided period.
func (s *Statements) CheckBalances(tolerance float64) []*validate.BalanceCheck {
	var checks []*validate.BalanceCheck
	for _, b := range s.balances {
		if !b.Provided {
			continue
		}
		checks = append(checks, validate.CheckBalanceEquation(b.Period, b.Assets.Total, b.Liabilities.Total, b.Equity.Total, tolerance))
	}
	return checks
}

// CheckEquityLinks compares each period's equity movement with its net profit.
func (s *Statements) CheckEquityLinks(tolerancePct float64) []*validate.EquityLink {
	var links []*validate.EquityLink
	for i := 1; i < PeriodCount; i++ {
		prior, cur, inc := s.balances[i-1], s.balances[i], s.incomes[i]
		if !prior.Provided || !cur.Provided || !inc.Provided {
			continue
		}
		links = append(links, validate.CheckEquityRollForward(cur.Period, prior.Equity.Total, cur.Equity.Total, inc.NetProfit, tolerancePct))
	}
	return links
}
