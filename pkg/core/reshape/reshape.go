package reshape

import (
	"fmt"
)

// =============================================================================
// INPUT ACCOUNT NAMES
// Raw keys follow the convention {account}_p{period}, period in 1..4.
// =============================================================================

// Balance sheet accounts.
const (
	AccCash                       = "cash"
	AccFinancialInvestments       = "financialInvestments"
	AccAccountsReceivable         = "accountsReceivable"
	AccBadDebtProvision           = "badDebtProvision"
	AccInventory                  = "inventory"
	AccOtherCurrentAssets         = "otherCurrentAssets"
	AccLongTermReceivables        = "longTermReceivables"
	AccInvestments                = "investments"
	AccFixedAssets                = "fixedAssets"
	AccAccumulatedDepreciation    = "accumulatedDepreciation"
	AccIntangibleAssets           = "intangibleAssets"
	AccAccumulatedAmortization    = "accumulatedAmortization"
	AccSuppliers                  = "suppliers"
	AccShortTermLoans             = "shortTermLoans"
	AccTaxesPayable               = "taxesPayable"
	AccPayrollObligations         = "payrollObligations"
	AccOtherCurrentLiabilities    = "otherCurrentLiabilities"
	AccLongTermLoans              = "longTermLoans"
	AccOtherNonCurrentLiabilities = "otherNonCurrentLiabilities"
	AccShareCapital               = "shareCapital"
	AccCapitalReserves            = "capitalReserves"
	AccProfitReserves             = "profitReserves"
	AccRetainedEarnings           = "retainedEarnings"
	AccTreasuryShares             = "treasuryShares"
	AccOverdueReceivables         = "overdueReceivables"
	AccOverduePayables            = "overduePayables"
)

// Income statement accounts. incomeTax is a charge whatever its sign; tax
// credits go in incomeTaxBenefit, which is always added back.
const (
	AccGrossRevenue             = "grossRevenue"
	AccSalesDeductions          = "salesDeductions"
	AccCostOfGoodsSold          = "costOfGoodsSold"
	AccSellingExpenses          = "sellingExpenses"
	AccAdministrativeExpenses   = "administrativeExpenses"
	AccOtherOperatingExpenses   = "otherOperatingExpenses"
	AccOtherOperatingIncome     = "otherOperatingIncome"
	AccDepreciationAmortization = "depreciationAmortization"
	AccFinancialIncome          = "financialIncome"
	AccFinancialExpenses        = "financialExpenses"
	AccIncomeTax                = "incomeTax"
	AccIncomeTaxBenefit         = "incomeTaxBenefit"
	AccVariableCosts            = "variableCosts"
	AccFixedCosts               = "fixedCosts"
)

// ContraAccounts lists the balance accounts stored with a natural negative sign.
var ContraAccounts = []string{
	AccBadDebtProvision,
	AccAccumulatedDepreciation,
	AccAccumulatedAmortization,
	AccTreasuryShares,
}

// PeriodKey builds the raw input key for an account in a period (1-based).
func PeriodKey(account string, period int) string {
	return fmt.Sprintf("%s_p%d", account, period)
}

// PeriodTag is the tag used by the per-period flat form ("p1".."p4").
func PeriodTag(period int) string {
	return fmt.Sprintf("p%d", period)
}

// =============================================================================
// RESHAPE
// =============================================================================

// Statements holds the four balance and income snapshots built from one flat
// input. All views (per-period flat, latest hierarchical, ordered) read from
// these arrays; nothing is recomputed per view.
type Statements struct {
	balances [PeriodCount]BalanceSnapshot
	incomes  [PeriodCount]IncomeSnapshot
}

// Reshape converts the flat input mapping into period snapshots.
// It never fails: unknown or unparseable values resolve to zero.
func Reshape(raw map[string]any) *Statements {
	s := &Statements{}
	for p := 1; p <= PeriodCount; p++ {
		r := &periodReader{raw: raw, period: p}
		s.balances[p-1] = buildBalance(r)

		r = &periodReader{raw: raw, period: p}
		s.incomes[p-1] = buildIncome(r)
	}
	return s
}

// periodReader reads one period's accounts and records whether any value
// was supplied for it.
type periodReader struct {
	raw    map[string]any
	period int
	seen   bool
}

func (r *periodReader) amount(account string) float64 {
	v, ok := parseAmountStrict(r.raw[PeriodKey(account, r.period)])
	if ok {
		r.seen = true
	}
	return v
}

func (r *periodReader) has(account string) bool {
	_, ok := parseAmountStrict(r.raw[PeriodKey(account, r.period)])
	return ok
}

func buildBalance(r *periodReader) BalanceSnapshot {
	b := BalanceSnapshot{
		Period: PeriodTag(r.period),
		Index:  r.period,
	}

	// Current assets
	ca := &b.Assets.Current
	ca.Cash = r.amount(AccCash)
	ca.FinancialInvestments = r.amount(AccFinancialInvestments)
	ca.AccountsReceivable = r.amount(AccAccountsReceivable)
	ca.BadDebtProvision = contra(r.amount(AccBadDebtProvision))
	ca.NetReceivables = ca.AccountsReceivable + ca.BadDebtProvision
	ca.Inventory = r.amount(AccInventory)
	ca.OtherCurrentAssets = r.amount(AccOtherCurrentAssets)
	ca.Total = ca.Cash + ca.FinancialInvestments + ca.NetReceivables + ca.Inventory + ca.OtherCurrentAssets

	// Non-current assets
	nca := &b.Assets.NonCurrent
	nca.LongTermReceivables = r.amount(AccLongTermReceivables)
	nca.Investments = r.amount(AccInvestments)
	nca.FixedAssets = r.amount(AccFixedAssets)
	nca.AccumulatedDepreciation = contra(r.amount(AccAccumulatedDepreciation))
	nca.NetFixedAssets = nca.FixedAssets + nca.AccumulatedDepreciation
	nca.IntangibleAssets = r.amount(AccIntangibleAssets)
	nca.AccumulatedAmortization = contra(r.amount(AccAccumulatedAmortization))
	nca.NetIntangibles = nca.IntangibleAssets + nca.AccumulatedAmortization
	nca.Total = nca.LongTermReceivables + nca.Investments + nca.NetFixedAssets + nca.NetIntangibles

	b.Assets.Total = ca.Total + nca.Total

	// Current liabilities
	cl := &b.Liabilities.Current
	cl.Suppliers = r.amount(AccSuppliers)
	cl.ShortTermLoans = r.amount(AccShortTermLoans)
	cl.TaxesPayable = r.amount(AccTaxesPayable)
	cl.PayrollObligations = r.amount(AccPayrollObligations)
	cl.OtherCurrentLiabilities = r.amount(AccOtherCurrentLiabilities)
	cl.Total = cl.Suppliers + cl.ShortTermLoans + cl.TaxesPayable + cl.PayrollObligations + cl.OtherCurrentLiabilities

	// Non-current liabilities
	ncl := &b.Liabilities.NonCurrent
	ncl.LongTermLoans = r.amount(AccLongTermLoans)
	ncl.OtherNonCurrentLiabilities = r.amount(AccOtherNonCurrentLiabilities)
	ncl.Total = ncl.LongTermLoans + ncl.OtherNonCurrentLiabilities

	b.Liabilities.Total = cl.Total + ncl.Total

	// Equity
	eq := &b.Equity
	eq.ShareCapital = r.amount(AccShareCapital)
	eq.CapitalReserves = r.amount(AccCapitalReserves)
	eq.ProfitReserves = r.amount(AccProfitReserves)
	eq.RetainedEarnings = r.amount(AccRetainedEarnings) // may legitimately be negative (accumulated losses)
	eq.TreasuryShares = contra(r.amount(AccTreasuryShares))
	eq.Total = eq.ShareCapital + eq.CapitalReserves + eq.ProfitReserves + eq.RetainedEarnings + eq.TreasuryShares

	// Memo
	b.Memo.OverdueReceivables = r.amount(AccOverdueReceivables)
	b.Memo.OverduePayables = r.amount(AccOverduePayables)

	b.Provided = r.seen
	return b
}

func buildIncome(r *periodReader) IncomeSnapshot {
	is := IncomeSnapshot{
		Period: PeriodTag(r.period),
		Index:  r.period,
	}

	is.Revenue.Gross = r.amount(AccGrossRevenue)
	is.Revenue.Deductions = expense(r.amount(AccSalesDeductions))
	is.Revenue.Net = is.Revenue.Gross + is.Revenue.Deductions

	is.CostOfGoodsSold = expense(r.amount(AccCostOfGoodsSold))
	is.GrossProfit = is.Revenue.Net + is.CostOfGoodsSold

	opex := &is.OperatingExpenses
	opex.Selling = expense(r.amount(AccSellingExpenses))
	opex.Administrative = expense(r.amount(AccAdministrativeExpenses))
	opex.Other = expense(r.amount(AccOtherOperatingExpenses))
	opex.OtherIncome = r.amount(AccOtherOperatingIncome)
	is.DepreciationAmortization = expense(r.amount(AccDepreciationAmortization))
	opex.Total = opex.Selling + opex.Administrative + opex.Other + opex.OtherIncome + is.DepreciationAmortization

	is.OperatingProfit = is.GrossProfit + opex.Total
	is.EBITDA = is.OperatingProfit - is.DepreciationAmortization // add-back of a negative line

	is.Financial.Income = r.amount(AccFinancialIncome)
	is.Financial.Expenses = expense(r.amount(AccFinancialExpenses))
	is.Financial.Net = is.Financial.Income + is.Financial.Expenses

	is.ProfitBeforeTax = is.OperatingProfit + is.Financial.Net
	is.IncomeTax = expense(r.amount(AccIncomeTax)) + magnitude(r.amount(AccIncomeTaxBenefit))
	is.NetProfit = is.ProfitBeforeTax + is.IncomeTax

	is.CostStructure = buildCostStructure(r, is)

	is.Provided = r.seen
	return is
}

// buildCostStructure uses the explicit variable/fixed split when supplied,
// otherwise derives it: variable = COGS + selling, fixed = administrative +
// other operating + depreciation.
func buildCostStructure(r *periodReader, is IncomeSnapshot) CostStructure {
	cs := CostStructure{}

	if r.has(AccVariableCosts) || r.has(AccFixedCosts) {
		cs.Variable = magnitude(r.amount(AccVariableCosts))
		cs.Fixed = magnitude(r.amount(AccFixedCosts))
	} else {
		opex := is.OperatingExpenses
		cs.Variable = magnitude(is.CostOfGoodsSold + opex.Selling)
		cs.Fixed = magnitude(opex.Administrative + opex.Other + is.DepreciationAmortization)
		cs.Derived = true
	}

	cs.ContributionMargin = is.Revenue.Net - cs.Variable
	return cs
}
