package calc

import (
	"credit_analysis/pkg/core/reshape"
)

// Kind is the calculation kind an indicator is reported under.
type Kind string

const (
	KindBalance Kind = "balance-type"
	KindIncome  Kind = "income-type"
)

// Kinds lists the calculation kinds in run order.
var Kinds = []Kind{KindBalance, KindIncome}

// Inputs carries every operand an indicator may read.
type Inputs struct {
	Balance       *reshape.BalanceSnapshot
	PriorBalance  *reshape.BalanceSnapshot
	Income        *reshape.IncomeSnapshot
	Concentration reshape.Concentration
}

// InputsFrom builds the indicator operands from the latest view.
func InputsFrom(l reshape.Latest, c reshape.Concentration) Inputs {
	return Inputs{
		Balance:       l.Balance,
		PriorBalance:  l.PriorBalance,
		Income:        l.Income,
		Concentration: c,
	}
}

// Indicator binds a name and default category to its formula.
type Indicator struct {
	Name     string
	Category string
	Kind     Kind
	Compute  func(Inputs) Value
}

// Computed is one evaluated indicator.
type Computed struct {
	Indicator Indicator
	Value     Value
}

// Categories.
const (
	CatLiquidity         = "liquidity"
	CatIndebtedness      = "indebtedness"
	CatCapitalStructure  = "capitalStructure"
	CatDefaultRates      = "defaultRates"
	CatEquityGrowth      = "equityGrowth"
	CatProfitability     = "profitability"
	CatConcentration     = "concentration"
	CatInterestCoverage  = "interestCoverage"
	CatOperatingCycle    = "operatingCycle"
	CatMargins           = "margins"
	CatCostStructure     = "costStructure"
	CatBreakEven         = "breakEven"
	CatOperatingLeverage = "operatingLeverage"
)

func balanceOnly(f func(*reshape.BalanceSnapshot) Value) func(Inputs) Value {
	return func(in Inputs) Value { return f(in.Balance) }
}

func incomeOnly(f func(*reshape.IncomeSnapshot) Value) func(Inputs) Value {
	return func(in Inputs) Value { return f(in.Income) }
}

func both(f func(*reshape.BalanceSnapshot, *reshape.IncomeSnapshot) Value) func(Inputs) Value {
	return func(in Inputs) Value { return f(in.Balance, in.Income) }
}

var catalog = []Indicator{
	// balance-type
	{"currentLiquidity", CatLiquidity, KindBalance, balanceOnly(CurrentLiquidity)},
	{"quickLiquidity", CatLiquidity, KindBalance, balanceOnly(QuickLiquidity)},
	{"immediateLiquidity", CatLiquidity, KindBalance, balanceOnly(ImmediateLiquidity)},
	{"generalLiquidity", CatLiquidity, KindBalance, balanceOnly(GeneralLiquidity)},
	{"generalIndebtedness", CatIndebtedness, KindBalance, balanceOnly(GeneralIndebtedness)},
	{"debtToEquity", CatIndebtedness, KindBalance, balanceOnly(DebtToEquity)},
	{"debtComposition", CatIndebtedness, KindBalance, balanceOnly(DebtComposition)},
	{"financialDebtToEquity", CatIndebtedness, KindBalance, balanceOnly(FinancialDebtToEquity)},
	{"equityImmobilization", CatCapitalStructure, KindBalance, balanceOnly(EquityImmobilization)},
	{"nonCurrentResourcesImmobilization", CatCapitalStructure, KindBalance, balanceOnly(NonCurrentResourcesImmobilization)},
	{"equityToAssets", CatCapitalStructure, KindBalance, balanceOnly(EquityToAssets)},
	{"receivablesDefaultRate", CatDefaultRates, KindBalance, balanceOnly(ReceivablesDefaultRate)},
	{"payablesDefaultRate", CatDefaultRates, KindBalance, balanceOnly(PayablesDefaultRate)},
	{"equityGrowth", CatEquityGrowth, KindBalance, func(in Inputs) Value { return EquityGrowth(in.Balance, in.PriorBalance) }},
	{"returnOnEquity", CatProfitability, KindBalance, both(ReturnOnEquity)},
	{"returnOnAssets", CatProfitability, KindBalance, both(ReturnOnAssets)},
	{"customerConcentration", CatConcentration, KindBalance, func(in Inputs) Value {
		return CustomerConcentration(in.Concentration.LargestCustomersRevenue, in.Income)
	}},
	{"supplierConcentration", CatConcentration, KindBalance, func(in Inputs) Value {
		return SupplierConcentration(in.Concentration.LargestSuppliersPurchases, in.Income)
	}},
	// reported with the balance group, so it needs both statements even
	// though the formula reads only the income statement
	{"interestCoverage", CatInterestCoverage, KindBalance, incomeOnly(InterestCoverage)},

	// income-type
	{"receivableDays", CatOperatingCycle, KindIncome, both(ReceivableDays)},
	{"payableDays", CatOperatingCycle, KindIncome, both(PayableDays)},
	{"inventoryDays", CatOperatingCycle, KindIncome, both(InventoryDays)},
	{"operatingCycle", CatOperatingCycle, KindIncome, both(OperatingCycle)},
	{"cashCycle", CatOperatingCycle, KindIncome, both(CashCycle)},
	{"grossMargin", CatMargins, KindIncome, incomeOnly(GrossMargin)},
	{"ebitdaMargin", CatMargins, KindIncome, incomeOnly(EBITDAMargin)},
	{"operatingMargin", CatMargins, KindIncome, incomeOnly(OperatingMargin)},
	{"netMargin", CatMargins, KindIncome, incomeOnly(NetMargin)},
	{"variableCostRatio", CatCostStructure, KindIncome, incomeOnly(VariableCostRatio)},
	{"fixedCostRatio", CatCostStructure, KindIncome, incomeOnly(FixedCostRatio)},
	{"contributionMarginRatio", CatCostStructure, KindIncome, incomeOnly(ContributionMarginRatio)},
	{"breakEvenPoint", CatBreakEven, KindIncome, incomeOnly(BreakEvenPoint)},
	{"marginOfSafety", CatBreakEven, KindIncome, incomeOnly(MarginOfSafety)},
	{"operatingLeverage", CatOperatingLeverage, KindIncome, incomeOnly(OperatingLeverage)},
}

// Catalog returns every indicator in its fixed evaluation order.
func Catalog() []Indicator {
	out := make([]Indicator, len(catalog))
	copy(out, catalog)
	return out
}

// ByKind returns the indicators reported under one calculation kind.
func ByKind(kind Kind) []Indicator {
	var out []Indicator
	for _, ind := range catalog {
		if ind.Kind == kind {
			out = append(out, ind)
		}
	}
	return out
}

// Find returns the indicator registered under name.
func Find(name string) (Indicator, bool) {
	for _, ind := range catalog {
		if ind.Name == name {
			return ind, true
		}
	}
	return Indicator{}, false
}

// Compute evaluates every indicator of a kind, in catalog order.
func Compute(kind Kind, in Inputs) []Computed {
	inds := ByKind(kind)
	out := make([]Computed, 0, len(inds))
	for _, ind := range inds {
		out = append(out, Computed{Indicator: ind, Value: ind.Compute(in)})
	}
	return out
}
