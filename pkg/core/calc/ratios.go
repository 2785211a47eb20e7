package calc

import (
	"credit_analysis/pkg/core/reshape"
)

// DaysBase is the commercial year used by the operating-cycle indicators.
const DaysBase = 360

// =============================================================================
// OPERAND ACCESS
// An operand is missing when its snapshot is nil or carries no data.
// =============================================================================

func bal(b *reshape.BalanceSnapshot, get func(*reshape.BalanceSnapshot) float64) Value {
	if b == nil || !b.Provided {
		return Absent()
	}
	return Some(get(b))
}

func currentAssets(b *reshape.BalanceSnapshot) Value {
	return bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Assets.Current.Total })
}

func currentLiabilities(b *reshape.BalanceSnapshot) Value {
	return bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Liabilities.Current.Total })
}

func nonCurrentLiabilities(b *reshape.BalanceSnapshot) Value {
	return bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Liabilities.NonCurrent.Total })
}

func totalLiabilities(b *reshape.BalanceSnapshot) Value {
	return bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Liabilities.Total })
}

func totalAssets(b *reshape.BalanceSnapshot) Value {
	return bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Assets.Total })
}

func equity(b *reshape.BalanceSnapshot) Value {
	return bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Equity.Total })
}

func longTermReceivables(b *reshape.BalanceSnapshot) Value {
	return bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Assets.NonCurrent.LongTermReceivables })
}

// permanentAssets is non-current assets excluding long-term receivables.
func permanentAssets(b *reshape.BalanceSnapshot) Value {
	nca := bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Assets.NonCurrent.Total })
	return sub(nca, longTermReceivables(b))
}

func netRevenue(is *reshape.IncomeSnapshot) Value { return Lookup(is, "revenue.net") }

// cogs is the cost of goods sold as a positive magnitude.
func cogs(is *reshape.IncomeSnapshot) Value { return abs(Lookup(is, "costOfGoodsSold.value")) }

// =============================================================================
// LIQUIDITY
// =============================================================================

// CurrentLiquidity = current assets / current liabilities.
func CurrentLiquidity(b *reshape.BalanceSnapshot) Value {
	return div(currentAssets(b), currentLiabilities(b))
}

// QuickLiquidity = (current assets - inventory) / current liabilities.
func QuickLiquidity(b *reshape.BalanceSnapshot) Value {
	inv := bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Assets.Current.Inventory })
	return div(sub(currentAssets(b), inv), currentLiabilities(b))
}

// ImmediateLiquidity = (cash + financial investments) / current liabilities.
func ImmediateLiquidity(b *reshape.BalanceSnapshot) Value {
	avail := bal(b, func(b *reshape.BalanceSnapshot) float64 {
		return b.Assets.Current.Cash + b.Assets.Current.FinancialInvestments
	})
	return div(avail, currentLiabilities(b))
}

// GeneralLiquidity = (current assets + long-term receivables) / total liabilities.
func GeneralLiquidity(b *reshape.BalanceSnapshot) Value {
	return div(add(currentAssets(b), longTermReceivables(b)), add(currentLiabilities(b), nonCurrentLiabilities(b)))
}

// =============================================================================
// INDEBTEDNESS (percent)
// =============================================================================

// GeneralIndebtedness = total liabilities / total assets.
func GeneralIndebtedness(b *reshape.BalanceSnapshot) Value {
	return pct(totalLiabilities(b), totalAssets(b))
}

// DebtToEquity = total liabilities / equity.
func DebtToEquity(b *reshape.BalanceSnapshot) Value {
	return pct(totalLiabilities(b), equity(b))
}

// DebtComposition is the share of third-party capital due in the short term.
func DebtComposition(b *reshape.BalanceSnapshot) Value {
	return pct(currentLiabilities(b), totalLiabilities(b))
}

// FinancialDebtToEquity only counts interest-bearing loans.
func FinancialDebtToEquity(b *reshape.BalanceSnapshot) Value {
	loans := bal(b, func(b *reshape.BalanceSnapshot) float64 {
		return b.Liabilities.Current.ShortTermLoans + b.Liabilities.NonCurrent.LongTermLoans
	})
	return pct(loans, equity(b))
}

// =============================================================================
// CAPITAL STRUCTURE (percent)
// =============================================================================

// EquityImmobilization = permanent assets / equity.
func EquityImmobilization(b *reshape.BalanceSnapshot) Value {
	return pct(permanentAssets(b), equity(b))
}

// NonCurrentResourcesImmobilization = permanent assets / (equity + non-current liabilities).
func NonCurrentResourcesImmobilization(b *reshape.BalanceSnapshot) Value {
	return pct(permanentAssets(b), add(equity(b), nonCurrentLiabilities(b)))
}

// EquityToAssets = equity / total assets.
func EquityToAssets(b *reshape.BalanceSnapshot) Value {
	return pct(equity(b), totalAssets(b))
}

// =============================================================================
// DEFAULT RATES (percent)
// =============================================================================

// ReceivablesDefaultRate = overdue receivables / gross accounts receivable.
func ReceivablesDefaultRate(b *reshape.BalanceSnapshot) Value {
	overdue := bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Memo.OverdueReceivables })
	gross := bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Assets.Current.AccountsReceivable })
	return pct(overdue, gross)
}

// PayablesDefaultRate = overdue payables / suppliers.
func PayablesDefaultRate(b *reshape.BalanceSnapshot) Value {
	overdue := bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Memo.OverduePayables })
	suppliers := bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Liabilities.Current.Suppliers })
	return pct(overdue, suppliers)
}

// =============================================================================
// EQUITY GROWTH (percent, two periods)
// =============================================================================

// EquityGrowth compares equity with the prior period. The base is taken in
// absolute value so growth out of negative equity keeps its direction.
func EquityGrowth(cur, prior *reshape.BalanceSnapshot) Value {
	return pct(sub(equity(cur), equity(prior)), abs(equity(prior)))
}

// =============================================================================
// PROFITABILITY (percent, both statements)
// =============================================================================

// ReturnOnEquity = net profit / equity.
func ReturnOnEquity(b *reshape.BalanceSnapshot, is *reshape.IncomeSnapshot) Value {
	return pct(Lookup(is, "netProfit.value"), equity(b))
}

// ReturnOnAssets = net profit / total assets.
func ReturnOnAssets(b *reshape.BalanceSnapshot, is *reshape.IncomeSnapshot) Value {
	return pct(Lookup(is, "netProfit.value"), totalAssets(b))
}

// =============================================================================
// CONCENTRATION (percent)
// =============================================================================

// CustomerConcentration is the revenue share of the largest customers.
func CustomerConcentration(largestCustomersRevenue *float64, is *reshape.IncomeSnapshot) Value {
	return pct(fromPtr(largestCustomersRevenue), netRevenue(is))
}

// SupplierConcentration is the purchase share of the largest suppliers.
func SupplierConcentration(largestSuppliersPurchases *float64, is *reshape.IncomeSnapshot) Value {
	return pct(fromPtr(largestSuppliersPurchases), cogs(is))
}

func fromPtr(f *float64) Value {
	if f == nil {
		return Absent()
	}
	return Some(*f)
}

// =============================================================================
// INTEREST COVERAGE
// =============================================================================

// InterestCoverage = operating profit / financial expenses (as a magnitude).
func InterestCoverage(is *reshape.IncomeSnapshot) Value {
	return div(Lookup(is, "operatingProfit.value"), abs(Lookup(is, "financial.expenses")))
}

// =============================================================================
// OPERATING CYCLE (days)
// =============================================================================

// ReceivableDays = net receivables / gross revenue x 360.
func ReceivableDays(b *reshape.BalanceSnapshot, is *reshape.IncomeSnapshot) Value {
	recv := bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Assets.Current.NetReceivables })
	return scale(div(recv, Lookup(is, "revenue.gross")), DaysBase)
}

// PayableDays = suppliers / cost of goods sold x 360.
func PayableDays(b *reshape.BalanceSnapshot, is *reshape.IncomeSnapshot) Value {
	suppliers := bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Liabilities.Current.Suppliers })
	return scale(div(suppliers, cogs(is)), DaysBase)
}

// InventoryDays = inventory / cost of goods sold x 360.
func InventoryDays(b *reshape.BalanceSnapshot, is *reshape.IncomeSnapshot) Value {
	inv := bal(b, func(b *reshape.BalanceSnapshot) float64 { return b.Assets.Current.Inventory })
	return scale(div(inv, cogs(is)), DaysBase)
}

// OperatingCycle = inventory days + receivable days.
func OperatingCycle(b *reshape.BalanceSnapshot, is *reshape.IncomeSnapshot) Value {
	return add(InventoryDays(b, is), ReceivableDays(b, is))
}

// CashCycle = operating cycle - payable days.
func CashCycle(b *reshape.BalanceSnapshot, is *reshape.IncomeSnapshot) Value {
	return sub(OperatingCycle(b, is), PayableDays(b, is))
}

// =============================================================================
// MARGINS (percent of net revenue)
// =============================================================================

// GrossMargin = gross profit / net revenue.
func GrossMargin(is *reshape.IncomeSnapshot) Value {
	return pct(Lookup(is, "grossProfit.value"), netRevenue(is))
}

// EBITDAMargin = EBITDA / net revenue.
func EBITDAMargin(is *reshape.IncomeSnapshot) Value {
	return pct(Lookup(is, "ebitda.value"), netRevenue(is))
}

// OperatingMargin = operating profit / net revenue.
func OperatingMargin(is *reshape.IncomeSnapshot) Value {
	return pct(Lookup(is, "operatingProfit.value"), netRevenue(is))
}

// NetMargin = net profit / net revenue.
func NetMargin(is *reshape.IncomeSnapshot) Value {
	return pct(Lookup(is, "netProfit.value"), netRevenue(is))
}

// =============================================================================
// COST STRUCTURE (percent of net revenue)
// =============================================================================

// VariableCostRatio = variable costs / net revenue.
func VariableCostRatio(is *reshape.IncomeSnapshot) Value {
	return pct(Lookup(is, "costStructure.variable"), netRevenue(is))
}

// FixedCostRatio = fixed costs / net revenue.
func FixedCostRatio(is *reshape.IncomeSnapshot) Value {
	return pct(Lookup(is, "costStructure.fixed"), netRevenue(is))
}

// ContributionMarginRatio = (net revenue - variable costs) / net revenue.
func ContributionMarginRatio(is *reshape.IncomeSnapshot) Value {
	rev := netRevenue(is)
	return pct(sub(rev, Lookup(is, "costStructure.variable")), rev)
}

// =============================================================================
// BREAK-EVEN
// =============================================================================

// BreakEvenPoint = fixed costs / contribution margin ratio. A non-positive
// ratio has no break-even revenue and is absent.
func BreakEvenPoint(is *reshape.IncomeSnapshot) Value {
	ratio := ContributionMarginRatio(is)
	if !ratio.Valid || ratio.V <= 0 {
		return Absent()
	}
	return div(Lookup(is, "costStructure.fixed"), scale(ratio, 0.01))
}

// MarginOfSafety = (net revenue - break-even) / net revenue.
func MarginOfSafety(is *reshape.IncomeSnapshot) Value {
	rev := netRevenue(is)
	return pct(sub(rev, BreakEvenPoint(is)), rev)
}

// =============================================================================
// OPERATING LEVERAGE
// =============================================================================

// OperatingLeverage = contribution margin / operating profit.
func OperatingLeverage(is *reshape.IncomeSnapshot) Value {
	cm := sub(netRevenue(is), Lookup(is, "costStructure.variable"))
	return div(cm, Lookup(is, "operatingProfit.value"))
}
