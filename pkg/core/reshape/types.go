// Package reshape converts the flat, period-suffixed input mapping into
// sign-normalized, hierarchical period snapshots.
// This file defines the snapshot data structures.
package reshape

// PeriodCount is the number of reporting periods modelled per statement type.
const PeriodCount = 4

// =============================================================================
// BALANCE SHEET SNAPSHOT
// Contra accounts (marked) are always stored with their natural negative sign.
// =============================================================================

// CurrentAssets groups short-term asset accounts.
type CurrentAssets struct {
	Cash                 float64 `json:"cash"`
	FinancialInvestments float64 `json:"financial_investments"`
	AccountsReceivable   float64 `json:"accounts_receivable"`
	BadDebtProvision     float64 `json:"bad_debt_provision"` // contra (negative)
	NetReceivables       float64 `json:"net_receivables"`    // computed
	Inventory            float64 `json:"inventory"`
	OtherCurrentAssets   float64 `json:"other_current_assets"`
	Total                float64 `json:"total"` // computed
}

// NonCurrentAssets groups long-term asset accounts.
type NonCurrentAssets struct {
	LongTermReceivables     float64 `json:"long_term_receivables"`
	Investments             float64 `json:"investments"`
	FixedAssets             float64 `json:"fixed_assets"`
	AccumulatedDepreciation float64 `json:"accumulated_depreciation"` // contra (negative)
	NetFixedAssets          float64 `json:"net_fixed_assets"`         // computed
	IntangibleAssets        float64 `json:"intangible_assets"`
	AccumulatedAmortization float64 `json:"accumulated_amortization"` // contra (negative)
	NetIntangibles          float64 `json:"net_intangibles"`          // computed
	Total                   float64 `json:"total"`                    // computed
}

// Assets is the asset side of the balance sheet.
type Assets struct {
	Current    CurrentAssets    `json:"current"`
	NonCurrent NonCurrentAssets `json:"non_current"`
	Total      float64          `json:"total"`
}

// CurrentLiabilities groups obligations due within the operating year.
type CurrentLiabilities struct {
	Suppliers               float64 `json:"suppliers"`
	ShortTermLoans          float64 `json:"short_term_loans"`
	TaxesPayable            float64 `json:"taxes_payable"`
	PayrollObligations      float64 `json:"payroll_obligations"`
	OtherCurrentLiabilities float64 `json:"other_current_liabilities"`
	Total                   float64 `json:"total"`
}

// NonCurrentLiabilities groups long-term obligations.
type NonCurrentLiabilities struct {
	LongTermLoans              float64 `json:"long_term_loans"`
	OtherNonCurrentLiabilities float64 `json:"other_non_current_liabilities"`
	Total                      float64 `json:"total"`
}

// Liabilities is the third-party side of the balance sheet.
type Liabilities struct {
	Current    CurrentLiabilities    `json:"current"`
	NonCurrent NonCurrentLiabilities `json:"non_current"`
	Total      float64               `json:"total"`
}

// Equity holds the shareholders' accounts.
type Equity struct {
	ShareCapital     float64 `json:"share_capital"`
	CapitalReserves  float64 `json:"capital_reserves"`
	ProfitReserves   float64 `json:"profit_reserves"`
	RetainedEarnings float64 `json:"retained_earnings"`
	TreasuryShares   float64 `json:"treasury_shares"` // contra (negative)
	Total            float64 `json:"total"`
}

// Memo holds off-total figures used by the default-rate indicators.
type Memo struct {
	OverdueReceivables float64 `json:"overdue_receivables"`
	OverduePayables    float64 `json:"overdue_payables"`
}

// BalanceSnapshot is one reporting period of the balance sheet.
type BalanceSnapshot struct {
	Period      string      `json:"period"` // "p1".."p4"
	Index       int         `json:"index"`  // 1..4, oldest first
	Provided    bool        `json:"provided"`
	Assets      Assets      `json:"assets"`
	Liabilities Liabilities `json:"liabilities"`
	Equity      Equity      `json:"equity"`
	Memo        Memo        `json:"memo"`
}

// TotalLiabilitiesAndEquity is the right-hand side of the accounting equation.
func (b BalanceSnapshot) TotalLiabilitiesAndEquity() float64 {
	return b.Liabilities.Total + b.Equity.Total
}

// =============================================================================
// INCOME STATEMENT SNAPSHOT
// Expenses and deductions are stored negative so subtotals are plain sums.
// =============================================================================

// Revenue holds the top line.
type Revenue struct {
	Gross      float64 `json:"gross"`
	Deductions float64 `json:"deductions"` // negative
	Net        float64 `json:"net"`        // computed
}

// OperatingExpenses holds the expense lines between gross and operating profit.
type OperatingExpenses struct {
	Selling        float64 `json:"selling"`        // negative
	Administrative float64 `json:"administrative"` // negative
	Other          float64 `json:"other"`          // negative
	OtherIncome    float64 `json:"other_income"`   // positive
	Total          float64 `json:"total"`          // computed (negative)
}

// Financial holds the financial result.
type Financial struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"` // negative
	Net      float64 `json:"net"`      // computed
}

// CostStructure holds the variable/fixed split as positive magnitudes.
type CostStructure struct {
	Variable           float64 `json:"variable"`
	Fixed              float64 `json:"fixed"`
	ContributionMargin float64 `json:"contribution_margin"` // net revenue - variable
	Derived            bool    `json:"derived"`             // true when not supplied explicitly
}

// IncomeSnapshot is one reporting period of the income statement.
type IncomeSnapshot struct {
	Period                   string            `json:"period"`
	Index                    int               `json:"index"`
	Provided                 bool              `json:"provided"`
	Revenue                  Revenue           `json:"revenue"`
	CostOfGoodsSold          float64           `json:"cost_of_goods_sold"` // negative
	GrossProfit              float64           `json:"gross_profit"`
	OperatingExpenses        OperatingExpenses `json:"operating_expenses"`
	DepreciationAmortization float64           `json:"depreciation_amortization"` // negative, included in operating expenses
	EBITDA                   float64           `json:"ebitda"`
	OperatingProfit          float64           `json:"operating_profit"`
	Financial                Financial         `json:"financial"`
	ProfitBeforeTax          float64           `json:"profit_before_tax"`
	IncomeTax                float64           `json:"income_tax"` // negative unless benefits exceed the charge
	NetProfit                float64           `json:"net_profit"`
	CostStructure            CostStructure     `json:"cost_structure"`
}
