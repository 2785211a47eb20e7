package calc

import (
	"strings"

	"credit_analysis/pkg/core/reshape"
)

// incomePaths enumerates the dotted paths accepted by Lookup.
var incomePaths = map[string]func(*reshape.IncomeSnapshot) float64{
	"revenue.gross":                    func(is *reshape.IncomeSnapshot) float64 { return is.Revenue.Gross },
	"revenue.deductions":               func(is *reshape.IncomeSnapshot) float64 { return is.Revenue.Deductions },
	"revenue.net":                      func(is *reshape.IncomeSnapshot) float64 { return is.Revenue.Net },
	"costOfGoodsSold.value":            func(is *reshape.IncomeSnapshot) float64 { return is.CostOfGoodsSold },
	"grossProfit.value":                func(is *reshape.IncomeSnapshot) float64 { return is.GrossProfit },
	"operatingExpenses.selling":        func(is *reshape.IncomeSnapshot) float64 { return is.OperatingExpenses.Selling },
	"operatingExpenses.administrative": func(is *reshape.IncomeSnapshot) float64 { return is.OperatingExpenses.Administrative },
	"operatingExpenses.other":          func(is *reshape.IncomeSnapshot) float64 { return is.OperatingExpenses.Other },
	"operatingExpenses.otherIncome":    func(is *reshape.IncomeSnapshot) float64 { return is.OperatingExpenses.OtherIncome },
	"operatingExpenses.total":          func(is *reshape.IncomeSnapshot) float64 { return is.OperatingExpenses.Total },
	"depreciationAmortization.value":   func(is *reshape.IncomeSnapshot) float64 { return is.DepreciationAmortization },
	"ebitda.value":                     func(is *reshape.IncomeSnapshot) float64 { return is.EBITDA },
	"operatingProfit.value":            func(is *reshape.IncomeSnapshot) float64 { return is.OperatingProfit },
	"financial.income":                 func(is *reshape.IncomeSnapshot) float64 { return is.Financial.Income },
	"financial.expenses":               func(is *reshape.IncomeSnapshot) float64 { return is.Financial.Expenses },
	"financial.net":                    func(is *reshape.IncomeSnapshot) float64 { return is.Financial.Net },
	"profitBeforeTax.value":            func(is *reshape.IncomeSnapshot) float64 { return is.ProfitBeforeTax },
	"incomeTax.value":                  func(is *reshape.IncomeSnapshot) float64 { return is.IncomeTax },
	"netProfit.value":                  func(is *reshape.IncomeSnapshot) float64 { return is.NetProfit },
	"costStructure.variable":           func(is *reshape.IncomeSnapshot) float64 { return is.CostStructure.Variable },
	"costStructure.fixed":              func(is *reshape.IncomeSnapshot) float64 { return is.CostStructure.Fixed },
	"costStructure.contributionMargin": func(is *reshape.IncomeSnapshot) float64 { return is.CostStructure.ContributionMargin },
}

// Lookup resolves a value from an income snapshot. The dotted path is tried
// first; when it is not a known path, the leading segment is looked up as a
// direct flat key ("netProfit.value" then "netProfit"). A nil or empty
// snapshot, or an unknown key, is absent.
func Lookup(is *reshape.IncomeSnapshot, path string) Value {
	if is == nil || !is.Provided {
		return Absent()
	}
	if get, ok := incomePaths[path]; ok {
		return Some(get(is))
	}

	key := path
	if i := strings.IndexByte(path, '.'); i >= 0 {
		key = path[:i]
	}
	if v, ok := is.Flatten()[key]; ok {
		return Some(v)
	}
	return Absent()
}
