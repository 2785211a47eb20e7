package validate

import (
	"fmt"
	"math"
)

// DefaultTolerance is the absolute gap accepted by the accounting checks.
const DefaultTolerance = 0.01

// =============================================================================
// BALANCE EQUATION
// =============================================================================

// BalanceCheck verifies Assets = Liabilities + Equity.
type BalanceCheck struct {
	Period           string  `json:"period"`
	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`
	TotalEquity      float64 `json:"total_equity"`
	ComputedAssets   float64 `json:"computed_assets"` // L + E
	Difference       float64 `json:"difference"`
	IsBalanced       bool    `json:"is_balanced"`
	Tolerance        float64 `json:"tolerance"`
}

// CheckBalanceEquation validates A = L + E within tolerance.
func CheckBalanceEquation(period string, assets, liabilities, equity, tolerance float64) *BalanceCheck {
	computed := liabilities + equity
	diff := assets - computed

	return &BalanceCheck{
		Period:           period,
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		TotalEquity:      equity,
		ComputedAssets:   computed,
		Difference:       diff,
		IsBalanced:       math.Abs(diff) <= tolerance,
		Tolerance:        tolerance,
	}
}

// Warning renders the check as a human-readable warning, empty when balanced.
func (c *BalanceCheck) Warning() string {
	if c == nil || c.IsBalanced {
		return ""
	}
	return fmt.Sprintf("balance sheet %s out of balance by %.2f", c.Period, c.Difference)
}

// =============================================================================
// EQUITY ROLL-FORWARD
// =============================================================================

// EquityLink validates: ΔEquity ≈ Net Profit between two consecutive periods.
// Capital increases and distributions break the link legitimately, so a
// failed link is a warning, never an error.
type EquityLink struct {
	Period        string  `json:"period"`
	NetProfit     float64 `json:"net_profit"`
	ActualChange  float64 `json:"actual_change"`
	Difference    float64 `json:"difference"`
	IsLinked      bool    `json:"is_linked"`
	TolerancePct  float64 `json:"tolerance_pct"`
	DifferencePct float64 `json:"difference_pct"`
}

// CheckEquityRollForward compares the equity movement with the period's net
// profit. tolerancePct is relative to the absolute net profit.
func CheckEquityRollForward(period string, priorEquity, currentEquity, netProfit, tolerancePct float64) *EquityLink {
	change := currentEquity - priorEquity
	diff := change - netProfit

	link := &EquityLink{
		Period:       period,
		NetProfit:    netProfit,
		ActualChange: change,
		Difference:   diff,
		TolerancePct: tolerancePct,
	}

	if netProfit == 0 {
		link.IsLinked = math.Abs(diff) <= DefaultTolerance
		return link
	}

	link.DifferencePct = math.Abs(diff) / math.Abs(netProfit) * 100
	link.IsLinked = link.DifferencePct <= tolerancePct
	return link
}
