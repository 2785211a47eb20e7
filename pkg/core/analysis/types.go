package analysis

import (
	"credit_analysis/pkg/core/calc"
)

// Trend is the vertical/horizontal analysis over every period that carries
// data, plus growth of the headline lines from the prior to the latest period.
type Trend struct {
	Periods []PeriodAnalysis `json:"periods"`
	Growth  GrowthMetrics    `json:"growth"`
}

// PeriodAnalysis holds one period's common-size (vertical) and
// period-over-period (horizontal) figures, in percent.
type PeriodAnalysis struct {
	Period string `json:"period"`

	// Vertical: balance lines over total assets, income lines over net revenue.
	BalanceVertical map[string]calc.Value `json:"balance_vertical"`
	IncomeVertical  map[string]calc.Value `json:"income_vertical"`

	// Horizontal: change over the previous period with data. Absent on the
	// first period.
	BalanceHorizontal map[string]calc.Value `json:"balance_horizontal"`
	IncomeHorizontal  map[string]calc.Value `json:"income_horizontal"`
}

// GrowthMetrics captures latest-over-prior growth of key lines, in percent.
type GrowthMetrics struct {
	RevenueGrowth         calc.Value `json:"revenue_growth"`
	OperatingProfitGrowth calc.Value `json:"operating_profit_growth"`
	NetProfitGrowth       calc.Value `json:"net_profit_growth"`
	TotalAssetsGrowth     calc.Value `json:"total_assets_growth"`
	EquityGrowth          calc.Value `json:"equity_growth"`
}

// Signal resolves a `trend.<field>` scoring signal.
func (t *Trend) Signal(field string) calc.Value {
	if t == nil {
		return calc.Absent()
	}
	switch field {
	case "revenueGrowth":
		return t.Growth.RevenueGrowth
	case "operatingProfitGrowth":
		return t.Growth.OperatingProfitGrowth
	case "netProfitGrowth":
		return t.Growth.NetProfitGrowth
	case "totalAssetsGrowth":
		return t.Growth.TotalAssetsGrowth
	case "equityGrowth":
		return t.Growth.EquityGrowth
	}
	return calc.Absent()
}

// Structure is the Fleuriet classification of the working-capital dynamics.
type Structure int

const (
	StructureUnknown        Structure = iota
	StructureExcellent                // I:   WC+, NCG-, T+
	StructureSolid                    // II:  WC+, NCG+, T+
	StructureUnsatisfactory           // III: WC+, NCG+, T-
	StructureHighRisk                 // IV:  WC-, NCG-, T+
	StructureVeryPoor                 // V:   WC-, NCG-, T-
	StructurePoor                     // VI:  WC-, NCG+, T-
)

var structureNames = map[Structure]string{
	StructureUnknown:        "unknown",
	StructureExcellent:      "excellent",
	StructureSolid:          "solid",
	StructureUnsatisfactory: "unsatisfactory",
	StructureHighRisk:       "high risk",
	StructureVeryPoor:       "very poor",
	StructurePoor:           "poor",
}

func (s Structure) String() string { return structureNames[s] }

// WorkingCapital is the dynamic working-capital analysis of the latest
// balance sheet.
type WorkingCapital struct {
	Period string `json:"period"`

	// WorkingCapital = current assets - current liabilities.
	WorkingCapital float64 `json:"working_capital"`
	// NCG is the working-capital need of operations: net receivables plus
	// inventory, less suppliers, taxes and payroll.
	NCG float64 `json:"ncg"`
	// TreasuryBalance = WorkingCapital - NCG.
	TreasuryBalance float64 `json:"treasury_balance"`
	// NCGToRevenue is NCG over net revenue, in percent.
	NCGToRevenue calc.Value `json:"ncg_to_revenue"`
	// NCGDays expresses NCG in days of net revenue.
	NCGDays calc.Value `json:"ncg_days"`

	Structure     Structure `json:"structure"`
	StructureName string    `json:"structure_name"`
}

// Signal resolves a `workingCapital.<field>` scoring signal.
func (w *WorkingCapital) Signal(field string) calc.Value {
	if w == nil {
		return calc.Absent()
	}
	switch field {
	case "workingCapital":
		return calc.Some(w.WorkingCapital)
	case "ncg":
		return calc.Some(w.NCG)
	case "treasuryBalance":
		return calc.Some(w.TreasuryBalance)
	case "ncgToRevenue":
		return w.NCGToRevenue
	case "ncgDays":
		return w.NCGDays
	case "structure":
		if w.Structure == StructureUnknown {
			return calc.Absent()
		}
		return calc.Some(float64(w.Structure))
	}
	return calc.Absent()
}
