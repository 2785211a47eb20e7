package scoring

import (
	"time"

	"credit_analysis/pkg/core/calc"
	"credit_analysis/pkg/core/reshape"
	"credit_analysis/pkg/core/rules"
)

// resolve reads a "namespace.field" signal. Unknown fields are absent.
func (e *Engine) resolve(signal string, in Input) calc.Value {
	ns, field, ok := rules.SplitSignal(signal)
	if !ok {
		return calc.Absent()
	}

	switch ns {
	case rules.SignalIndicator:
		r, ok := in.Indicators[field]
		if !ok {
			return calc.Absent()
		}
		return r.Exact()
	case rules.SignalCadastral:
		return cadastralSignal(field, in.Cadastral, in.Statements, e.now())
	case rules.SignalGuarantee:
		return guaranteeSignal(field, in.Cadastral)
	case rules.SignalTrend:
		return in.Trend.Signal(field)
	case rules.SignalWorkingCapital:
		return in.WorkingCapital.Signal(field)
	}
	return calc.Absent()
}

func cadastralSignal(field string, p *reshape.Profile, s *reshape.Statements, now time.Time) calc.Value {
	if p == nil {
		return calc.Absent()
	}
	c := p.Compliance

	switch field {
	case "restrictions":
		return calc.Some(float64(c.Restrictions()))
	case "protests":
		return calc.Some(float64(c.Protests))
	case "lawsuits":
		return calc.Some(float64(c.Lawsuits))
	case "bankruptcyFilings":
		return calc.Some(float64(c.BankruptcyFilings))
	case "clearances":
		n := 0
		if c.TaxClearance {
			n++
		}
		if c.LaborClearance {
			n++
		}
		return calc.Some(float64(n))
	case "companyAge":
		if p.Company.FoundedYear <= 0 || p.Company.FoundedYear > now.Year() {
			return calc.Absent()
		}
		return calc.Some(float64(now.Year() - p.Company.FoundedYear))
	case "debtCount":
		return calc.Some(float64(len(p.Debts)))
	case "totalDebt":
		return calc.Some(p.TotalDebt())
	case "debtToRevenue":
		if s == nil {
			return calc.Absent()
		}
		l := s.Latest()
		if !l.Income.Provided {
			return calc.Absent()
		}
		return calc.Percent(p.TotalDebt(), l.Income.Revenue.Net)
	}
	return calc.Absent()
}

func guaranteeSignal(field string, p *reshape.Profile) calc.Value {
	if p == nil {
		return calc.Absent()
	}
	g := p.Guarantees
	opt := func(f *float64) calc.Value {
		if f == nil {
			return calc.Absent()
		}
		return calc.Some(*f)
	}

	switch field {
	case "coverage":
		if g.GuaranteeValue == nil || g.RequestedCredit == nil {
			return calc.Absent()
		}
		return calc.Percent(*g.GuaranteeValue, *g.RequestedCredit)
	case "value":
		return opt(g.GuaranteeValue)
	case "requestedCredit":
		return opt(g.RequestedCredit)
	case "relationshipYears":
		return opt(g.RelationshipYears)
	}
	return calc.Absent()
}
