package rules

import (
	"fmt"
	"math"
	"strings"

	"credit_analysis/pkg/core/validate"
)

// Signal namespaces a sub-criterion may read from.
const (
	SignalIndicator      = "indicator"
	SignalCadastral      = "cadastral"
	SignalTrend          = "trend"
	SignalWorkingCapital = "workingCapital"
	SignalGuarantee      = "guarantee"
)

var signalNamespaces = map[string]bool{
	SignalIndicator:      true,
	SignalCadastral:      true,
	SignalTrend:          true,
	SignalWorkingCapital: true,
	SignalGuarantee:      true,
}

// SplitSignal splits "namespace.field".
func SplitSignal(signal string) (namespace, field string, ok bool) {
	namespace, field, ok = strings.Cut(signal, ".")
	if !ok || namespace == "" || field == "" {
		return "", "", false
	}
	return namespace, field, true
}

const weightEpsilon = 1e-6

// Validate checks the structural soundness of the set. Threshold tiers are
// not checked for overlap: a value matching neither Good nor Critical falls
// through to Attention by classifier contract.
func (s *Set) Validate() error {
	if len(s.Indicators) == 0 {
		return &validate.ConfigurationError{Source: TableIndicators, Reason: "table is empty"}
	}
	for name, d := range s.Indicators {
		if d.Category == "" {
			return &validate.ConfigurationError{Source: TableIndicators, Reason: fmt.Sprintf("%s: category is required", name)}
		}
	}

	if len(s.Thresholds) == 0 {
		return &validate.ConfigurationError{Source: TableThresholds, Reason: "table is empty"}
	}
	for name, t := range s.Thresholds {
		for tier, b := range map[string]*Band{"good": t.Good, "attention": t.Attention, "critical": t.Critical} {
			if b != nil && b.Min != nil && b.Max != nil && *b.Min > *b.Max {
				return &validate.ConfigurationError{
					Source: TableThresholds,
					Reason: fmt.Sprintf("%s.%s: min %.4g above max %.4g", name, tier, *b.Min, *b.Max),
				}
			}
		}
	}

	return s.Scoring.validate()
}

func (sc Scoring) validate() error {
	fail := func(format string, args ...any) error {
		return &validate.ConfigurationError{Source: TableScoring, Reason: fmt.Sprintf(format, args...)}
	}

	if len(sc.Categories) == 0 {
		return fail("no categories")
	}
	if total := sc.TotalWeight(); math.Abs(total-100) > weightEpsilon {
		return fail("category weights sum to %.2f, want 100", total)
	}

	for _, c := range sc.Categories {
		if len(c.SubCriteria) == 0 {
			return fail("%s: no sub-criteria", c.Name)
		}
		var sum float64
		for _, sub := range c.SubCriteria {
			sum += sub.Weight
			if sub.Weight < 0 {
				return fail("%s.%s: negative weight", c.Name, sub.Name)
			}
			ns, _, ok := SplitSignal(sub.Signal)
			if !ok || !signalNamespaces[ns] {
				return fail("%s.%s: unknown signal %q", c.Name, sub.Name, sub.Signal)
			}
			if len(sub.Tiers) == 0 {
				return fail("%s.%s: no tiers", c.Name, sub.Name)
			}
			lo, hi := 1.0, 0.0
			for _, t := range sub.Tiers {
				if t.Fraction < 0 || t.Fraction > 1 {
					return fail("%s.%s.%s: fraction %.2f outside [0,1]", c.Name, sub.Name, t.Label, t.Fraction)
				}
				lo = math.Min(lo, t.Fraction)
				hi = math.Max(hi, t.Fraction)
			}
			// the total must reach 0 at the bottom tiers and 100 at the top ones
			if lo > 0 {
				return fail("%s.%s: lowest tier fraction %.2f, want 0", c.Name, sub.Name, lo)
			}
			if hi < 1 {
				return fail("%s.%s: highest tier fraction %.2f, want 1", c.Name, sub.Name, hi)
			}
		}
		if math.Abs(sum-c.Weight) > weightEpsilon {
			return fail("%s: sub-criteria weights sum to %.2f, want %.2f", c.Name, sum, c.Weight)
		}
	}

	if len(sc.Ratings) == 0 {
		return fail("no rating bands")
	}
	if floor := sc.Ratings[len(sc.Ratings)-1].Min; floor > 0 {
		return fail("lowest rating band starts at %.2f; scores below it have no rating", floor)
	}
	return nil
}
