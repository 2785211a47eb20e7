package classify

import (
	"credit_analysis/pkg/core/calc"
)

// KindResult is the packaged output of one calculation kind: indicator
// results grouped by category, with categories in first-seen order.
type KindResult struct {
	Kind   calc.Kind                    `json:"kind"`
	Groups map[string][]IndicatorResult `json:"groups"`
	Order  []string                     `json:"order"`
}

// Get returns the result for an indicator name.
func (k *KindResult) Get(name string) (IndicatorResult, bool) {
	if k == nil {
		return IndicatorResult{}, false
	}
	for _, cat := range k.Order {
		for _, r := range k.Groups[cat] {
			if r.Name == name {
				return r, true
			}
		}
	}
	return IndicatorResult{}, false
}

// Count returns the number of results per tier.
func (k *KindResult) Count() map[Tier]int {
	counts := map[Tier]int{}
	if k == nil {
		return counts
	}
	for _, rs := range k.Groups {
		for _, r := range rs {
			counts[r.Tier]++
		}
	}
	return counts
}

// ClassifyAll classifies the computed indicators of one kind. The category
// comes from the indicator definition, falling back to the catalog's.
func (c *Classifier) ClassifyAll(kind calc.Kind, computed []calc.Computed) KindResult {
	out := KindResult{Kind: kind, Groups: map[string][]IndicatorResult{}}
	for _, cv := range computed {
		r := c.Classify(cv.Indicator.Name, cv.Value)
		if r.Category == "" {
			r.Category = cv.Indicator.Category
		}
		if _, seen := out.Groups[r.Category]; !seen {
			out.Order = append(out.Order, r.Category)
		}
		out.Groups[r.Category] = append(out.Groups[r.Category], r)
	}
	return out
}

// Index flattens several kind results into name → result.
func Index(kinds ...*KindResult) map[string]IndicatorResult {
	idx := map[string]IndicatorResult{}
	for _, k := range kinds {
		if k == nil {
			continue
		}
		for _, rs := range k.Groups {
			for _, r := range rs {
				idx[r.Name] = r
			}
		}
	}
	return idx
}
