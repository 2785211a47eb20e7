// Package scoring rolls classified indicators and cadastral facts into a
// weighted 0-100 credit score and maps it onto a letter rating.
package scoring

import (
	"credit_analysis/pkg/core/analysis"
	"credit_analysis/pkg/core/calc"
	"credit_analysis/pkg/core/classify"
	"credit_analysis/pkg/core/reshape"
)

// Input bundles every signal the engine may read. Cadastral and Statements
// are mandatory; the rest may be nil and degrade the sub-criteria that
// depend on them to their lowest tier.
type Input struct {
	Cadastral      *reshape.Profile
	Statements     *reshape.Statements
	Indicators     map[string]classify.IndicatorResult
	WorkingCapital *analysis.WorkingCapital
	Trend          *analysis.Trend
}

// SubCriterionScore is the contribution of one sub-criterion.
type SubCriterionScore struct {
	Name     string     `json:"name"`
	Label    string     `json:"label"`
	Signal   string     `json:"signal"`
	Value    calc.Value `json:"value"`
	Tier     string     `json:"tier"`
	Fraction float64    `json:"fraction"`
	Weight   float64    `json:"weight"`
	Points   float64    `json:"points"`
	// Fallback is set when the signal was absent or matched no tier.
	Fallback bool `json:"fallback"`
}

// CategoryScore is the point breakdown of one category.
type CategoryScore struct {
	Name        string              `json:"name"`
	Label       string              `json:"label"`
	Weight      float64             `json:"weight"`
	Points      float64             `json:"points"`
	SubCriteria []SubCriterionScore `json:"sub_criteria"`
}

// Result is the credit score of one run.
type Result struct {
	Total             float64         `json:"total"`
	Rating            string          `json:"rating"`
	RatingDescription string          `json:"rating_description,omitempty"`
	Categories        []CategoryScore `json:"categories"`
	Reasoning         string          `json:"reasoning"`
}

// Category returns the breakdown of a category by name.
func (r *Result) Category(name string) (CategoryScore, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryScore{}, false
}
