// Package rules holds the declarative tables every calculator is configured
// with: indicator definitions, classification thresholds, scoring criteria
// and rating bands. A Set is built once and passed to the components that
// need it; nothing in this package is global.
package rules

import (
	"sort"
)

// IndicatorDefinition is the static description of one indicator.
type IndicatorDefinition struct {
	Name     string `yaml:"-" json:"name"`
	Label    string `yaml:"label" json:"label"`
	Category string `yaml:"category" json:"category"`
	Percent  bool   `yaml:"percent" json:"percent"`
}

// Band is one classification tier range. Both bounds are inclusive; a nil
// bound is open.
type Band struct {
	Min         *float64 `yaml:"min" json:"min,omitempty"`
	Max         *float64 `yaml:"max" json:"max,omitempty"`
	Glyph       string   `yaml:"glyph" json:"glyph"`
	Description string   `yaml:"description" json:"description,omitempty"`
}

// Contains reports whether v lies within the band, bounds inclusive.
func (b *Band) Contains(v float64) bool {
	if b == nil || (b.Min == nil && b.Max == nil) {
		return false
	}
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// ThresholdDefinition holds up to three tiers for one indicator.
type ThresholdDefinition struct {
	Good      *Band `yaml:"good" json:"good,omitempty"`
	Attention *Band `yaml:"attention" json:"attention,omitempty"`
	Critical  *Band `yaml:"critical" json:"critical,omitempty"`
}

// ScoreTier maps a signal range [Min, Max) to a fraction of the
// sub-criterion's points.
type ScoreTier struct {
	Label    string   `yaml:"label" json:"label"`
	Min      *float64 `yaml:"min" json:"min,omitempty"`
	Max      *float64 `yaml:"max" json:"max,omitempty"`
	Fraction float64  `yaml:"fraction" json:"fraction"`
}

// Matches reports whether v lies in [Min, Max).
func (t ScoreTier) Matches(v float64) bool {
	if t.Min != nil && v < *t.Min {
		return false
	}
	if t.Max != nil && v >= *t.Max {
		return false
	}
	return true
}

// SubCriterion is a weighted, tiered component of a scoring category.
type SubCriterion struct {
	Name   string      `yaml:"name" json:"name"`
	Label  string      `yaml:"label" json:"label"`
	Weight float64     `yaml:"weight" json:"weight"`
	Signal string      `yaml:"signal" json:"signal"`
	Tiers  []ScoreTier `yaml:"tiers" json:"tiers"`
}

// LowestTier returns the tier with the smallest fraction, used when the
// signal is absent or matches no tier.
func (s SubCriterion) LowestTier() ScoreTier {
	lowest := s.Tiers[0]
	for _, t := range s.Tiers[1:] {
		if t.Fraction < lowest.Fraction {
			lowest = t
		}
	}
	return lowest
}

// ScoringCategory is a weighted group of sub-criteria.
type ScoringCategory struct {
	Name        string         `yaml:"-" json:"name"`
	Label       string         `yaml:"label" json:"label"`
	Order       int            `yaml:"order" json:"order"`
	Weight      float64        `yaml:"weight" json:"weight"`
	SubCriteria []SubCriterion `yaml:"subCriteria" json:"subCriteria"`
}

// RatingBand maps scores at or above Min to Rating.
type RatingBand struct {
	Rating      string  `yaml:"rating" json:"rating"`
	Min         float64 `yaml:"min" json:"min"`
	Description string  `yaml:"description" json:"description,omitempty"`
}

// Scoring is the scoring table: ordered categories plus rating bands.
type Scoring struct {
	Categories []ScoringCategory `json:"categories"`
	Ratings    []RatingBand      `json:"ratings"`
}

// Set is the full configuration handed to the classifier, the scoring
// engine and the orchestrator.
type Set struct {
	Indicators map[string]IndicatorDefinition `json:"indicators"`
	Thresholds map[string]ThresholdDefinition `json:"thresholds"`
	Scoring    Scoring                        `json:"scoring"`
}

// Indicator returns the definition for name.
func (s *Set) Indicator(name string) (IndicatorDefinition, bool) {
	if s == nil {
		return IndicatorDefinition{}, false
	}
	d, ok := s.Indicators[name]
	return d, ok
}

// Threshold returns the threshold definition for name.
func (s *Set) Threshold(name string) (ThresholdDefinition, bool) {
	if s == nil {
		return ThresholdDefinition{}, false
	}
	t, ok := s.Thresholds[name]
	return t, ok
}

// Rating resolves the band for a total score. Bands are scanned from the
// highest Min down; the lower bound is inclusive.
func (sc Scoring) Rating(total float64) RatingBand {
	for _, b := range sc.Ratings {
		if total >= b.Min {
			return b
		}
	}
	if n := len(sc.Ratings); n > 0 {
		return sc.Ratings[n-1]
	}
	return RatingBand{}
}

// TotalWeight sums the category weights.
func (sc Scoring) TotalWeight() float64 {
	var w float64
	for _, c := range sc.Categories {
		w += c.Weight
	}
	return w
}

func sortCategories(cats []ScoringCategory) {
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		return cats[i].Name < cats[j].Name
	})
}

func sortRatings(bands []RatingBand) {
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].Min > bands[j].Min })
}
