// Package classify maps computed indicator values onto the configured
// threshold tiers and packages them for presentation.
package classify

import (
	"github.com/shopspring/decimal"

	"credit_analysis/pkg/core/calc"
	"credit_analysis/pkg/core/rules"
)

// Tier is the classification outcome of one indicator.
type Tier string

const (
	TierGood         Tier = "good"
	TierAttention    Tier = "attention"
	TierCritical     Tier = "critical"
	TierUnclassified Tier = "unclassified"
	TierNoData       Tier = "noData"
)

// Glyphs used when no configured band supplies one.
const (
	GlyphNeutral = "⚪"
	GlyphNoData  = "—"
)

// PresentationDecimals is the rounding applied when packaging a value.
const PresentationDecimals = 2

// IndicatorResult is one classified indicator, produced fresh per run.
type IndicatorResult struct {
	Name        string     `json:"name"`
	Label       string     `json:"label"`
	Category    string     `json:"category"`
	Value       calc.Value `json:"value"`
	Tier        Tier       `json:"tier"`
	Glyph       string     `json:"glyph"`
	Description string     `json:"description,omitempty"`
	Percent     bool       `json:"percent"`

	// Raw is the unrounded value the tier was decided on.
	Raw calc.Value `json:"-"`
}

// Exact returns the unrounded value, falling back to Value for results
// built without one.
func (r IndicatorResult) Exact() calc.Value {
	if r.Raw.Valid {
		return r.Raw
	}
	return r.Value
}

// Classifier resolves tiers against one rule set.
type Classifier struct {
	rules *rules.Set
}

// New returns a classifier bound to set. A nil set classifies everything as
// Unclassified.
func New(set *rules.Set) *Classifier {
	return &Classifier{rules: set}
}

// Classify resolves the tier of a raw value. The tier is decided on the
// unrounded value; rounding only affects the packaged Value.
func (c *Classifier) Classify(name string, v calc.Value) IndicatorResult {
	def, _ := c.rules.Indicator(name)

	res := IndicatorResult{
		Name:     name,
		Label:    def.Label,
		Category: def.Category,
		Value:    round(v),
		Percent:  def.Percent,
		Raw:      v,
	}
	if res.Label == "" {
		res.Label = name
	}

	if !v.Valid {
		res.Tier = TierNoData
		res.Glyph = GlyphNoData
		return res
	}

	th, ok := c.rules.Threshold(name)
	if !ok {
		res.Tier = TierUnclassified
		res.Glyph = GlyphNeutral
		return res
	}

	tier, band := evaluate(th, v.V)
	res.Tier = tier
	res.Glyph = GlyphNeutral
	if band != nil {
		if band.Glyph != "" {
			res.Glyph = band.Glyph
		}
		res.Description = band.Description
	}
	return res
}

// evaluate tests Good, then Critical, and defaults to Attention. The order
// is fixed: asymmetric configurations rely on Good being tested first.
func evaluate(th rules.ThresholdDefinition, v float64) (Tier, *rules.Band) {
	if th.Good.Contains(v) {
		return TierGood, th.Good
	}
	if th.Critical.Contains(v) {
		return TierCritical, th.Critical
	}
	return TierAttention, th.Attention
}

func round(v calc.Value) calc.Value {
	if !v.Valid {
		return v
	}
	return calc.Some(decimal.NewFromFloat(v.V).Round(PresentationDecimals).InexactFloat64())
}
