package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"credit_analysis/pkg/core/rules"
	"credit_analysis/pkg/core/validate"
)

// Engine scores an Input against one scoring table.
type Engine struct {
	scoring rules.Scoring
	now     func() time.Time
	log     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for age-based signals.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine builds an engine from the scoring table of set.
func NewEngine(set *rules.Set, opts ...Option) *Engine {
	e := &Engine{
		scoring: set.Scoring,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("component", "scoring").Logger()
	return e
}

// Score computes the credit score. A missing cadastral object or statements
// object fails the whole computation: a score built on partial identity or
// financial data is never returned.
func (e *Engine) Score(in Input) (Result, error) {
	if err := checkRequired(in); err != nil {
		return Result{}, err
	}

	res := Result{Categories: make([]CategoryScore, 0, len(e.scoring.Categories))}
	total := decimal.Zero
	var fallbacks []string

	for _, cat := range e.scoring.Categories {
		cs := CategoryScore{
			Name:        cat.Name,
			Label:       cat.Label,
			Weight:      cat.Weight,
			SubCriteria: make([]SubCriterionScore, 0, len(cat.SubCriteria)),
		}
		points := decimal.Zero

		for _, sub := range cat.SubCriteria {
			ss := e.scoreSub(sub, in)
			if ss.Fallback {
				fallbacks = append(fallbacks, cat.Name+"."+sub.Name)
			}
			points = points.Add(decimal.NewFromFloat(ss.Points))
			cs.SubCriteria = append(cs.SubCriteria, ss)
		}

		points = clamp(points, decimal.Zero, decimal.NewFromFloat(cat.Weight))
		cs.Points = points.Round(2).InexactFloat64()
		total = total.Add(points)
		res.Categories = append(res.Categories, cs)
	}

	total = clamp(total, decimal.Zero, decimal.NewFromInt(100))
	res.Total = total.Round(2).InexactFloat64()

	band := e.scoring.Rating(res.Total)
	res.Rating = band.Rating
	res.RatingDescription = band.Description
	res.Reasoning = reasoning(res, fallbacks)

	e.log.Debug().
		Float64("total", res.Total).
		Str("rating", res.Rating).
		Int("fallbacks", len(fallbacks)).
		Msg("score computed")
	return res, nil
}

func checkRequired(in Input) error {
	verr := &validate.ValidationError{}
	if in.Cadastral == nil {
		verr.Add("input", "cadastral", "is required")
	} else {
		verr.Merge(validate.Struct("cadastral", in.Cadastral.Company))
	}
	if in.Statements == nil {
		verr.Add("input", "statements", "is required")
	} else if !in.Statements.HasData() {
		verr.Add("input", "statements", "no period carries data")
	}
	return verr.OrNil()
}

// scoreSub picks the first tier whose [min, max) holds the signal. An absent
// signal, or one matching no tier, gets the lowest-fraction tier.
func (e *Engine) scoreSub(sub rules.SubCriterion, in Input) SubCriterionScore {
	v := e.resolve(sub.Signal, in)
	ss := SubCriterionScore{
		Name:   sub.Name,
		Label:  sub.Label,
		Signal: sub.Signal,
		Value:  v,
		Weight: sub.Weight,
	}

	tier, matched := rules.ScoreTier{}, false
	if v.Valid {
		for _, t := range sub.Tiers {
			if t.Matches(v.V) {
				tier, matched = t, true
				break
			}
		}
	}
	if !matched {
		if len(sub.Tiers) > 0 {
			tier = sub.LowestTier()
		}
		ss.Fallback = true
	}

	ss.Tier = tier.Label
	ss.Fraction = tier.Fraction
	ss.Points = decimal.NewFromFloat(sub.Weight).Mul(decimal.NewFromFloat(tier.Fraction)).InexactFloat64()
	return ss
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

func reasoning(r Result, fallbacks []string) string {
	parts := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		parts = append(parts, fmt.Sprintf("%s=%.2f/%.0f", c.Name, c.Points, c.Weight))
	}
	s := fmt.Sprintf("Score=%.2f (%s): %s", r.Total, r.Rating, strings.Join(parts, " "))
	if len(fallbacks) > 0 {
		s += fmt.Sprintf("; lowest tier for missing signals: %s", strings.Join(fallbacks, ", "))
	}
	return s
}
