package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit_analysis/pkg/core/calc"
)

func TestDefaultRules(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	assert.Len(t, set.Indicators, 34)
	assert.InDelta(t, 100, set.Scoring.TotalWeight(), 1e-9)

	names := []string{}
	for _, c := range set.Scoring.Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"cadastral", "financialTrend", "paymentCapacity", "indebtedness", "guarantees"}, names)

	_, ok := set.Threshold("breakEvenPoint")
	assert.False(t, ok, "break-even is an amount and has no threshold")
}

func TestDefaultsCoverCatalog(t *testing.T) {
	set := MustDefault()

	for _, ind := range calc.Catalog() {
		def, ok := set.Indicator(ind.Name)
		if assert.True(t, ok, "missing definition for %s", ind.Name) {
			assert.Equal(t, ind.Category, def.Category, ind.Name)
			assert.NotEmpty(t, def.Label, ind.Name)
		}
	}
	for name := range set.Thresholds {
		_, ok := calc.Find(name)
		assert.True(t, ok, "threshold for unknown indicator %s", name)
	}
}

func TestEveryDefaultSubCriterionBottomsOutAtZero(t *testing.T) {
	set := MustDefault()
	for _, c := range set.Scoring.Categories {
		for _, sub := range c.SubCriteria {
			assert.Zero(t, sub.LowestTier().Fraction, "%s.%s", c.Name, sub.Name)
		}
	}
}

func TestValidateRejectsRaisedBottomTiers(t *testing.T) {
	set := MustDefault()
	for ci := range set.Scoring.Categories {
		for si := range set.Scoring.Categories[ci].SubCriteria {
			tiers := set.Scoring.Categories[ci].SubCriteria[si].Tiers
			for ti := range tiers {
				if tiers[ti].Fraction == 0 {
					tiers[ti].Fraction = 0.4
				}
			}
		}
	}

	err := set.Validate()
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestRatingBands(t *testing.T) {
	sc := MustDefault().Scoring

	tests := []struct {
		score float64
		want  string
	}{
		{100, "AAA"},
		{90, "AAA"},
		{89.99, "AA"},
		{70, "A"},
		{30, "C"},
		{29.99, "D"},
		{0, "D"},
		{-5, "D"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sc.Rating(tt.score).Rating, "score %.2f", tt.score)
	}
}

func TestBandContainsIsInclusive(t *testing.T) {
	lo, hi := 2.0, 8.0
	b := &Band{Min: &lo, Max: &hi}
	assert.True(t, b.Contains(2))
	assert.True(t, b.Contains(8))
	assert.False(t, b.Contains(8.0001))
	assert.False(t, (&Band{}).Contains(1), "an unbounded band never matches")
	assert.False(t, (*Band)(nil).Contains(1))
}

func TestScoreTierIsHalfOpen(t *testing.T) {
	lo, hi := 1.0, 3.0
	tier := ScoreTier{Min: &lo, Max: &hi}
	assert.True(t, tier.Matches(1))
	assert.False(t, tier.Matches(3))
	assert.True(t, ScoreTier{}.Matches(-1e9))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFromDirectoryOverridesTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "thresholds.hjson", `
{
  # only one indicator is classified
  currentLiquidity: {
    good: { min: 2, glyph: "+" }
    critical: { max: 1, glyph: "-" }
  }
}`)

	set, err := LoadFromDirectory(dir, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, set.Thresholds, 1)
	th, ok := set.Threshold("currentLiquidity")
	require.True(t, ok)
	require.NotNil(t, th.Good.Min)
	assert.Equal(t, 2.0, *th.Good.Min)
	assert.Nil(t, th.Attention)

	// untouched tables keep the built-in content
	assert.Len(t, set.Indicators, 34)
}

func TestLoadFromDirectoryErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadFromDirectory(filepath.Join(t.TempDir(), "nope"), zerolog.Nop())
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "indicators.yaml", "currentLiquidity: [unclosed")
		_, err := LoadFromDirectory(dir, zerolog.Nop())
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("empty table", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "thresholds.yaml", "{}")
		_, err := LoadFromDirectory(dir, zerolog.Nop())
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("weights do not sum to 100", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "scoring.yaml", `
categories:
  only:
    weight: 50
    subCriteria:
      - {name: a, weight: 50, signal: indicator.netMargin, tiers: [{label: any, fraction: 1}]}
ratings:
  - {rating: D, min: 0}
`)
		_, err := LoadFromDirectory(dir, zerolog.Nop())
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
		assert.Contains(t, err.Error(), "want 100")
	})

	t.Run("unknown signal namespace", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "scoring.yaml", `
categories:
  only:
    weight: 100
    subCriteria:
      - {name: a, weight: 100, signal: bureau.score, tiers: [{label: any, fraction: 1}]}
ratings:
  - {rating: D, min: 0}
`)
		_, err := LoadFromDirectory(dir, zerolog.Nop())
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("lowest tier above zero", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "scoring.yaml", `
categories:
  only:
    weight: 100
    subCriteria:
      - name: a
        weight: 100
        signal: indicator.netMargin
        tiers:
          - {label: high, min: 5, fraction: 1}
          - {label: low, max: 5, fraction: 0.4}
ratings:
  - {rating: D, min: 0}
`)
		_, err := LoadFromDirectory(dir, zerolog.Nop())
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
		assert.Contains(t, err.Error(), "lowest tier fraction 0.40")
	})

	t.Run("highest tier below one", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "scoring.yaml", `
categories:
  only:
    weight: 100
    subCriteria:
      - name: a
        weight: 100
        signal: indicator.netMargin
        tiers:
          - {label: high, min: 5, fraction: 0.8}
          - {label: low, max: 5, fraction: 0}
ratings:
  - {rating: D, min: 0}
`)
		_, err := LoadFromDirectory(dir, zerolog.Nop())
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
		assert.Contains(t, err.Error(), "highest tier fraction 0.80")
	})

	t.Run("inverted band", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "thresholds.yaml", "netMargin: {good: {min: 10, max: 5, glyph: x}}")
		_, err := LoadFromDirectory(dir, zerolog.Nop())
		assert.True(t, IsConfigurationError(err))
	})
}

func TestSplitSignal(t *testing.T) {
	ns, field, ok := SplitSignal("workingCapital.treasuryBalance")
	assert.True(t, ok)
	assert.Equal(t, "workingCapital", ns)
	assert.Equal(t, "treasuryBalance", field)

	_, _, ok = SplitSignal("indicator.")
	assert.False(t, ok)
}
