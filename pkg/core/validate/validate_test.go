package validate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// BALANCE SHEET VALIDATION TESTS
// =============================================================================

func TestCheckBalanceEquation(t *testing.T) {
	check := CheckBalanceEquation("p4", 100, 60, 40, DefaultTolerance)
	assert.True(t, check.IsBalanced)
	assert.Empty(t, check.Warning())

	// rounding noise within tolerance
	check = CheckBalanceEquation("p4", 100, 60, 39.995, DefaultTolerance)
	assert.True(t, check.IsBalanced)

	check = CheckBalanceEquation("p2", 100, 60, 30, DefaultTolerance)
	assert.False(t, check.IsBalanced)
	assert.Equal(t, 10.0, check.Difference)
	assert.Contains(t, check.Warning(), "p2")
}

func TestCheckEquityRollForward(t *testing.T) {
	tests := []struct {
		name   string
		prior  float64
		cur    float64
		profit float64
		linked bool
	}{
		{"retained in full", 1000, 1100, 100, true},
		{"within tolerance", 1000, 1104, 100, true},
		{"dividend paid", 1000, 1050, 100, false},
		{"no profit no change", 1000, 1000, 0, true},
		{"no profit but capital increase", 1000, 1500, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := CheckEquityRollForward("p4", tt.prior, tt.cur, tt.profit, 5)
			assert.Equal(t, tt.linked, link.IsLinked, "diff %.2f", link.Difference)
		})
	}
}

// =============================================================================
// ERROR TAXONOMY TESTS
// =============================================================================

func TestValidationErrorCollectsFields(t *testing.T) {
	verr := &ValidationError{}
	require.NoError(t, verr.OrNil())

	verr.Add("cadastral", "taxId", "is required")
	verr.Add("debt[2]", "balance", "is required")

	err := verr.OrNil()
	var target *ValidationError
	require.ErrorAs(t, fmt.Errorf("gate: %w", err), &target)
	assert.Len(t, target.Fields, 2)
	assert.Contains(t, err.Error(), "debt[2].balance: is required")
}

func TestConfigurationAndComputationErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")

	cfg := &ConfigurationError{Source: "thresholds.yaml", Reason: "malformed", Err: cause}
	assert.ErrorIs(t, cfg, cause)

	comp := &ComputationError{Stage: "scoring", Reason: "expected a list", Err: cause}
	assert.ErrorIs(t, comp, cause)
	assert.Regexp(t, "^stage scoring", comp.Error())
}

func TestStruct(t *testing.T) {
	type record struct {
		Name  string  `validate:"required"`
		Count int     `validate:"min=1"`
		Ratio float64 `validate:"gte=0"`
	}

	assert.Nil(t, Struct("r", record{Name: "a", Count: 1}))

	verr := Struct("r", record{Ratio: -1})
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 3)
	for _, f := range verr.Fields {
		assert.Equal(t, "r", f.Record, f.String())
	}
}
