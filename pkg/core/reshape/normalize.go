package reshape

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount resolves a raw input value to a number using the tolerant
// policy: missing, empty or non-numeric values become zero.
func parseAmount(v any) float64 {
	f, _ := parseAmountStrict(v)
	return f
}

// parseAmountStrict resolves a raw input value and reports whether it held a
// usable number. Empty strings and nil are reported as not ok.
func parseAmountStrict(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return 0, false
		}
		f = d.InexactFloat64()
	case decimal.Decimal:
		f = t.InexactFloat64()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, false
		}
		f = d.InexactFloat64()
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseFlag resolves a raw input value to a boolean compliance flag.
func parseFlag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "sim", "s", "1":
			return true
		}
		return false
	default:
		f, ok := parseAmountStrict(v)
		return ok && f != 0
	}
}

// contra gives a contra account its natural negative sign. The result is
// meant to be ADDED to the account it reduces; a value already stored
// negative is kept as-is so it is never reduced twice.
func contra(v float64) float64 {
	if v > 0 {
		return -v
	}
	return v
}

// expense stores an expense or deduction line as a negative value so that
// subtotals are plain sums.
func expense(v float64) float64 {
	if v > 0 {
		return -v
	}
	return v
}

// magnitude is used for analytical memo figures (cost structure) that are
// expressed as positive amounts.
func magnitude(v float64) float64 {
	return math.Abs(v)
}
