// Package calc is the ratio library: one pure function per credit indicator,
// returning an explicit absent value instead of NaN, Inf or a sentinel.
package calc

import (
	"encoding/json"
	"math"
)

// Value is a computed figure or the absent marker. The zero Value is absent.
type Value struct {
	V     float64
	Valid bool
}

// Absent returns the absent marker.
func Absent() Value { return Value{} }

// Some wraps a number. NaN and Inf are never valid results and map to absent.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{V: v, Valid: true}
}

// Get returns the number and whether it is present.
func (v Value) Get() (float64, bool) { return v.V, v.Valid }

// OrZero returns the number, or 0 when absent.
func (v Value) OrZero() float64 {
	if !v.Valid {
		return 0
	}
	return v.V
}

// Ptr returns a pointer to the number, nil when absent.
func (v Value) Ptr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.V
	return &f
}

// MarshalJSON encodes an absent value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

// UnmarshalJSON decodes null as absent.
func (v *Value) UnmarshalJSON(b []byte) error {
	var f *float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if f == nil {
		*v = Absent()
		return nil
	}
	*v = Some(*f)
	return nil
}

// =============================================================================
// ARITHMETIC
// Every operation propagates absence; division by exactly zero is absent.
// =============================================================================

// Ratio divides two plain numbers. A zero denominator is absent.
func Ratio(n, d float64) Value { return div(Some(n), Some(d)) }

// Percent is Ratio expressed in percent.
func Percent(n, d float64) Value { return pct(Some(n), Some(d)) }

// Change is the relative change from prev to cur in percent. The base is
// taken in absolute value so a move out of a negative base keeps its sign.
func Change(cur, prev float64) Value {
	return pct(Some(cur-prev), Some(math.Abs(prev)))
}

func div(n, d Value) Value {
	if !n.Valid || !d.Valid || d.V == 0 {
		return Absent()
	}
	return Some(n.V / d.V)
}

func pct(n, d Value) Value {
	return scale(div(n, d), 100)
}

func scale(v Value, k float64) Value {
	if !v.Valid {
		return v
	}
	return Some(v.V * k)
}

func add(a, b Value) Value {
	if !a.Valid || !b.Valid {
		return Absent()
	}
	return Some(a.V + b.V)
}

func sub(a, b Value) Value {
	if !a.Valid || !b.Valid {
		return Absent()
	}
	return Some(a.V - b.V)
}

func abs(v Value) Value {
	if !v.Valid {
		return v
	}
	return Some(math.Abs(v.V))
}
