package types

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Value is a bag of asset quantities keyed by unit. Quantities are integers
// in the unit's smallest denomination. A Value never stores zero entries;
// arithmetic methods return fresh maps and leave the receiver untouched.
type Value map[Unit]int64

// Of returns a Value holding qty of u.
func Of(u Unit, qty int64) Value {
	if qty == 0 {
		return Value{}
	}
	return Value{u: qty}
}

// Get returns the quantity of u (zero when absent).
func (v Value) Get(u Unit) int64 { return v[u] }

// Clone returns a copy of v.
func (v Value) Clone() Value {
	out := make(Value, len(v))
	for u, q := range v {
		if q != 0 {
			out[u] = q
		}
	}
	return out
}

// Add returns v + other.
func (v Value) Add(other Value) Value {
	out := v.Clone()
	for u, q := range other {
		out[u] += q
		if out[u] == 0 {
			delete(out, u)
		}
	}
	return out
}

// Subtract returns v - other. The result may hold negative quantities;
// check with HasNegative.
func (v Value) Subtract(other Value) Value {
	out := v.Clone()
	for u, q := range other {
		out[u] -= q
		if out[u] == 0 {
			delete(out, u)
		}
	}
	return out
}

// Multiply scales every quantity by n. It fails instead of wrapping on
// overflow.
func (v Value) Multiply(n int64) (Value, error) {
	out := make(Value, len(v))
	for u, q := range v {
		p, ok := MulInt64(q, n)
		if !ok {
			return nil, fmt.Errorf("types: %s: %d * %d overflows", u, q, n)
		}
		if p != 0 {
			out[u] = p
		}
	}
	return out, nil
}

// IsZero reports whether v holds nothing.
func (v Value) IsZero() bool {
	for _, q := range v {
		if q != 0 {
			return false
		}
	}
	return true
}

// HasNegative reports whether any quantity is below zero.
func (v Value) HasNegative() bool {
	for _, q := range v {
		if q < 0 {
			return true
		}
	}
	return false
}

// Covers reports whether v holds at least other for every unit.
func (v Value) Covers(other Value) bool {
	for u, q := range other {
		if v[u] < q {
			return false
		}
	}
	return true
}

// Equal reports whether both values hold the same quantities.
func (v Value) Equal(other Value) bool {
	return v.Subtract(other).IsZero()
}

// Units returns the units in v, sorted.
func (v Value) Units() []Unit {
	units := make([]Unit, 0, len(v))
	for u, q := range v {
		if q != 0 {
			units = append(units, u)
		}
	}
	slices.Sort(units)
	return units
}

// String renders v as "unit:qty" pairs in unit order.
func (v Value) String() string {
	parts := make([]string, 0, len(v))
	for _, u := range v.Units() {
		parts = append(parts, fmt.Sprintf("%s:%d", u, v[u]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Sum adds up values.
func Sum(values ...Value) Value {
	out := Value{}
	for _, v := range values {
		out = out.Add(v)
	}
	return out
}

// MulInt64 multiplies a and b, reporting false on overflow.
func MulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}
