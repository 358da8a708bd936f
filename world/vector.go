package world

import (
	"fmt"
	"strings"
)

// Vector is an n-dimensional integer coordinate or direction. Every Vector
// that enters the world must have exactly as many components as the
// world's dimensionality; that invariant is enforced at the boundary
// (World.Normalize, organism placement, link-time coordinate emission),
// not inside Vector itself, so Vector stays a plain value type.
type Vector []int

// NewVector copies components into a fresh Vector.
func NewVector(components ...int) Vector {
	v := make(Vector, len(components))
	copy(v, components)
	return v
}

// Zero returns the n-dimensional origin.
func Zero(n int) Vector {
	return make(Vector, n)
}

// Dim returns the number of components.
func (v Vector) Dim() int {
	return len(v)
}

// Add returns the component-wise sum of v and o. Panics on dimension
// mismatch; callers validate dimensionality before reaching here.
func (v Vector) Add(o Vector) Vector {
	if len(v) != len(o) {
		panic(fmt.Sprintf("vector dimension mismatch: %d vs %d", len(v), len(o)))
	}
	out := make(Vector, len(v))
	for i := range v {
		out[i] = v[i] + o[i]
	}
	return out
}

// Scale multiplies every component by k.
func (v Vector) Scale(k int) Vector {
	out := make(Vector, len(v))
	for i := range v {
		out[i] = v[i] * k
	}
	return out
}

// Equal reports component-wise equality.
func (v Vector) Equal(o Vector) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// String renders a vector the way vector literals are written in source,
// e.g. "1|0|-1".
func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = fmt.Sprintf("%d", c)
	}
	return strings.Join(parts, "|")
}

// UnitVector returns a unit direction vector along axis, negative if
// negative is true. n is the world dimensionality.
func UnitVector(n, axis int, negative bool) Vector {
	v := Zero(n)
	step := 1
	if negative {
		step = -1
	}
	v[axis] = step
	return v
}
