package capture

import (
	"fmt"
	"strconv"
	"strings"
)

// #region kinds

// Kind identifies the element type of a captured value.
type Kind uint8

const (
	Float32 Kind = iota // 32-bit IEEE float
	Float64             // 64-bit IEEE float
	Int32               // 32-bit signed integer
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// KindOf parses a kind name as produced by Kind.String.
func KindOf(s string) (Kind, bool) {
	switch s {
	case "float32":
		return Float32, true
	case "float64":
		return Float64, true
	case "int32":
		return Int32, true
	}
	return 0, false
}

// MaxRank is the highest array dimensionality the protocol carries.
const MaxRank = 4

// #endregion kinds

// #region value

// Value is a captured datum: one element kind, a rank from 0 (scalar)
// to MaxRank, and the elements in flat row-major order. Exactly one of
// the payload slices is populated, matching the kind tag.
type Value struct {
	kind Kind
	dims []int
	f32  []float32
	f64  []float64
	i32  []int32
}

// Float32Scalar wraps a single 32-bit float.
func Float32Scalar(x float32) Value {
	return Value{kind: Float32, f32: []float32{x}}
}

// Float64Scalar wraps a single 64-bit float.
func Float64Scalar(x float64) Value {
	return Value{kind: Float64, f64: []float64{x}}
}

// Int32Scalar wraps a single 32-bit integer.
func Int32Scalar(x int32) Value {
	return Value{kind: Int32, i32: []int32{x}}
}

// Float32Array wraps flat row-major data with the given dimensions.
// len(dims) is the rank; the product of dims must equal len(data).
func Float32Array(data []float32, dims ...int) Value {
	return Value{kind: Float32, dims: dims, f32: data}
}

// Float64Array wraps flat row-major data with the given dimensions.
func Float64Array(data []float64, dims ...int) Value {
	return Value{kind: Float64, dims: dims, f64: data}
}

// Int32Array wraps flat row-major data with the given dimensions.
func Int32Array(data []int32, dims ...int) Value {
	return Value{kind: Int32, dims: dims, i32: data}
}

// Of maps a native Go value to a Value: float32, float64, int32 and int
// become scalars, their slice forms become rank-1 arrays. The bool result
// is false for any other type.
func Of(x any) (Value, bool) {
	switch t := x.(type) {
	case float32:
		return Float32Scalar(t), true
	case float64:
		return Float64Scalar(t), true
	case int32:
		return Int32Scalar(t), true
	case int:
		return Int32Scalar(int32(t)), true
	case []float32:
		return Float32Array(t, len(t)), true
	case []float64:
		return Float64Array(t, len(t)), true
	case []int32:
		return Int32Array(t, len(t)), true
	}
	return Value{}, false
}

// #endregion value

// #region accessors

// Kind returns the element kind.
func (v Value) Kind() Kind { return v.kind }

// Rank returns 0 for scalars, 1..MaxRank for arrays.
func (v Value) Rank() int { return len(v.dims) }

// Dims returns a copy of the dimension extents; nil for scalars.
func (v Value) Dims() []int {
	if v.dims == nil {
		return nil
	}
	out := make([]int, len(v.dims))
	copy(out, v.dims)
	return out
}

// Len returns the number of elements.
func (v Value) Len() int {
	switch v.kind {
	case Float32:
		return len(v.f32)
	case Float64:
		return len(v.f64)
	case Int32:
		return len(v.i32)
	}
	return 0
}

// IsFloat reports whether the element kind is a floating-point kind.
func (v Value) IsFloat() bool { return v.kind == Float32 || v.kind == Float64 }

// Float32s returns the payload of a Float32 value; nil for other kinds.
func (v Value) Float32s() []float32 { return v.f32 }

// Float64s returns the payload of a Float64 value; nil for other kinds.
func (v Value) Float64s() []float64 { return v.f64 }

// Int32s returns the payload of an Int32 value; nil for other kinds.
func (v Value) Int32s() []int32 { return v.i32 }

// Floats returns every element widened to float64, in flat order.
func (v Value) Floats() []float64 {
	switch v.kind {
	case Float32:
		out := make([]float64, len(v.f32))
		for i, x := range v.f32 {
			out[i] = float64(x)
		}
		return out
	case Float64:
		out := make([]float64, len(v.f64))
		copy(out, v.f64)
		return out
	case Int32:
		out := make([]float64, len(v.i32))
		for i, x := range v.i32 {
			out[i] = float64(x)
		}
		return out
	}
	return nil
}

// TypeString renders the kind and shape, e.g. "float64" or "float32[4,4]".
func (v Value) TypeString() string {
	if len(v.dims) == 0 {
		return v.kind.String()
	}
	parts := make([]string, len(v.dims))
	for i, d := range v.dims {
		parts[i] = strconv.Itoa(d)
	}
	return v.kind.String() + "[" + strings.Join(parts, ",") + "]"
}

// #endregion accessors
