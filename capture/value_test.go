package capture

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScalarConstructors(t *testing.T) {
	cases := []struct {
		v    Value
		kind Kind
		want float64
	}{
		{Float32Scalar(1.5), Float32, 1.5},
		{Float64Scalar(-2.25), Float64, -2.25},
		{Int32Scalar(7), Int32, 7},
	}
	for _, c := range cases {
		if c.v.Kind() != c.kind {
			t.Fatalf("kind = %v, want %v", c.v.Kind(), c.kind)
		}
		if c.v.Rank() != 0 {
			t.Fatalf("%v: rank = %d, want 0", c.kind, c.v.Rank())
		}
		if c.v.Len() != 1 {
			t.Fatalf("%v: len = %d, want 1", c.kind, c.v.Len())
		}
		if got := c.v.Floats()[0]; got != c.want {
			t.Fatalf("%v: value = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestArrayConstructorRankAndDims(t *testing.T) {
	v := Float32Array(make([]float32, 24), 2, 3, 4)
	if v.Rank() != 3 {
		t.Fatalf("rank = %d, want 3", v.Rank())
	}
	if diff := cmp.Diff([]int{2, 3, 4}, v.Dims()); diff != "" {
		t.Fatalf("dims mismatch (-want +got):\n%s", diff)
	}
	if v.Len() != 24 {
		t.Fatalf("len = %d, want 24", v.Len())
	}

	// Dims returns a copy.
	v.Dims()[0] = 99
	if v.Dims()[0] != 2 {
		t.Fatal("Dims exposed internal state")
	}
}

func TestFloatsWidening(t *testing.T) {
	v := Int32Array([]int32{-1, 0, 3}, 3)
	if diff := cmp.Diff([]float64{-1, 0, 3}, v.Floats()); diff != "" {
		t.Fatalf("widened payload mismatch (-want +got):\n%s", diff)
	}

	nan := Float32Array([]float32{float32(math.NaN())}, 1)
	if !math.IsNaN(nan.Floats()[0]) {
		t.Fatal("NaN lost in widening")
	}
}

func TestTypeString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Float64Scalar(0), "float64"},
		{Int32Scalar(0), "int32"},
		{Float32Array(make([]float32, 16), 4, 4), "float32[4,4]"},
		{Float64Array(make([]float64, 8), 2, 2, 2), "float64[2,2,2]"},
	}
	for _, c := range cases {
		if got := c.v.TypeString(); got != c.want {
			t.Fatalf("TypeString = %q, want %q", got, c.want)
		}
	}
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{Float32, Float64, Int32} {
		got, ok := KindOf(k.String())
		if !ok || got != k {
			t.Fatalf("KindOf(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := KindOf("complex128"); ok {
		t.Fatal("KindOf accepted an unknown name")
	}
}

func TestOfMapsNativeTypes(t *testing.T) {
	cases := []struct {
		in   any
		kind Kind
		rank int
	}{
		{float32(1), Float32, 0},
		{float64(1), Float64, 0},
		{int32(1), Int32, 0},
		{int(1), Int32, 0},
		{[]float32{1, 2}, Float32, 1},
		{[]float64{1, 2}, Float64, 1},
		{[]int32{1, 2}, Int32, 1},
	}
	for _, c := range cases {
		v, ok := Of(c.in)
		if !ok {
			t.Fatalf("Of(%T) rejected", c.in)
		}
		if v.Kind() != c.kind || v.Rank() != c.rank {
			t.Fatalf("Of(%T) = %v rank %d, want %v rank %d", c.in, v.Kind(), v.Rank(), c.kind, c.rank)
		}
	}
	if _, ok := Of("text"); ok {
		t.Fatal("Of accepted a string")
	}
}
