package fixedmath

import (
	"errors"
	"math"
	"testing"
)

func TestMulDiv(t *testing.T) {
	cases := []struct {
		name    string
		a, b, c uint64
		want    uint64
	}{
		{"exact", 1000, 4000, 2000, 2000},
		{"floor", 100, 9970, 10000, 99},
		{"wide intermediate", math.MaxUint64, math.MaxUint64, math.MaxUint64, math.MaxUint64},
		{"zero numerator", 0, 123, 7, 0},
	}

	for _, tc := range cases {
		got, err := MulDiv(tc.a, tc.b, tc.c)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: MulDiv(%d,%d,%d) = %d, want %d", tc.name, tc.a, tc.b, tc.c, got, tc.want)
		}
	}
}

func TestMulDivDivisionByZero(t *testing.T) {
	if _, err := MulDiv(1, 1, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestMulDivOverflow(t *testing.T) {
	if _, err := MulDiv(math.MaxUint64, math.MaxUint64, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if _, err := MulDiv(math.MaxUint64, 2, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestSqrtMul(t *testing.T) {
	cases := []struct {
		a, b, want uint64
	}{
		{1000, 4000, 2000},
		{1, 1, 1},
		{0, 5, 0},
		{2, 3, 2},
		{math.MaxUint64, math.MaxUint64, math.MaxUint64},
	}

	for _, tc := range cases {
		if got := SqrtMul(tc.a, tc.b); got != tc.want {
			t.Fatalf("SqrtMul(%d,%d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSqrtMulIsFloor(t *testing.T) {
	// 10*10-1 = 99, sqrt is 9.94..., floor 9.
	if got := SqrtMul(99, 1); got != 9 {
		t.Fatalf("SqrtMul(99,1) = %d, want 9", got)
	}
}

func TestAddSub(t *testing.T) {
	sum, err := Add(40, 2)
	if err != nil || sum != 42 {
		t.Fatalf("Add(40,2) = %d, %v", sum, err)
	}
	if _, err := Add(math.MaxUint64, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}

	diff, err := Sub(42, 2)
	if err != nil || diff != 40 {
		t.Fatalf("Sub(42,2) = %d, %v", diff, err)
	}
	if _, err := Sub(1, 2); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}
