package fixedmath

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when a result does not fit in uint64.
	ErrOverflow = errors.New("arithmetic overflow")
	// ErrDivisionByZero is returned when a divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// MulDiv returns floor(a*b/c). The product is computed at 256-bit width, so
// the only failure modes are a zero divisor and a quotient above uint64.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivisionByZero
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := product.Div(product, uint256.NewInt(c))
	if !quotient.IsUint64() {
		return 0, ErrOverflow
	}
	return quotient.Uint64(), nil
}

// SqrtMul returns floor(sqrt(a*b)). The root of a 128-bit product always
// fits in uint64, so the operation cannot fail.
func SqrtMul(a, b uint64) uint64 {
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return product.Sqrt(product).Uint64()
}

// Add returns a+b or ErrOverflow if the sum wraps.
func Add(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrOverflow if b exceeds a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}
