package postgres

import (
	"math"
	"testing"

	"hookswap/internal/model"
)

func TestToBigintRange(t *testing.T) {
	if got, err := toBigint(0); err != nil || got != 0 {
		t.Fatalf("toBigint(0) = %d, %v", got, err)
	}
	if got, err := toBigint(math.MaxInt64); err != nil || got != math.MaxInt64 {
		t.Fatalf("toBigint(MaxInt64) = %d, %v", got, err)
	}
	if _, err := toBigint(uint64(math.MaxInt64) + 1); err == nil {
		t.Fatalf("expected error above the signed range")
	}
	if _, err := toBigint(math.MaxUint64); err == nil {
		t.Fatalf("expected error for MaxUint64")
	}
}

func TestPoolArgsRejectsOutOfRangeReserves(t *testing.T) {
	pool := model.Pool{ReserveA: math.MaxUint64}
	if _, err := poolArgs(pool); err == nil {
		t.Fatalf("expected error for out-of-range reserve")
	}

	pool = model.Pool{ReserveA: 1000, ReserveB: 4000, LPSupply: 2000}
	args, err := poolArgs(pool)
	if err != nil {
		t.Fatalf("poolArgs: %v", err)
	}
	if len(args) != 10 {
		t.Fatalf("args count = %d, want 10", len(args))
	}
	if args[4].(int64) != 1000 || args[5].(int64) != 4000 || args[6].(int64) != 2000 {
		t.Fatalf("encoded reserves mismatch: %v", args[4:7])
	}
}
