package amm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"

	"hookswap/internal/model"
	"hookswap/internal/token"
)

// seededHookedPool creates the hooked pool, whitelists its hook, and funds it
// with the given reserves before any rejecting hook is installed.
func seededHookedPool(t *testing.T, env *testEnv, amountA, amountB uint64) (model.Pool, uint64) {
	t.Helper()
	ctx := context.Background()

	pool := hookedPool(t, env)
	if _, err := env.engine.InitWhitelist(ctx, admin); err != nil {
		t.Fatalf("init whitelist: %v", err)
	}
	if err := env.engine.WhitelistHook(ctx, admin, hookProg); err != nil {
		t.Fatalf("whitelist hook: %v", err)
	}
	minted, err := env.engine.AddLiquidity(ctx, alice, pool.Address, amountA, amountB)
	if err != nil {
		t.Fatalf("seed deposit: %v", err)
	}
	return pool, minted
}

// assertConsistent checks that the pool record agrees with the pool's actual
// asset holdings and that outstanding LP shares equal the recorded supply.
func assertConsistent(t *testing.T, env *testEnv, addr solana.PublicKey) model.Pool {
	t.Helper()

	got := env.poolState(t, addr)
	if bal := env.ledger.Balance(got.MintA, addr); bal != got.ReserveA {
		t.Fatalf("asset-a holdings %d != recorded reserve %d", bal, got.ReserveA)
	}
	if bal := env.ledger.Balance(got.MintB, addr); bal != got.ReserveB {
		t.Fatalf("asset-b holdings %d != recorded reserve %d", bal, got.ReserveB)
	}
	held := env.ledger.Balance(got.LPMint, alice) + env.ledger.Balance(got.LPMint, bob)
	if held != got.LPSupply {
		t.Fatalf("holder balances %d != lp supply %d", held, got.LPSupply)
	}
	return got
}

func TestFailedDepositRollsBack(t *testing.T) {
	env := newTestEnv(t, Config{})
	pool, _ := seededHookedPool(t, env, 1000, 4000)
	ctx := context.Background()

	// The hook rejects any transfer into the pool from now on.
	env.ledger.RegisterHook(hookProg, func(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error {
		if to.Equals(pool.Address) {
			return fmt.Errorf("deposits suspended")
		}
		return nil
	})

	_, err := env.engine.AddLiquidity(ctx, bob, pool.Address, 500, 2000)
	if !errors.Is(err, token.ErrHookRejected) {
		t.Fatalf("expected ErrHookRejected, got %v", err)
	}

	got := assertConsistent(t, env, pool.Address)
	if got.ReserveA != 1000 || got.ReserveB != 4000 || got.LPSupply != 2000 {
		t.Fatalf("pool record = %+v, want reserves 1000/4000 supply 2000", got)
	}
	for _, mint := range []solana.PublicKey{pool.MintA, pool.MintB} {
		if bal := env.ledger.Balance(mint, bob); bal != 1_000_000 {
			t.Fatalf("bob %s balance = %d, want 1000000", mint, bal)
		}
	}
	if bal := env.ledger.Balance(pool.LPMint, bob); bal != 0 {
		t.Fatalf("bob lp balance = %d, want 0", bal)
	}
}

func TestFailedSwapInputRollsBack(t *testing.T) {
	env := newTestEnv(t, Config{})
	pool, _ := seededHookedPool(t, env, 10_000, 40_000)
	ctx := context.Background()

	env.ledger.RegisterHook(hookProg, func(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error {
		if to.Equals(pool.Address) {
			return fmt.Errorf("inbound transfers suspended")
		}
		return nil
	})

	_, err := env.engine.Swap(ctx, bob, pool.Address, hookedMint, 500, 0)
	if !errors.Is(err, token.ErrHookRejected) {
		t.Fatalf("expected ErrHookRejected, got %v", err)
	}

	got := assertConsistent(t, env, pool.Address)
	if got.ReserveA != 10_000 || got.ReserveB != 40_000 {
		t.Fatalf("reserves changed by failed swap: %d/%d", got.ReserveA, got.ReserveB)
	}
	if bal := env.ledger.Balance(hookedMint, bob); bal != 1_000_000 {
		t.Fatalf("bob hooked balance = %d, want 1000000", bal)
	}
}

func TestFailedSwapOutputRollsBack(t *testing.T) {
	env := newTestEnv(t, Config{})
	pool, _ := seededHookedPool(t, env, 10_000, 40_000)
	ctx := context.Background()

	// The input leg is the plain mint and succeeds; the hooked output leg
	// out of the pool is rejected, so the applied input must be reversed.
	env.ledger.RegisterHook(hookProg, func(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error {
		if from.Equals(pool.Address) {
			return fmt.Errorf("outbound transfers suspended")
		}
		return nil
	})

	_, err := env.engine.Swap(ctx, bob, pool.Address, baseMint, 500, 0)
	if !errors.Is(err, token.ErrHookRejected) {
		t.Fatalf("expected ErrHookRejected, got %v", err)
	}

	got := assertConsistent(t, env, pool.Address)
	if got.ReserveA != 10_000 || got.ReserveB != 40_000 {
		t.Fatalf("reserves changed by failed swap: %d/%d", got.ReserveA, got.ReserveB)
	}
	if bal := env.ledger.Balance(baseMint, bob); bal != 1_000_000 {
		t.Fatalf("bob base balance = %d, want 1000000", bal)
	}
	if bal := env.ledger.Balance(hookedMint, bob); bal != 1_000_000 {
		t.Fatalf("bob hooked balance = %d, want 1000000", bal)
	}
}

func TestFailedWithdrawalRollsBack(t *testing.T) {
	env := newTestEnv(t, Config{})
	pool, minted := seededHookedPool(t, env, 1000, 4000)
	ctx := context.Background()

	env.ledger.RegisterHook(hookProg, func(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error {
		if from.Equals(pool.Address) {
			return fmt.Errorf("outbound transfers suspended")
		}
		return nil
	})

	_, _, err := env.engine.RemoveLiquidity(ctx, alice, pool.Address, minted)
	if !errors.Is(err, token.ErrHookRejected) {
		t.Fatalf("expected ErrHookRejected, got %v", err)
	}

	got := assertConsistent(t, env, pool.Address)
	if got.ReserveA != 1000 || got.ReserveB != 4000 || got.LPSupply != 2000 {
		t.Fatalf("pool record = %+v, want reserves 1000/4000 supply 2000", got)
	}
	if bal := env.ledger.Balance(pool.LPMint, alice); bal != minted {
		t.Fatalf("alice lp balance = %d, want %d restored", bal, minted)
	}
}
