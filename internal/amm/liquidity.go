package amm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"hookswap/internal/fixedmath"
	"hookswap/internal/model"
	"hookswap/internal/token"
)

// AddLiquidity deposits amountA/amountB into the pool and mints LP shares to
// the depositor. The first deposit into an empty pool mints
// isqrt(amountA*amountB); later deposits mint the minimum of the two implied
// share counts and must match the pool ratio within the configured
// tolerance. The pool record is committed before any transfer is issued.
func (e *Engine) AddLiquidity(ctx context.Context, depositor, poolAddr solana.PublicKey, amountA, amountB uint64) (minted uint64, err error) {
	defer func() { e.metrics.ObserveOp(model.OpAddLiquidity, err) }()

	pool, err := e.loadPool(ctx, poolAddr)
	if err != nil {
		return 0, err
	}
	prev := pool

	minted, err = depositShares(&pool, amountA, amountB, e.cfg.RatioTolerance)
	if err != nil {
		return 0, err
	}

	infoA, err := e.ledger.MintInfo(pool.MintA)
	if err != nil {
		return 0, err
	}
	infoB, err := e.ledger.MintInfo(pool.MintB)
	if err != nil {
		return 0, err
	}
	wl, err := e.loadWhitelist(ctx)
	if err != nil {
		return 0, err
	}
	if err = e.clearHook(infoA, &pool, wl); err != nil {
		return 0, err
	}
	if err = e.clearHook(infoB, &pool, wl); err != nil {
		return 0, err
	}

	if got := e.ledger.Balance(pool.MintA, depositor); got < amountA {
		return 0, fmt.Errorf("deposit %d of %s: %w", amountA, pool.MintA, token.ErrInsufficientFunds)
	}
	if got := e.ledger.Balance(pool.MintB, depositor); got < amountB {
		return 0, fmt.Errorf("deposit %d of %s: %w", amountB, pool.MintB, token.ErrInsufficientFunds)
	}

	if pool.ReserveA, err = fixedmath.Add(pool.ReserveA, amountA); err != nil {
		return 0, fmt.Errorf("reserve a: %w", err)
	}
	if pool.ReserveB, err = fixedmath.Add(pool.ReserveB, amountB); err != nil {
		return 0, fmt.Errorf("reserve b: %w", err)
	}
	if pool.LPSupply, err = fixedmath.Add(pool.LPSupply, minted); err != nil {
		return 0, fmt.Errorf("lp supply: %w", err)
	}

	// Effects before interactions: the record is durable before the hook
	// program can run.
	if err = e.store.PutPool(ctx, pool); err != nil {
		return 0, fmt.Errorf("commit pool: %w", err)
	}

	rb := e.rollbackTo(prev)
	if err = e.ledger.Transfer(ctx, pool.MintA, depositor, pool.Address, amountA); err != nil {
		rb.run(ctx)
		return 0, err
	}
	rb.push(func(ctx context.Context) error {
		return e.ledger.Transfer(ctx, pool.MintA, pool.Address, depositor, amountA)
	})
	if err = e.ledger.Transfer(ctx, pool.MintB, depositor, pool.Address, amountB); err != nil {
		rb.run(ctx)
		return 0, err
	}
	rb.push(func(ctx context.Context) error {
		return e.ledger.Transfer(ctx, pool.MintB, pool.Address, depositor, amountB)
	})
	if err = e.ledger.MintTo(ctx, pool.LPMint, depositor, minted); err != nil {
		rb.run(ctx)
		return 0, err
	}

	e.logger.Info("liquidity added",
		zap.String("pool", pool.Address.String()),
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
		zap.Uint64("lp_minted", minted),
		zap.Uint64("lp_supply", pool.LPSupply),
	)
	e.metrics.SetLPSupply(pool.Address.String(), pool.LPSupply)
	e.record(model.OpRecord{
		Kind:     model.OpAddLiquidity,
		Pool:     pool.Address.String(),
		Actor:    depositor.String(),
		AmountA:  amountA,
		AmountB:  amountB,
		LPAmount: minted,
	})

	return minted, nil
}

// depositShares computes the LP shares minted for a deposit without touching
// any state.
func depositShares(pool *model.Pool, amountA, amountB, tolerance uint64) (uint64, error) {
	if pool.Empty() {
		if amountA == 0 || amountB == 0 {
			return 0, fmt.Errorf("%w: initial deposit requires both assets", ErrZeroLiquidity)
		}
		return fixedmath.SqrtMul(amountA, amountB), nil
	}

	sharesA, err := fixedmath.MulDiv(amountA, pool.LPSupply, pool.ReserveA)
	if err != nil {
		return 0, fmt.Errorf("shares for asset a: %w", err)
	}
	sharesB, err := fixedmath.MulDiv(amountB, pool.LPSupply, pool.ReserveB)
	if err != nil {
		return 0, fmt.Errorf("shares for asset b: %w", err)
	}

	diff := sharesA - sharesB
	if sharesB > sharesA {
		diff = sharesB - sharesA
	}
	if diff > tolerance {
		return 0, fmt.Errorf("%w: implied shares %d vs %d", ErrRatioMismatch, sharesA, sharesB)
	}

	minted := sharesA
	if sharesB < minted {
		minted = sharesB
	}
	if minted == 0 {
		return 0, fmt.Errorf("%w: deposit too small for current supply", ErrZeroLiquidity)
	}
	return minted, nil
}

// RemoveLiquidity burns lpAmount shares and pays out the proportional slice
// of both reserves, floor-rounded; remainders stay in the pool.
func (e *Engine) RemoveLiquidity(ctx context.Context, owner, poolAddr solana.PublicKey, lpAmount uint64) (amountA, amountB uint64, err error) {
	defer func() { e.metrics.ObserveOp(model.OpRemoveLiquidity, err) }()

	pool, err := e.loadPool(ctx, poolAddr)
	if err != nil {
		return 0, 0, err
	}
	prev := pool

	if lpAmount == 0 {
		return 0, 0, fmt.Errorf("%w: nothing to withdraw", ErrZeroLiquidity)
	}
	if lpAmount > pool.LPSupply {
		return 0, 0, fmt.Errorf("%w: %d exceeds supply %d", ErrInsufficientShares, lpAmount, pool.LPSupply)
	}
	if held := e.ledger.Balance(pool.LPMint, owner); lpAmount > held {
		return 0, 0, fmt.Errorf("%w: %d exceeds balance %d", ErrInsufficientShares, lpAmount, held)
	}

	amountA, err = fixedmath.MulDiv(pool.ReserveA, lpAmount, pool.LPSupply)
	if err != nil {
		return 0, 0, fmt.Errorf("payout a: %w", err)
	}
	amountB, err = fixedmath.MulDiv(pool.ReserveB, lpAmount, pool.LPSupply)
	if err != nil {
		return 0, 0, fmt.Errorf("payout b: %w", err)
	}

	infoA, err := e.ledger.MintInfo(pool.MintA)
	if err != nil {
		return 0, 0, err
	}
	infoB, err := e.ledger.MintInfo(pool.MintB)
	if err != nil {
		return 0, 0, err
	}
	wl, err := e.loadWhitelist(ctx)
	if err != nil {
		return 0, 0, err
	}
	if err = e.clearHook(infoA, &pool, wl); err != nil {
		return 0, 0, err
	}
	if err = e.clearHook(infoB, &pool, wl); err != nil {
		return 0, 0, err
	}

	if pool.ReserveA, err = fixedmath.Sub(pool.ReserveA, amountA); err != nil {
		return 0, 0, fmt.Errorf("reserve a: %w", err)
	}
	if pool.ReserveB, err = fixedmath.Sub(pool.ReserveB, amountB); err != nil {
		return 0, 0, fmt.Errorf("reserve b: %w", err)
	}
	pool.LPSupply -= lpAmount

	if err = e.store.PutPool(ctx, pool); err != nil {
		return 0, 0, fmt.Errorf("commit pool: %w", err)
	}

	rb := e.rollbackTo(prev)
	if err = e.ledger.Burn(ctx, pool.LPMint, owner, lpAmount); err != nil {
		rb.run(ctx)
		return 0, 0, err
	}
	rb.push(func(ctx context.Context) error {
		return e.ledger.MintTo(ctx, pool.LPMint, owner, lpAmount)
	})
	if err = e.ledger.Transfer(ctx, pool.MintA, pool.Address, owner, amountA); err != nil {
		rb.run(ctx)
		return 0, 0, err
	}
	rb.push(func(ctx context.Context) error {
		return e.ledger.Transfer(ctx, pool.MintA, owner, pool.Address, amountA)
	})
	if err = e.ledger.Transfer(ctx, pool.MintB, pool.Address, owner, amountB); err != nil {
		rb.run(ctx)
		return 0, 0, err
	}

	e.logger.Info("liquidity removed",
		zap.String("pool", pool.Address.String()),
		zap.Uint64("lp_burned", lpAmount),
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
		zap.Uint64("lp_supply", pool.LPSupply),
	)
	e.metrics.SetLPSupply(pool.Address.String(), pool.LPSupply)
	e.record(model.OpRecord{
		Kind:     model.OpRemoveLiquidity,
		Pool:     pool.Address.String(),
		Actor:    owner.String(),
		AmountA:  amountA,
		AmountB:  amountB,
		LPAmount: lpAmount,
	})

	return amountA, amountB, nil
}
