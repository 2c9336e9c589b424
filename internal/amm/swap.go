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

// swapQuote prices amountIn against the pool without touching state. The fee
// is floored off the input and the constant-product output is floored, so
// the realized invariant k never decreases.
func swapQuote(pool *model.Pool, assetIn solana.PublicKey, amountIn uint64) (amountOut uint64, inIsA bool, err error) {
	var reserveIn, reserveOut uint64
	switch {
	case assetIn.Equals(pool.MintA):
		inIsA = true
		reserveIn, reserveOut = pool.ReserveA, pool.ReserveB
	case assetIn.Equals(pool.MintB):
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
	default:
		return 0, false, fmt.Errorf("%w: %s", ErrUnknownAsset, assetIn)
	}

	if reserveIn == 0 || reserveOut == 0 {
		return 0, inIsA, fmt.Errorf("%w: pool is empty", ErrInsufficientLiquidity)
	}

	afterFee, err := fixedmath.MulDiv(amountIn, MaxFeeBps-uint64(pool.FeeBps), MaxFeeBps)
	if err != nil {
		return 0, inIsA, fmt.Errorf("apply fee: %w", err)
	}

	denom, err := fixedmath.Add(reserveIn, afterFee)
	if err != nil {
		return 0, inIsA, fmt.Errorf("input reserve: %w", err)
	}
	kept, err := fixedmath.MulDiv(reserveIn, reserveOut, denom)
	if err != nil {
		return 0, inIsA, fmt.Errorf("price swap: %w", err)
	}

	// kept <= reserveOut because denom >= reserveIn.
	return reserveOut - kept, inIsA, nil
}

// Quote previews the output of a swap without executing it.
func (e *Engine) Quote(ctx context.Context, poolAddr, assetIn solana.PublicKey, amountIn uint64) (uint64, error) {
	pool, err := e.loadPool(ctx, poolAddr)
	if err != nil {
		return 0, err
	}
	out, _, err := swapQuote(&pool, assetIn, amountIn)
	return out, err
}

// Swap trades amountIn of assetIn against the pool. The whitelist gate runs
// before any funds move; the full input amount (fee included) is credited to
// the input reserve, so the fee accrues to liquidity providers. Reserves are
// committed before the transfers are issued.
func (e *Engine) Swap(ctx context.Context, trader, poolAddr, assetIn solana.PublicKey, amountIn, minAmountOut uint64) (amountOut uint64, err error) {
	defer func() { e.metrics.ObserveOp(model.OpSwap, err) }()

	pool, err := e.loadPool(ctx, poolAddr)
	if err != nil {
		return 0, err
	}
	prev := pool

	assetOut := pool.MintB
	amountOut, inIsA, err := swapQuote(&pool, assetIn, amountIn)
	if err != nil {
		return 0, err
	}
	if !inIsA {
		assetOut = pool.MintA
	}

	infoIn, err := e.ledger.MintInfo(assetIn)
	if err != nil {
		return 0, err
	}
	infoOut, err := e.ledger.MintInfo(assetOut)
	if err != nil {
		return 0, err
	}
	wl, err := e.loadWhitelist(ctx)
	if err != nil {
		return 0, err
	}
	if err = e.clearHook(infoIn, &pool, wl); err != nil {
		return 0, err
	}
	if err = e.clearHook(infoOut, &pool, wl); err != nil {
		return 0, err
	}

	if amountOut < minAmountOut {
		return 0, fmt.Errorf("%w: computed %d below minimum %d", ErrSlippage, amountOut, minAmountOut)
	}
	reserveOut := pool.ReserveB
	if !inIsA {
		reserveOut = pool.ReserveA
	}
	if amountOut == 0 || amountOut >= reserveOut {
		return 0, fmt.Errorf("%w: output %d against reserve %d", ErrInsufficientLiquidity, amountOut, reserveOut)
	}

	if got := e.ledger.Balance(assetIn, trader); got < amountIn {
		return 0, fmt.Errorf("swap %d of %s: %w", amountIn, assetIn, token.ErrInsufficientFunds)
	}

	if inIsA {
		if pool.ReserveA, err = fixedmath.Add(pool.ReserveA, amountIn); err != nil {
			return 0, fmt.Errorf("reserve a: %w", err)
		}
		pool.ReserveB -= amountOut
	} else {
		if pool.ReserveB, err = fixedmath.Add(pool.ReserveB, amountIn); err != nil {
			return 0, fmt.Errorf("reserve b: %w", err)
		}
		pool.ReserveA -= amountOut
	}

	if err = e.store.PutPool(ctx, pool); err != nil {
		return 0, fmt.Errorf("commit pool: %w", err)
	}

	rb := e.rollbackTo(prev)
	if err = e.ledger.Transfer(ctx, assetIn, trader, pool.Address, amountIn); err != nil {
		rb.run(ctx)
		return 0, err
	}
	rb.push(func(ctx context.Context) error {
		return e.ledger.Transfer(ctx, assetIn, pool.Address, trader, amountIn)
	})
	if err = e.ledger.Transfer(ctx, assetOut, pool.Address, trader, amountOut); err != nil {
		rb.run(ctx)
		return 0, err
	}

	e.logger.Info("swap executed",
		zap.String("pool", pool.Address.String()),
		zap.String("asset_in", assetIn.String()),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", amountOut),
		zap.Uint64("reserve_a", pool.ReserveA),
		zap.Uint64("reserve_b", pool.ReserveB),
	)
	e.metrics.AddSwapVolume(pool.Address.String(), assetIn.String(), amountIn)
	e.record(model.OpRecord{
		Kind:      model.OpSwap,
		Pool:      pool.Address.String(),
		Actor:     trader.String(),
		AssetIn:   assetIn.String(),
		AmountIn:  amountIn,
		AmountOut: amountOut,
	})

	return amountOut, nil
}
