package amm

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"hookswap/internal/model"
	"hookswap/internal/storage"
	"hookswap/internal/token"
)

// MaxFeeBps is the upper bound for a pool fee (100%).
const MaxFeeBps = 10000

// CreatePool creates the pool record for a pair at a fee tier. The record
// address is derived from the canonical pair and fee, so creation fails if
// the pair+fee already has a pool. The pool starts with zero reserves and
// zero LP supply; its LP mint is registered with the transfer subsystem.
func (e *Engine) CreatePool(ctx context.Context, payer, mintA, mintB solana.PublicKey, feeBps uint16, allowedHook solana.PublicKey) (pool model.Pool, err error) {
	defer func() { e.metrics.ObserveOp(model.OpCreatePool, err) }()

	if feeBps > MaxFeeBps {
		return model.Pool{}, fmt.Errorf("%w: %d bps exceeds %d", ErrInvalidFee, feeBps, MaxFeeBps)
	}
	if mintA.Equals(mintB) {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrSameMint, mintA)
	}

	for _, mint := range []solana.PublicKey{mintA, mintB} {
		if _, err := e.ledger.MintInfo(mint); err != nil {
			return model.Pool{}, fmt.Errorf("create pool: %w", err)
		}
	}

	a, b := model.CanonicalPair(mintA, mintB)
	addr, bump, err := model.PoolAddress(a, b, feeBps)
	if err != nil {
		return model.Pool{}, err
	}
	lpMint, _, err := model.LPMintAddress(addr)
	if err != nil {
		return model.Pool{}, err
	}

	pool = model.Pool{
		Address:     addr,
		MintA:       a,
		MintB:       b,
		LPMint:      lpMint,
		FeeBps:      feeBps,
		AllowedHook: allowedHook,
		Bump:        bump,
	}

	if err := e.store.CreatePool(ctx, pool); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return model.Pool{}, fmt.Errorf("%w: %s", ErrPoolExists, addr)
		}
		return model.Pool{}, fmt.Errorf("create pool: %w", err)
	}

	if err := e.ledger.RegisterMint(token.MintInfo{Address: lpMint, Decimals: lpShareDecimals}); err != nil {
		return model.Pool{}, fmt.Errorf("register lp mint: %w", err)
	}

	e.logger.Info("pool created",
		zap.String("pool", addr.String()),
		zap.String("mint_a", a.String()),
		zap.String("mint_b", b.String()),
		zap.Uint16("fee_bps", feeBps),
		zap.String("allowed_hook", allowedHook.String()),
	)
	e.record(model.OpRecord{
		Kind:   model.OpCreatePool,
		Pool:   addr.String(),
		Actor:  payer.String(),
		MintA:  a.String(),
		MintB:  b.String(),
		FeeBps: feeBps,
		Hook:   hookLabel(allowedHook),
	})

	return pool, nil
}

// lpShareDecimals matches the raw-unit accounting of the underlying assets.
const lpShareDecimals = 0

func hookLabel(hook solana.PublicKey) string {
	if hook.IsZero() {
		return ""
	}
	return hook.String()
}
