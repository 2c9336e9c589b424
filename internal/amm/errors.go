package amm

import "errors"

var (
	// ErrInvalidFee is returned when fee_bps exceeds 10000.
	ErrInvalidFee = errors.New("invalid fee")
	// ErrSameMint is returned when both pool assets are the same mint.
	ErrSameMint = errors.New("pool assets must differ")
	// ErrPoolExists is returned when the pair+fee already has a pool.
	ErrPoolExists = errors.New("pool already exists")
	// ErrPoolNotFound is returned when no pool exists at the address.
	ErrPoolNotFound = errors.New("pool not found")
	// ErrZeroLiquidity is returned for deposits or withdrawals that move nothing.
	ErrZeroLiquidity = errors.New("zero liquidity")
	// ErrRatioMismatch is returned when deposit amounts imply diverging share counts.
	ErrRatioMismatch = errors.New("deposit ratio mismatch")
	// ErrInsufficientShares is returned when a withdrawal exceeds held or total shares.
	ErrInsufficientShares = errors.New("insufficient lp shares")
	// ErrUnknownAsset is returned when the swap input matches neither pool asset.
	ErrUnknownAsset = errors.New("asset not in pool")
	// ErrHookNotWhitelisted is returned when a mint's hook fails the whitelist gate.
	ErrHookNotWhitelisted = errors.New("transfer hook not whitelisted")
	// ErrSlippage is returned when the computed output is below the caller's minimum.
	ErrSlippage = errors.New("slippage exceeded")
	// ErrInsufficientLiquidity is returned when a swap would drain the pool or yields nothing.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrUnauthorized is returned when a whitelist mutation is not signed by the admin.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrWhitelistNotFound is returned when the whitelist record does not exist yet.
	ErrWhitelistNotFound = errors.New("whitelist not found")
)
