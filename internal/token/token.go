// Package token is the core's view of the asset-transfer subsystem. It moves
// balances between owners, is decimal-aware, and for hook-bearing mints
// invokes the mint's declared hook program during Transfer. The AMM engine
// must have cleared that hook through the whitelist before calling Transfer.
package token

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrUnknownMint is returned for operations on an unregistered mint.
	ErrUnknownMint = errors.New("unknown mint")
	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrHookRejected is returned when a transfer hook aborts the transfer.
	ErrHookRejected = errors.New("transfer hook rejected")
)

// MintInfo describes a registered mint. Hook is the zero key for plain mints
// and the declared transfer-hook program for hook-bearing ones.
type MintInfo struct {
	Address  solana.PublicKey `json:"address"`
	Decimals uint8            `json:"decimals"`
	Hook     solana.PublicKey `json:"hook"`
}

// HookBearing reports whether the mint declares a transfer hook.
func (m MintInfo) HookBearing() bool {
	return !m.Hook.IsZero()
}

// HookFunc is a transfer-hook callback. It observes a transfer that has
// already been applied to the ledger; a non-nil error aborts and reverts it.
type HookFunc func(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error

// Ledger is the transfer subsystem contract consumed by the AMM engine.
type Ledger interface {
	RegisterMint(info MintInfo) error
	MintInfo(mint solana.PublicKey) (MintInfo, error)
	MintTo(ctx context.Context, mint, to solana.PublicKey, amount uint64) error
	Burn(ctx context.Context, mint, from solana.PublicKey, amount uint64) error
	Transfer(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error
	Balance(mint, owner solana.PublicKey) uint64
}
