package token

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"

	"hookswap/internal/fixedmath"
)

type balanceKey struct {
	mint  solana.PublicKey
	owner solana.PublicKey
}

// MemoryLedger is an in-process Ledger. Hook callbacks are registered per
// hook program and run outside the ledger lock, so a hook may reenter the
// ledger (and anything built on it) the way an on-chain hook program would.
type MemoryLedger struct {
	mu       sync.Mutex
	mints    map[solana.PublicKey]MintInfo
	balances map[balanceKey]uint64
	hooks    map[solana.PublicKey]HookFunc
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		mints:    make(map[solana.PublicKey]MintInfo),
		balances: make(map[balanceKey]uint64),
		hooks:    make(map[solana.PublicKey]HookFunc),
	}
}

// RegisterMint adds a mint. Registering the same address twice is an error.
func (l *MemoryLedger) RegisterMint(info MintInfo) error {
	if info.Address.IsZero() {
		return fmt.Errorf("mint address required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.mints[info.Address]; exists {
		return fmt.Errorf("mint %s already registered", info.Address)
	}
	l.mints[info.Address] = info
	return nil
}

// RegisterHook installs the callback invoked for transfers of mints that
// declare the given hook program.
func (l *MemoryLedger) RegisterHook(program solana.PublicKey, fn HookFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks[program] = fn
}

func (l *MemoryLedger) MintInfo(mint solana.PublicKey) (MintInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.mints[mint]
	if !ok {
		return MintInfo{}, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}
	return info, nil
}

func (l *MemoryLedger) MintTo(ctx context.Context, mint, to solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.mints[mint]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}

	key := balanceKey{mint: mint, owner: to}
	sum, err := fixedmath.Add(l.balances[key], amount)
	if err != nil {
		return fmt.Errorf("mint %d to %s: %w", amount, to, err)
	}
	l.balances[key] = sum
	return nil
}

func (l *MemoryLedger) Burn(ctx context.Context, mint, from solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.mints[mint]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}

	key := balanceKey{mint: mint, owner: from}
	if l.balances[key] < amount {
		return fmt.Errorf("%w: burn %d from balance %d", ErrInsufficientFunds, amount, l.balances[key])
	}
	l.balances[key] -= amount
	return nil
}

// Transfer moves amount between owners, then invokes the mint's declared
// hook callback if one is registered. A hook failure reverts the movement,
// so callers only ever observe fully applied or fully reverted transfers.
func (l *MemoryLedger) Transfer(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error {
	hook, err := l.applyTransfer(mint, from, to, amount)
	if err != nil {
		return err
	}
	if hook == nil {
		return nil
	}

	// Callback runs outside the lock so it may reenter the ledger.
	if err := hook(ctx, mint, from, to, amount); err != nil {
		if rerr := l.revertTransfer(mint, from, to, amount); rerr != nil {
			return fmt.Errorf("%w: %v (%v)", ErrHookRejected, err, rerr)
		}
		return fmt.Errorf("%w: %v", ErrHookRejected, err)
	}
	return nil
}

func (l *MemoryLedger) applyTransfer(mint, from, to solana.PublicKey, amount uint64) (HookFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.mints[mint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}

	fromKey := balanceKey{mint: mint, owner: from}
	toKey := balanceKey{mint: mint, owner: to}
	if l.balances[fromKey] < amount {
		return nil, fmt.Errorf("%w: transfer %d from balance %d", ErrInsufficientFunds, amount, l.balances[fromKey])
	}

	sum, err := fixedmath.Add(l.balances[toKey], amount)
	if err != nil {
		return nil, fmt.Errorf("transfer %d to %s: %w", amount, to, err)
	}
	l.balances[fromKey] -= amount
	l.balances[toKey] = sum

	if !info.HookBearing() {
		return nil, nil
	}
	return l.hooks[info.Hook], nil
}

// revertTransfer backs out a transfer whose hook rejected it. A reentrant
// hook may have moved the recipient's funds on before rejecting; in that
// case the revert fails instead of wrapping the balance below zero.
func (l *MemoryLedger) revertTransfer(mint, from, to solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	toKey := balanceKey{mint: mint, owner: to}
	fromKey := balanceKey{mint: mint, owner: from}
	if l.balances[toKey] < amount {
		return fmt.Errorf("revert %d of %s: recipient balance %d already moved", amount, mint, l.balances[toKey])
	}
	sum, err := fixedmath.Add(l.balances[fromKey], amount)
	if err != nil {
		return fmt.Errorf("revert %d of %s: %w", amount, mint, err)
	}
	l.balances[toKey] -= amount
	l.balances[fromKey] = sum
	return nil
}

func (l *MemoryLedger) Balance(mint, owner solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[balanceKey{mint: mint, owner: owner}]
}

// Snapshot returns copies of the mint registry and balance table for
// persistence. Balance keys are encoded as "mint/owner".
func (l *MemoryLedger) Snapshot() (map[string]MintInfo, map[string]uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	mints := make(map[string]MintInfo, len(l.mints))
	for addr, info := range l.mints {
		mints[addr.String()] = info
	}
	balances := make(map[string]uint64, len(l.balances))
	for key, amount := range l.balances {
		if amount == 0 {
			continue
		}
		balances[key.mint.String()+"/"+key.owner.String()] = amount
	}
	return mints, balances
}

// Restore loads a snapshot produced by Snapshot into an empty ledger.
func (l *MemoryLedger) Restore(mints map[string]MintInfo, balances map[string]uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for addr, info := range mints {
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return fmt.Errorf("restore mint %s: %w", addr, err)
		}
		info.Address = key
		l.mints[key] = info
	}
	for encoded, amount := range balances {
		key, err := parseBalanceKey(encoded)
		if err != nil {
			return err
		}
		l.balances[key] = amount
	}
	return nil
}

func parseBalanceKey(encoded string) (balanceKey, error) {
	mintPart, ownerPart, found := strings.Cut(encoded, "/")
	if !found {
		return balanceKey{}, fmt.Errorf("restore balance key %s: missing separator", encoded)
	}
	mint, err := solana.PublicKeyFromBase58(mintPart)
	if err != nil {
		return balanceKey{}, fmt.Errorf("restore balance key %s: %w", encoded, err)
	}
	owner, err := solana.PublicKeyFromBase58(ownerPart)
	if err != nil {
		return balanceKey{}, fmt.Errorf("restore balance key %s: %w", encoded, err)
	}
	return balanceKey{mint: mint, owner: owner}, nil
}
