package amm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"hookswap/internal/model"
)

// HookAllowed is the gate consulted before any transfer of a hook-bearing
// mint. A zero declared hook (plain mint) always passes; otherwise the
// declared hook must equal the pool's allowed hook and that hook must be
// present in the global whitelist.
func HookAllowed(wl *model.Whitelist, declared, poolAllowed solana.PublicKey) bool {
	if declared.IsZero() {
		return true
	}
	if poolAllowed.IsZero() || !declared.Equals(poolAllowed) {
		return false
	}
	return wl != nil && wl.Contains(poolAllowed)
}

// InitWhitelist creates the global whitelist record with admin as its sole
// mutator. It can be created once.
func (e *Engine) InitWhitelist(ctx context.Context, admin solana.PublicKey) (wl model.Whitelist, err error) {
	defer func() { e.metrics.ObserveOp(model.OpInitWhitelist, err) }()

	if admin.IsZero() {
		return model.Whitelist{}, fmt.Errorf("admin identity required")
	}

	addr, bump, err := model.WhitelistAddress()
	if err != nil {
		return model.Whitelist{}, err
	}
	wl = model.Whitelist{Address: addr, Admin: admin, Bump: bump}

	if err = e.store.CreateWhitelist(ctx, wl); err != nil {
		return model.Whitelist{}, fmt.Errorf("init whitelist: %w", err)
	}

	e.logger.Info("whitelist initialized", zap.String("address", addr.String()), zap.String("admin", admin.String()))
	e.record(model.OpRecord{Kind: model.OpInitWhitelist, Actor: admin.String()})

	return wl, nil
}

// WhitelistHook appends a hook program to the approved set. Only the admin
// may call it; appending a hook that is already present is a no-op.
func (e *Engine) WhitelistHook(ctx context.Context, actor, hookProgram solana.PublicKey) (err error) {
	defer func() { e.metrics.ObserveOp(model.OpWhitelistHook, err) }()

	if hookProgram.IsZero() {
		return fmt.Errorf("hook program required")
	}

	wl, err := e.requireWhitelist(ctx, actor)
	if err != nil {
		return err
	}
	if wl.Contains(hookProgram) {
		return nil
	}

	wl.HookPrograms = append(wl.HookPrograms, hookProgram)
	if err = e.store.PutWhitelist(ctx, *wl); err != nil {
		return fmt.Errorf("commit whitelist: %w", err)
	}

	e.logger.Info("hook whitelisted", zap.String("hook", hookProgram.String()), zap.Int("approved", len(wl.HookPrograms)))
	e.record(model.OpRecord{Kind: model.OpWhitelistHook, Actor: actor.String(), Hook: hookProgram.String()})

	return nil
}

// RemoveHook deletes a hook program from the approved set. Only the admin
// may call it; removing an absent hook is a no-op.
func (e *Engine) RemoveHook(ctx context.Context, actor, hookProgram solana.PublicKey) (err error) {
	defer func() { e.metrics.ObserveOp(model.OpRemoveHook, err) }()

	wl, err := e.requireWhitelist(ctx, actor)
	if err != nil {
		return err
	}
	if !wl.Contains(hookProgram) {
		return nil
	}

	kept := wl.HookPrograms[:0]
	for _, h := range wl.HookPrograms {
		if !h.Equals(hookProgram) {
			kept = append(kept, h)
		}
	}
	wl.HookPrograms = kept

	if err = e.store.PutWhitelist(ctx, *wl); err != nil {
		return fmt.Errorf("commit whitelist: %w", err)
	}

	e.logger.Info("hook removed", zap.String("hook", hookProgram.String()), zap.Int("approved", len(wl.HookPrograms)))
	e.record(model.OpRecord{Kind: model.OpRemoveHook, Actor: actor.String(), Hook: hookProgram.String()})

	return nil
}

// Whitelist returns the current whitelist record.
func (e *Engine) Whitelist(ctx context.Context) (model.Whitelist, error) {
	wl, err := e.loadWhitelist(ctx)
	if err != nil {
		return model.Whitelist{}, err
	}
	if wl == nil {
		return model.Whitelist{}, ErrWhitelistNotFound
	}
	return *wl, nil
}

// requireWhitelist loads the whitelist and verifies the actor is its admin.
func (e *Engine) requireWhitelist(ctx context.Context, actor solana.PublicKey) (*model.Whitelist, error) {
	wl, err := e.loadWhitelist(ctx)
	if err != nil {
		return nil, err
	}
	if wl == nil {
		return nil, ErrWhitelistNotFound
	}
	if !actor.Equals(wl.Admin) {
		return nil, fmt.Errorf("%w: %s is not the whitelist admin", ErrUnauthorized, actor)
	}
	return wl, nil
}
