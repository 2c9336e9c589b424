package amm

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"hookswap/internal/model"
)

func TestInitWhitelistOnce(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	wl, err := env.engine.InitWhitelist(ctx, admin)
	if err != nil {
		t.Fatalf("init whitelist: %v", err)
	}
	if !wl.Admin.Equals(admin) || len(wl.HookPrograms) != 0 {
		t.Fatalf("unexpected whitelist: %+v", wl)
	}

	if _, err := env.engine.InitWhitelist(ctx, bob); err == nil {
		t.Fatalf("expected error initializing whitelist twice")
	}
}

func TestWhitelistHookUnauthorized(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	if _, err := env.engine.InitWhitelist(ctx, admin); err != nil {
		t.Fatalf("init whitelist: %v", err)
	}

	if err := env.engine.WhitelistHook(ctx, bob, hookProg); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	wl, err := env.engine.Whitelist(ctx)
	if err != nil {
		t.Fatalf("load whitelist: %v", err)
	}
	if len(wl.HookPrograms) != 0 {
		t.Fatalf("whitelist mutated by unauthorized caller: %+v", wl)
	}
}

func TestWhitelistHookIdempotentAppend(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	if _, err := env.engine.InitWhitelist(ctx, admin); err != nil {
		t.Fatalf("init whitelist: %v", err)
	}
	if err := env.engine.WhitelistHook(ctx, admin, hookProg); err != nil {
		t.Fatalf("whitelist hook: %v", err)
	}
	if err := env.engine.WhitelistHook(ctx, admin, hookProg); err != nil {
		t.Fatalf("append of present hook should be a no-op, got %v", err)
	}

	wl, err := env.engine.Whitelist(ctx)
	if err != nil {
		t.Fatalf("load whitelist: %v", err)
	}
	if len(wl.HookPrograms) != 1 {
		t.Fatalf("duplicate append recorded: %+v", wl.HookPrograms)
	}
}

func TestRemoveHook(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	if _, err := env.engine.InitWhitelist(ctx, admin); err != nil {
		t.Fatalf("init whitelist: %v", err)
	}
	if err := env.engine.WhitelistHook(ctx, admin, hookProg); err != nil {
		t.Fatalf("whitelist hook: %v", err)
	}
	if err := env.engine.WhitelistHook(ctx, admin, otherHook); err != nil {
		t.Fatalf("whitelist hook: %v", err)
	}

	if err := env.engine.RemoveHook(ctx, admin, hookProg); err != nil {
		t.Fatalf("remove hook: %v", err)
	}
	wl, err := env.engine.Whitelist(ctx)
	if err != nil {
		t.Fatalf("load whitelist: %v", err)
	}
	if wl.Contains(hookProg) || !wl.Contains(otherHook) {
		t.Fatalf("unexpected whitelist after removal: %+v", wl.HookPrograms)
	}

	// Removing an absent hook is a no-op.
	if err := env.engine.RemoveHook(ctx, admin, hookProg); err != nil {
		t.Fatalf("remove of absent hook: %v", err)
	}
	if err := env.engine.RemoveHook(ctx, bob, otherHook); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestWhitelistHookBeforeInit(t *testing.T) {
	env := newTestEnv(t, Config{})

	if err := env.engine.WhitelistHook(context.Background(), admin, hookProg); !errors.Is(err, ErrWhitelistNotFound) {
		t.Fatalf("expected ErrWhitelistNotFound, got %v", err)
	}
}

func TestHookAllowed(t *testing.T) {
	wl := &model.Whitelist{HookPrograms: []solana.PublicKey{hookProg}}
	none := solana.PublicKey{}

	cases := []struct {
		name        string
		wl          *model.Whitelist
		declared    solana.PublicKey
		poolAllowed solana.PublicKey
		want        bool
	}{
		{"plain mint passes", wl, none, hookProg, true},
		{"plain mint passes without whitelist", nil, none, none, true},
		{"declared matches and whitelisted", wl, hookProg, hookProg, true},
		{"declared differs from pool allowed", wl, otherHook, hookProg, false},
		{"pool allows no hook", wl, hookProg, none, false},
		{"not in global whitelist", &model.Whitelist{}, hookProg, hookProg, false},
		{"whitelist missing", nil, hookProg, hookProg, false},
	}

	for _, tc := range cases {
		if got := HookAllowed(tc.wl, tc.declared, tc.poolAllowed); got != tc.want {
			t.Fatalf("%s: HookAllowed = %v, want %v", tc.name, got, tc.want)
		}
	}
}
