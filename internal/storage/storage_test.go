package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"

	"hookswap/internal/model"
	"hookswap/internal/token"
)

var (
	poolAddr = solana.MustPublicKeyFromBase58("4vMsoUT2BWatFweudnQM1xedRLfJgJ7hswhcpz4xgBTy")
	wlAddr   = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
	hookAddr = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

func TestMemoryStoreCreatePoolTwice(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	pool := model.Pool{Address: poolAddr, FeeBps: 30}

	if err := store.CreatePool(ctx, pool); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreatePool(ctx, pool); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestMemoryStorePoolRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok, err := store.GetPool(ctx, poolAddr); ok || err != nil {
		t.Fatalf("expected missing pool, got ok=%v err=%v", ok, err)
	}

	pool := model.Pool{Address: poolAddr, ReserveA: 1000, ReserveB: 4000, LPSupply: 2000, FeeBps: 30}
	if err := store.PutPool(ctx, pool); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.GetPool(ctx, poolAddr)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != pool {
		t.Fatalf("pool mismatch: %+v != %+v", got, pool)
	}
}

func TestMemoryStoreWhitelistIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	wl := model.Whitelist{Address: wlAddr, HookPrograms: []solana.PublicKey{hookAddr}}
	if err := store.CreateWhitelist(ctx, wl); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, ok, err := store.GetWhitelist(ctx, wlAddr)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}

	// Mutating the returned slice must not change stored state.
	got.HookPrograms[0] = solana.PublicKey{}

	again, _, err := store.GetWhitelist(ctx, wlAddr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !again.HookPrograms[0].Equals(hookAddr) {
		t.Fatalf("stored whitelist aliased by caller mutation")
	}
}

func TestJournalAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	journal := NewJournal(path)

	records := []model.OpRecord{
		{Kind: model.OpCreatePool, Pool: poolAddr.String(), Actor: wlAddr.String(), FeeBps: 30},
		{Kind: model.OpSwap, Pool: poolAddr.String(), Actor: wlAddr.String(), AmountIn: 100, AmountOut: 361},
	}
	for _, rec := range records {
		if err := journal.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var got []model.OpRecord
	for scanner.Scan() {
		var rec model.OpRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("parse line: %v", err)
		}
		got = append(got, rec)
	}

	if len(got) != 2 || got[0].Kind != model.OpCreatePool || got[1].AmountOut != 361 {
		t.Fatalf("journal contents mismatch: %+v", got)
	}
}

func TestNilJournalIsNoop(t *testing.T) {
	var journal *Journal
	if err := journal.Append(model.OpRecord{Kind: model.OpSwap}); err != nil {
		t.Fatalf("nil journal append: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	store := NewMemoryStore()
	ledger := token.NewMemoryLedger()

	pool := model.Pool{Address: poolAddr, ReserveA: 7, ReserveB: 9, LPSupply: 7, FeeBps: 30}
	if err := store.PutPool(ctx, pool); err != nil {
		t.Fatalf("put pool: %v", err)
	}
	wl := model.Whitelist{Address: wlAddr, Admin: poolAddr, HookPrograms: []solana.PublicKey{hookAddr}}
	if err := store.PutWhitelist(ctx, wl); err != nil {
		t.Fatalf("put whitelist: %v", err)
	}
	if err := ledger.RegisterMint(token.MintInfo{Address: hookAddr, Decimals: 6}); err != nil {
		t.Fatalf("register mint: %v", err)
	}
	if err := ledger.MintTo(ctx, hookAddr, poolAddr, 55); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := SaveSnapshot(path, store, ledger); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, ok, err := LoadSnapshot(path)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}

	store2 := NewMemoryStore()
	ledger2 := token.NewMemoryLedger()
	if err := snap.Restore(ctx, store2, ledger2); err != nil {
		t.Fatalf("restore: %v", err)
	}

	gotPool, ok, err := store2.GetPool(ctx, poolAddr)
	if err != nil || !ok || gotPool != pool {
		t.Fatalf("restored pool mismatch: %+v ok=%v err=%v", gotPool, ok, err)
	}
	gotWL, ok, err := store2.GetWhitelist(ctx, wlAddr)
	if err != nil || !ok || !gotWL.Contains(hookAddr) {
		t.Fatalf("restored whitelist mismatch: %+v ok=%v err=%v", gotWL, ok, err)
	}
	if got := ledger2.Balance(hookAddr, poolAddr); got != 55 {
		t.Fatalf("restored balance = %d, want 55", got)
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, ok, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil || ok {
		t.Fatalf("expected empty result for missing file, got ok=%v err=%v", ok, err)
	}
}
