package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hookswap/internal/model"
	"hookswap/internal/token"
)

// Snapshot is a durable image of the in-memory store and ledger, used by the
// CLI between invocations. Balance keys are encoded as "mint/owner".
type Snapshot struct {
	Pools      []model.Pool              `json:"pools"`
	Whitelists []model.Whitelist         `json:"whitelists"`
	Mints      map[string]token.MintInfo `json:"mints"`
	Balances   map[string]uint64         `json:"balances"`
	SavedAt    string                    `json:"saved_at"`
}

// LoadSnapshot reads a snapshot file. A missing file yields an empty
// snapshot and ok=false.
func LoadSnapshot(path string) (Snapshot, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

// SaveSnapshot captures the store and ledger and writes them atomically via
// a temp file rename.
func SaveSnapshot(path string, store *MemoryStore, ledger *token.MemoryLedger) error {
	if path == "" {
		return fmt.Errorf("snapshot path required")
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	mints, balances := ledger.Snapshot()
	snap := Snapshot{
		Pools:      store.Pools(),
		Whitelists: store.Whitelists(),
		Mints:      mints,
		Balances:   balances,
		SavedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Restore populates an empty store and ledger from a snapshot.
func (s Snapshot) Restore(ctx context.Context, store *MemoryStore, ledger *token.MemoryLedger) error {
	for _, pool := range s.Pools {
		if err := store.PutPool(ctx, pool); err != nil {
			return fmt.Errorf("restore pool %s: %w", pool.Address, err)
		}
	}
	for _, wl := range s.Whitelists {
		if err := store.PutWhitelist(ctx, wl); err != nil {
			return fmt.Errorf("restore whitelist %s: %w", wl.Address, err)
		}
	}
	if err := ledger.Restore(s.Mints, s.Balances); err != nil {
		return err
	}
	return nil
}
