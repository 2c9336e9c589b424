package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"hookswap/internal/model"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	pools      map[solana.PublicKey]model.Pool
	whitelists map[solana.PublicKey]model.Whitelist
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools:      make(map[solana.PublicKey]model.Pool),
		whitelists: make(map[solana.PublicKey]model.Whitelist),
	}
}

func (s *MemoryStore) CreatePool(ctx context.Context, pool model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pools[pool.Address]; exists {
		return fmt.Errorf("pool %s: %w", pool.Address, ErrAlreadyExists)
	}
	s.pools[pool.Address] = pool
	return nil
}

func (s *MemoryStore) PutPool(ctx context.Context, pool model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.Address] = pool
	return nil
}

func (s *MemoryStore) GetPool(ctx context.Context, addr solana.PublicKey) (model.Pool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool, ok := s.pools[addr]
	return pool, ok, nil
}

func (s *MemoryStore) CreateWhitelist(ctx context.Context, wl model.Whitelist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.whitelists[wl.Address]; exists {
		return fmt.Errorf("whitelist %s: %w", wl.Address, ErrAlreadyExists)
	}
	s.whitelists[wl.Address] = cloneWhitelist(wl)
	return nil
}

func (s *MemoryStore) PutWhitelist(ctx context.Context, wl model.Whitelist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.whitelists[wl.Address] = cloneWhitelist(wl)
	return nil
}

func (s *MemoryStore) GetWhitelist(ctx context.Context, addr solana.PublicKey) (model.Whitelist, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wl, ok := s.whitelists[addr]
	if !ok {
		return model.Whitelist{}, false, nil
	}
	return cloneWhitelist(wl), true, nil
}

// Pools returns all pool records, for snapshotting.
func (s *MemoryStore) Pools() []model.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pools := make([]model.Pool, 0, len(s.pools))
	for _, pool := range s.pools {
		pools = append(pools, pool)
	}
	return pools
}

// Whitelists returns all whitelist records, for snapshotting.
func (s *MemoryStore) Whitelists() []model.Whitelist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	whitelists := make([]model.Whitelist, 0, len(s.whitelists))
	for _, wl := range s.whitelists {
		whitelists = append(whitelists, cloneWhitelist(wl))
	}
	return whitelists
}

// cloneWhitelist copies the hook slice so callers cannot alias stored state.
func cloneWhitelist(wl model.Whitelist) model.Whitelist {
	out := wl
	out.HookPrograms = append([]solana.PublicKey(nil), wl.HookPrograms...)
	return out
}
