// Package postgres persists AMM records and ledger balances. Unlike the
// in-memory ledger it never invokes hook programs itself: hook execution
// belongs to the chain-side transfer subsystem, and by the time a transfer
// reaches this store the engine has already cleared its hook.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hookswap/internal/model"
	"hookswap/internal/storage"
)

// Store provides Postgres persistence for pools, whitelists, and balances.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pools (
			address TEXT PRIMARY KEY,
			mint_a TEXT NOT NULL,
			mint_b TEXT NOT NULL,
			lp_mint TEXT NOT NULL,
			reserve_a BIGINT NOT NULL,
			reserve_b BIGINT NOT NULL,
			lp_supply BIGINT NOT NULL,
			fee_bps INT NOT NULL,
			allowed_hook TEXT NOT NULL,
			bump INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS whitelists (
			address TEXT PRIMARY KEY,
			admin TEXT NOT NULL,
			hook_programs TEXT[] NOT NULL,
			bump INT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS mints (
			address TEXT PRIMARY KEY,
			decimals INT NOT NULL,
			hook TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS balances (
			mint TEXT NOT NULL,
			owner TEXT NOT NULL,
			amount BIGINT NOT NULL,
			PRIMARY KEY (mint, owner)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) CreatePool(ctx context.Context, pool model.Pool) error {
	args, err := poolArgs(pool)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO pools (
			address, mint_a, mint_b, lp_mint, reserve_a, reserve_b, lp_supply, fee_bps, allowed_hook, bump
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (address) DO NOTHING
	`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pool %s: %w", pool.Address, storage.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) PutPool(ctx context.Context, pool model.Pool) error {
	args, err := poolArgs(pool)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pools (
			address, mint_a, mint_b, lp_mint, reserve_a, reserve_b, lp_supply, fee_bps, allowed_hook, bump
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (address)
		DO UPDATE SET
			reserve_a = EXCLUDED.reserve_a,
			reserve_b = EXCLUDED.reserve_b,
			lp_supply = EXCLUDED.lp_supply,
			updated_at = now()
	`, args...)
	return err
}

func poolArgs(pool model.Pool) ([]any, error) {
	reserveA, err := toBigint(pool.ReserveA)
	if err != nil {
		return nil, fmt.Errorf("reserve_a: %w", err)
	}
	reserveB, err := toBigint(pool.ReserveB)
	if err != nil {
		return nil, fmt.Errorf("reserve_b: %w", err)
	}
	lpSupply, err := toBigint(pool.LPSupply)
	if err != nil {
		return nil, fmt.Errorf("lp_supply: %w", err)
	}
	return []any{
		pool.Address.String(),
		pool.MintA.String(),
		pool.MintB.String(),
		pool.LPMint.String(),
		reserveA,
		reserveB,
		lpSupply,
		int32(pool.FeeBps),
		pool.AllowedHook.String(),
		int16(pool.Bump),
	}, nil
}

// toBigint guards the conversion into a BIGINT column; values past the
// signed range would otherwise flip negative on the way in.
func toBigint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("value %d exceeds bigint range", v)
	}
	return int64(v), nil
}

func (s *Store) GetPool(ctx context.Context, addr solana.PublicKey) (model.Pool, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT address, mint_a, mint_b, lp_mint, reserve_a, reserve_b, lp_supply, fee_bps, allowed_hook, bump
		FROM pools WHERE address = $1
	`, addr.String())

	var (
		address, mintA, mintB, lpMint, allowedHook string
		reserveA, reserveB, lpSupply               int64
		feeBps                                     int32
		bump                                       int16
	)
	if err := row.Scan(&address, &mintA, &mintB, &lpMint, &reserveA, &reserveB, &lpSupply, &feeBps, &allowedHook, &bump); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pool{}, false, nil
		}
		return model.Pool{}, false, err
	}

	pool := model.Pool{
		ReserveA: uint64(reserveA),
		ReserveB: uint64(reserveB),
		LPSupply: uint64(lpSupply),
		FeeBps:   uint16(feeBps),
		Bump:     uint8(bump),
	}
	var err error
	if pool.Address, err = solana.PublicKeyFromBase58(address); err != nil {
		return model.Pool{}, false, fmt.Errorf("parse pool address: %w", err)
	}
	if pool.MintA, err = solana.PublicKeyFromBase58(mintA); err != nil {
		return model.Pool{}, false, fmt.Errorf("parse mint_a: %w", err)
	}
	if pool.MintB, err = solana.PublicKeyFromBase58(mintB); err != nil {
		return model.Pool{}, false, fmt.Errorf("parse mint_b: %w", err)
	}
	if pool.LPMint, err = solana.PublicKeyFromBase58(lpMint); err != nil {
		return model.Pool{}, false, fmt.Errorf("parse lp_mint: %w", err)
	}
	if pool.AllowedHook, err = solana.PublicKeyFromBase58(allowedHook); err != nil {
		return model.Pool{}, false, fmt.Errorf("parse allowed_hook: %w", err)
	}
	return pool, true, nil
}

func (s *Store) CreateWhitelist(ctx context.Context, wl model.Whitelist) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO whitelists (address, admin, hook_programs, bump)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING
	`, wl.Address.String(), wl.Admin.String(), encodeHooks(wl.HookPrograms), int16(wl.Bump))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("whitelist %s: %w", wl.Address, storage.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) PutWhitelist(ctx context.Context, wl model.Whitelist) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO whitelists (address, admin, hook_programs, bump)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address)
		DO UPDATE SET
			hook_programs = EXCLUDED.hook_programs,
			updated_at = now()
	`, wl.Address.String(), wl.Admin.String(), encodeHooks(wl.HookPrograms), int16(wl.Bump))
	return err
}

func (s *Store) GetWhitelist(ctx context.Context, addr solana.PublicKey) (model.Whitelist, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT address, admin, hook_programs, bump FROM whitelists WHERE address = $1
	`, addr.String())

	var (
		address, adminKey string
		hooks             []string
		bump              int16
	)
	if err := row.Scan(&address, &adminKey, &hooks, &bump); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Whitelist{}, false, nil
		}
		return model.Whitelist{}, false, err
	}

	wl := model.Whitelist{Bump: uint8(bump)}
	var err error
	if wl.Address, err = solana.PublicKeyFromBase58(address); err != nil {
		return model.Whitelist{}, false, fmt.Errorf("parse whitelist address: %w", err)
	}
	if wl.Admin, err = solana.PublicKeyFromBase58(adminKey); err != nil {
		return model.Whitelist{}, false, fmt.Errorf("parse admin: %w", err)
	}
	for _, hook := range hooks {
		key, err := solana.PublicKeyFromBase58(hook)
		if err != nil {
			return model.Whitelist{}, false, fmt.Errorf("parse hook program: %w", err)
		}
		wl.HookPrograms = append(wl.HookPrograms, key)
	}
	return wl, true, nil
}

func encodeHooks(hooks []solana.PublicKey) []string {
	out := make([]string, 0, len(hooks))
	for _, hook := range hooks {
		out = append(out, hook.String())
	}
	return out
}
