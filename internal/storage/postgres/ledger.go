package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"

	"hookswap/internal/token"
)

// The Store doubles as the token.Ledger for deployments that keep balances
// in Postgres. Each movement runs in one transaction so a failed step never
// leaves a half-applied transfer.

func (s *Store) RegisterMint(info token.MintInfo) error {
	ctx := context.Background()
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO mints (address, decimals, hook)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO NOTHING
	`, info.Address.String(), int16(info.Decimals), info.Hook.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mint %s already registered", info.Address)
	}
	return nil
}

func (s *Store) MintInfo(mint solana.PublicKey) (token.MintInfo, error) {
	ctx := context.Background()
	row := s.pool.QueryRow(ctx, `SELECT address, decimals, hook FROM mints WHERE address = $1`, mint.String())

	var (
		address, hook string
		decimals      int16
	)
	if err := row.Scan(&address, &decimals, &hook); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return token.MintInfo{}, fmt.Errorf("%w: %s", token.ErrUnknownMint, mint)
		}
		return token.MintInfo{}, err
	}

	info := token.MintInfo{Decimals: uint8(decimals)}
	var err error
	if info.Address, err = solana.PublicKeyFromBase58(address); err != nil {
		return token.MintInfo{}, fmt.Errorf("parse mint address: %w", err)
	}
	if info.Hook, err = solana.PublicKeyFromBase58(hook); err != nil {
		return token.MintInfo{}, fmt.Errorf("parse mint hook: %w", err)
	}
	return info, nil
}

func (s *Store) MintTo(ctx context.Context, mint, to solana.PublicKey, amount uint64) error {
	if _, err := s.MintInfo(mint); err != nil {
		return err
	}
	value, err := toBigint(amount)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO balances (mint, owner, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (mint, owner)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount
	`, mint.String(), to.String(), value)
	return err
}

func (s *Store) Burn(ctx context.Context, mint, from solana.PublicKey, amount uint64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := debit(ctx, tx, mint, from, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Transfer(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error {
	if _, err := s.MintInfo(mint); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := debit(ctx, tx, mint, from, amount); err != nil {
		return err
	}
	value, err := toBigint(amount)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO balances (mint, owner, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (mint, owner)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount
	`, mint.String(), to.String(), value); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Balance returns the owner's balance, or zero on any lookup failure; the
// Ledger contract keeps reads infallible.
func (s *Store) Balance(mint, owner solana.PublicKey) uint64 {
	ctx := context.Background()
	var amount int64
	row := s.pool.QueryRow(ctx, `SELECT amount FROM balances WHERE mint = $1 AND owner = $2`, mint.String(), owner.String())
	if err := row.Scan(&amount); err != nil {
		return 0
	}
	return uint64(amount)
}

func debit(ctx context.Context, tx pgx.Tx, mint, owner solana.PublicKey, amount uint64) error {
	value, err := toBigint(amount)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE balances SET amount = amount - $3
		WHERE mint = $1 AND owner = $2 AND amount >= $3
	`, mint.String(), owner.String(), value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: debit %d of %s from %s", token.ErrInsufficientFunds, amount, mint, owner)
	}
	return nil
}
