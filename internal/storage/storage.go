package storage

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"hookswap/internal/model"
)

// ErrAlreadyExists is returned when creating a record at an occupied address.
var ErrAlreadyExists = errors.New("record already exists")

// Store persists pool and whitelist records at their derived addresses.
// Per-record write exclusivity within one operation is a guarantee of the
// surrounding substrate; implementations here only need to be safe for
// concurrent use.
type Store interface {
	CreatePool(ctx context.Context, pool model.Pool) error
	PutPool(ctx context.Context, pool model.Pool) error
	GetPool(ctx context.Context, addr solana.PublicKey) (model.Pool, bool, error)

	CreateWhitelist(ctx context.Context, wl model.Whitelist) error
	PutWhitelist(ctx context.Context, wl model.Whitelist) error
	GetWhitelist(ctx context.Context, addr solana.PublicKey) (model.Whitelist, bool, error)
}
