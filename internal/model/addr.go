package model

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ProgramID anchors all derived record addresses. Overridable at startup so
// deployments against a different program keep their derivations stable.
var ProgramID = solana.MustPublicKeyFromBase58("GitqprRo8hM4V1Z7AcikDJpjYsyXXv5anyJDhE5aX6cq")

var (
	poolSeed      = []byte("pool")
	lpMintSeed    = []byte("lp_mint")
	whitelistSeed = []byte("whitelist")
)

// CanonicalPair orders two mints byte-wise ascending so either argument order
// yields the same pair.
func CanonicalPair(a, b solana.PublicKey) (solana.PublicKey, solana.PublicKey) {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		return b, a
	}
	return a, b
}

// PoolAddress derives the deterministic record address for the pair at the
// given fee tier. The mints are canonicalized first, so lookups never need a
// separate index.
func PoolAddress(mintA, mintB solana.PublicKey, feeBps uint16) (solana.PublicKey, uint8, error) {
	a, b := CanonicalPair(mintA, mintB)
	fee := make([]byte, 2)
	binary.LittleEndian.PutUint16(fee, feeBps)

	addr, bump, err := solana.FindProgramAddress([][]byte{poolSeed, a.Bytes(), b.Bytes(), fee}, ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive pool address: %w", err)
	}
	return addr, bump, nil
}

// LPMintAddress derives the pool-share mint address for a pool.
func LPMintAddress(pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{lpMintSeed, pool.Bytes()}, ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive lp mint address: %w", err)
	}
	return addr, bump, nil
}

// WhitelistAddress derives the single well-known whitelist record address.
func WhitelistAddress() (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{whitelistSeed}, ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive whitelist address: %w", err)
	}
	return addr, bump, nil
}
