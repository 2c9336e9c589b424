package model

import "github.com/gagliardetto/solana-go"

// Pool is the accounting record for one trading pair at one fee tier.
// MintA and MintB are stored in canonical (byte-wise ascending) order, so a
// pair maps to exactly one record. AllowedHook is the zero key when the pool
// permits no transfer hook.
type Pool struct {
	Address     solana.PublicKey `json:"address"`
	MintA       solana.PublicKey `json:"mint_a"`
	MintB       solana.PublicKey `json:"mint_b"`
	LPMint      solana.PublicKey `json:"lp_mint"`
	ReserveA    uint64           `json:"reserve_a"`
	ReserveB    uint64           `json:"reserve_b"`
	LPSupply    uint64           `json:"lp_supply"`
	FeeBps      uint16           `json:"fee_bps"`
	AllowedHook solana.PublicKey `json:"allowed_hook"`
	Bump        uint8            `json:"bump"`
}

// Empty reports whether the pool holds no liquidity. The record invariant is
// that reserves and LP supply are zero together or positive together.
func (p *Pool) Empty() bool {
	return p.LPSupply == 0
}

// HasAsset reports whether mint is one of the pool's two assets.
func (p *Pool) HasAsset(mint solana.PublicKey) bool {
	return mint.Equals(p.MintA) || mint.Equals(p.MintB)
}
