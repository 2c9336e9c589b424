package model

// OpRecord is one committed operation, as appended to the journal.
type OpRecord struct {
	Kind      string `json:"kind"`
	Pool      string `json:"pool,omitempty"`
	Actor     string `json:"actor"`
	MintA     string `json:"mint_a,omitempty"`
	MintB     string `json:"mint_b,omitempty"`
	AmountA   uint64 `json:"amount_a,omitempty"`
	AmountB   uint64 `json:"amount_b,omitempty"`
	AssetIn   string `json:"asset_in,omitempty"`
	AmountIn  uint64 `json:"amount_in,omitempty"`
	AmountOut uint64 `json:"amount_out,omitempty"`
	LPAmount  uint64 `json:"lp_amount,omitempty"`
	FeeBps    uint16 `json:"fee_bps,omitempty"`
	Hook      string `json:"hook,omitempty"`
	AppliedAt string `json:"applied_at"`
}

// Operation kinds recorded in the journal.
const (
	OpCreatePool      = "create_pool"
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
	OpSwap            = "swap"
	OpInitWhitelist   = "init_whitelist"
	OpWhitelistHook   = "whitelist_hook"
	OpRemoveHook      = "remove_hook"
)
