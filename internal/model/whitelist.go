package model

import "github.com/gagliardetto/solana-go"

// Whitelist is the global set of approved transfer-hook programs. Only the
// admin identity may mutate it.
type Whitelist struct {
	Address      solana.PublicKey   `json:"address"`
	Admin        solana.PublicKey   `json:"admin"`
	HookPrograms []solana.PublicKey `json:"hook_programs"`
	Bump         uint8              `json:"bump"`
}

// Contains reports whether hook is in the approved set.
func (w *Whitelist) Contains(hook solana.PublicKey) bool {
	for _, h := range w.HookPrograms {
		if h.Equals(hook) {
			return true
		}
	}
	return false
}
