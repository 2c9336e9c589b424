// Package amm implements the pool accounting and pricing engine: pool
// lifecycle, LP-share issuance and redemption, constant-product swap pricing
// with fees, and the whitelist gate consulted before any transfer that
// involves a hook-bearing mint.
//
// Every operation is an all-or-nothing unit: all validation and arithmetic
// happen before the first state write, the pool record is committed before
// any call into the transfer subsystem, and a hook callback reentering the
// engine therefore only ever observes fully updated records. If a transfer
// fails after the commit, which a cleared hook can still cause, the engine
// rolls back: transfers already applied are reversed and the prior record
// is restored. Serialization
// of concurrent operations on the same record is a guarantee of the
// surrounding execution substrate, not of this package; the in-memory store
// and ledger carry their own locks only so tests and the CLI are race-clean.
package amm
