package amm

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"hookswap/internal/metrics"
	"hookswap/internal/model"
	"hookswap/internal/storage"
	"hookswap/internal/token"
)

// Config holds engine tunables.
type Config struct {
	// RatioTolerance is the maximum allowed difference, in share counts,
	// between the two per-asset implied share totals on a deposit. Zero
	// demands ratio-exact deposits.
	RatioTolerance uint64
}

// Engine executes the core operations against a record store and the
// transfer subsystem.
type Engine struct {
	cfg     Config
	store   storage.Store
	ledger  token.Ledger
	journal *storage.Journal
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewEngine builds an Engine. journal, metricsCol and logger may be nil.
func NewEngine(cfg Config, store storage.Store, ledger token.Ledger, journal *storage.Journal, metricsCol *metrics.Metrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		store:   store,
		ledger:  ledger,
		journal: journal,
		metrics: metricsCol,
		logger:  logger,
	}
}

// Pool looks up the pool for a pair and fee tier by recomputing its derived
// address.
func (e *Engine) Pool(ctx context.Context, mintA, mintB solana.PublicKey, feeBps uint16) (model.Pool, error) {
	addr, _, err := model.PoolAddress(mintA, mintB, feeBps)
	if err != nil {
		return model.Pool{}, err
	}
	return e.loadPool(ctx, addr)
}

func (e *Engine) loadPool(ctx context.Context, addr solana.PublicKey) (model.Pool, error) {
	pool, ok, err := e.store.GetPool(ctx, addr)
	if err != nil {
		return model.Pool{}, fmt.Errorf("load pool %s: %w", addr, err)
	}
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrPoolNotFound, addr)
	}
	return pool, nil
}

// loadWhitelist returns the global whitelist, or nil if it has not been
// initialized yet. A nil whitelist rejects every hook.
func (e *Engine) loadWhitelist(ctx context.Context) (*model.Whitelist, error) {
	addr, _, err := model.WhitelistAddress()
	if err != nil {
		return nil, err
	}
	wl, ok, err := e.store.GetWhitelist(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("load whitelist: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &wl, nil
}

// clearHook enforces the whitelist gate for one mint before funds move. A
// plain mint passes trivially; a hook-bearing mint passes only if its
// declared hook equals the pool's allowed hook and that hook is in the
// global whitelist.
func (e *Engine) clearHook(mint token.MintInfo, pool *model.Pool, wl *model.Whitelist) error {
	if !mint.HookBearing() {
		return nil
	}
	if !HookAllowed(wl, mint.Hook, pool.AllowedHook) {
		return fmt.Errorf("%w: mint %s declares hook %s", ErrHookNotWhitelisted, mint.Address, mint.Hook)
	}
	return nil
}

// rollback backs out committed effects when a later ledger call fails. The
// pool record restore is recorded at construction; each applied transfer
// pushes its reverse. Steps run in reverse order.
type rollback struct {
	engine *Engine
	steps  []func(context.Context) error
}

func (e *Engine) rollbackTo(prev model.Pool) *rollback {
	rb := &rollback{engine: e}
	rb.push(func(ctx context.Context) error {
		return e.store.PutPool(ctx, prev)
	})
	return rb
}

func (rb *rollback) push(step func(context.Context) error) {
	rb.steps = append(rb.steps, step)
}

// run executes the recorded steps. A step that fails leaves the record store
// and the ledger diverged; that is logged and the remaining steps still run.
func (rb *rollback) run(ctx context.Context) {
	for i := len(rb.steps) - 1; i >= 0; i-- {
		if err := rb.steps[i](ctx); err != nil {
			rb.engine.logger.Error("rollback step failed, record and ledger diverge", zap.Error(err))
		}
	}
}

func (e *Engine) record(rec model.OpRecord) {
	rec.AppliedAt = time.Now().UTC().Format(time.RFC3339Nano)
	if err := e.journal.Append(rec); err != nil {
		e.logger.Warn("journal append failed", zap.String("kind", rec.Kind), zap.Error(err))
	}
}
