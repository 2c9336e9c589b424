package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hookswap/internal/amm"
	"hookswap/internal/config"
	"hookswap/internal/metrics"
	"hookswap/internal/model"
	"hookswap/internal/storage"
	"hookswap/internal/storage/postgres"
	"hookswap/internal/token"
)

func main() {
	root := &cobra.Command{
		Use:          "ammd",
		Short:        "Hook-gated AMM accounting engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN (omit to use the local state file)")
	root.PersistentFlags().String("state-file", "./data/state.json", "local state file path")
	root.PersistentFlags().String("journal", "./data/journal.jsonl", "operation journal path (empty disables)")
	root.PersistentFlags().String("program-id", "", "program id anchoring derived addresses")
	root.PersistentFlags().Uint64("ratio-tolerance", 0, "allowed share-count difference on deposits")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		registerMintCmd(),
		mintToCmd(),
		initWhitelistCmd(),
		whitelistHookCmd(),
		removeHookCmd(),
		createPoolCmd(),
		addLiquidityCmd(),
		removeLiquidityCmd(),
		swapCmd(),
		quoteCmd(),
		showPoolCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// runtime bundles the engine with its backing state for one invocation.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	engine *amm.Engine
	ledger token.Ledger
	save   func() error
	close  func()
}

func setup(cmd *cobra.Command) (*runtime, error) {
	ctx := cmd.Context()

	cfgFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if cfg.ProgramID != "" {
		programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
		if err != nil {
			return nil, fmt.Errorf("parse program id: %w", err)
		}
		model.ProgramID = programID
	}

	var journal *storage.Journal
	if cfg.Journal != "" {
		journal = storage.NewJournal(cfg.Journal)
	}
	engineMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	engineCfg := amm.Config{RatioTolerance: cfg.RatioTolerance}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return &runtime{
			cfg:    cfg,
			logger: logger,
			engine: amm.NewEngine(engineCfg, store, store, journal, engineMetrics, logger),
			ledger: store,
			save:   func() error { return nil },
			close:  store.Close,
		}, nil
	}

	memStore := storage.NewMemoryStore()
	memLedger := token.NewMemoryLedger()
	snap, ok, err := storage.LoadSnapshot(cfg.StateFile)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := snap.Restore(ctx, memStore, memLedger); err != nil {
			return nil, err
		}
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		engine: amm.NewEngine(engineCfg, memStore, memLedger, journal, engineMetrics, logger),
		ledger: memLedger,
		save:   func() error { return storage.SaveSnapshot(cfg.StateFile, memStore, memLedger) },
		close:  func() {},
	}, nil
}

// run wraps a command body with setup, state persistence, and teardown.
func run(cmd *cobra.Command, body func(ctx context.Context, rt *runtime) error) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close()
	defer rt.logger.Sync()

	if err := body(cmd.Context(), rt); err != nil {
		return err
	}
	return rt.save()
}

func registerMintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register-mint",
		Short: "Register an asset mint with the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				mint, err := pubkeyFlag(cmd, "mint")
				if err != nil {
					return err
				}
				hook, err := optionalPubkeyFlag(cmd, "hook")
				if err != nil {
					return err
				}
				decimals, err := cmd.Flags().GetUint8("decimals")
				if err != nil {
					return err
				}

				if err := rt.ledger.RegisterMint(token.MintInfo{Address: mint, Decimals: decimals, Hook: hook}); err != nil {
					return err
				}
				rt.logger.Info("mint registered", zap.String("mint", mint.String()), zap.Uint8("decimals", decimals))
				return nil
			})
		},
	}
	cmd.Flags().String("mint", "", "mint address")
	cmd.Flags().Uint8("decimals", 0, "mint decimals")
	cmd.Flags().String("hook", "", "declared transfer-hook program (optional)")
	return cmd
}

func mintToCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint-to",
		Short: "Credit an owner with units of a mint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				mint, err := pubkeyFlag(cmd, "mint")
				if err != nil {
					return err
				}
				to, err := pubkeyFlag(cmd, "to")
				if err != nil {
					return err
				}
				amount, err := cmd.Flags().GetUint64("amount")
				if err != nil {
					return err
				}

				if err := rt.ledger.MintTo(ctx, mint, to, amount); err != nil {
					return err
				}
				fmt.Printf("balance: %d\n", rt.ledger.Balance(mint, to))
				return nil
			})
		},
	}
	cmd.Flags().String("mint", "", "mint address")
	cmd.Flags().String("to", "", "recipient address")
	cmd.Flags().Uint64("amount", 0, "amount in native units")
	return cmd
}

func initWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-whitelist",
		Short: "Create the global hook whitelist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				adminKey, err := pubkeyFlag(cmd, "admin")
				if err != nil {
					return err
				}

				wl, err := rt.engine.InitWhitelist(ctx, adminKey)
				if err != nil {
					return err
				}
				fmt.Printf("whitelist: %s\n", wl.Address)
				return nil
			})
		},
	}
	cmd.Flags().String("admin", "", "administrator identity")
	return cmd
}

func whitelistHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist-hook",
		Short: "Approve a transfer-hook program",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				adminKey, err := pubkeyFlag(cmd, "admin")
				if err != nil {
					return err
				}
				hook, err := pubkeyFlag(cmd, "hook")
				if err != nil {
					return err
				}
				return rt.engine.WhitelistHook(ctx, adminKey, hook)
			})
		},
	}
	cmd.Flags().String("admin", "", "administrator identity")
	cmd.Flags().String("hook", "", "hook program to approve")
	return cmd
}

func removeHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-hook",
		Short: "Revoke an approved transfer-hook program",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				adminKey, err := pubkeyFlag(cmd, "admin")
				if err != nil {
					return err
				}
				hook, err := pubkeyFlag(cmd, "hook")
				if err != nil {
					return err
				}
				return rt.engine.RemoveHook(ctx, adminKey, hook)
			})
		},
	}
	cmd.Flags().String("admin", "", "administrator identity")
	cmd.Flags().String("hook", "", "hook program to revoke")
	return cmd
}

func createPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-pool",
		Short: "Create a pool for a pair at a fee tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				payer, err := pubkeyFlag(cmd, "payer")
				if err != nil {
					return err
				}
				mintA, mintB, feeBps, err := pairFlags(cmd)
				if err != nil {
					return err
				}
				allowedHook, err := optionalPubkeyFlag(cmd, "allowed-hook")
				if err != nil {
					return err
				}

				pool, err := rt.engine.CreatePool(ctx, payer, mintA, mintB, feeBps, allowedHook)
				if err != nil {
					return err
				}
				fmt.Printf("pool: %s\nlp mint: %s\n", pool.Address, pool.LPMint)
				return nil
			})
		},
	}
	cmd.Flags().String("payer", "", "payer identity")
	addPairFlags(cmd)
	cmd.Flags().String("allowed-hook", "", "hook program this pool permits (optional)")
	return cmd
}

func addLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Deposit both assets and mint LP shares",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				depositor, err := pubkeyFlag(cmd, "depositor")
				if err != nil {
					return err
				}
				poolAddr, err := poolAddrFromFlags(cmd)
				if err != nil {
					return err
				}
				amountA, err := cmd.Flags().GetUint64("amount-a")
				if err != nil {
					return err
				}
				amountB, err := cmd.Flags().GetUint64("amount-b")
				if err != nil {
					return err
				}

				minted, err := rt.engine.AddLiquidity(ctx, depositor, poolAddr, amountA, amountB)
				if err != nil {
					return err
				}
				fmt.Printf("lp minted: %d\n", minted)
				return nil
			})
		},
	}
	cmd.Flags().String("depositor", "", "depositor identity")
	addPairFlags(cmd)
	cmd.Flags().Uint64("amount-a", 0, "amount of asset A (canonical order)")
	cmd.Flags().Uint64("amount-b", 0, "amount of asset B (canonical order)")
	return cmd
}

func removeLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-liquidity",
		Short: "Burn LP shares and withdraw both assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				owner, err := pubkeyFlag(cmd, "owner")
				if err != nil {
					return err
				}
				poolAddr, err := poolAddrFromFlags(cmd)
				if err != nil {
					return err
				}
				lpAmount, err := cmd.Flags().GetUint64("lp-amount")
				if err != nil {
					return err
				}

				amountA, amountB, err := rt.engine.RemoveLiquidity(ctx, owner, poolAddr, lpAmount)
				if err != nil {
					return err
				}
				fmt.Printf("withdrawn: %d / %d\n", amountA, amountB)
				return nil
			})
		},
	}
	cmd.Flags().String("owner", "", "LP share owner")
	addPairFlags(cmd)
	cmd.Flags().Uint64("lp-amount", 0, "LP shares to burn")
	return cmd
}

func swapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap against the pool's constant-product curve",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				trader, err := pubkeyFlag(cmd, "trader")
				if err != nil {
					return err
				}
				poolAddr, err := poolAddrFromFlags(cmd)
				if err != nil {
					return err
				}
				assetIn, err := pubkeyFlag(cmd, "asset-in")
				if err != nil {
					return err
				}
				amountIn, err := cmd.Flags().GetUint64("amount-in")
				if err != nil {
					return err
				}
				minAmountOut, err := cmd.Flags().GetUint64("min-amount-out")
				if err != nil {
					return err
				}

				amountOut, err := rt.engine.Swap(ctx, trader, poolAddr, assetIn, amountIn, minAmountOut)
				if err != nil {
					return err
				}
				fmt.Printf("amount out: %d\n", amountOut)
				return nil
			})
		},
	}
	cmd.Flags().String("trader", "", "trader identity")
	addPairFlags(cmd)
	cmd.Flags().String("asset-in", "", "input asset mint")
	cmd.Flags().Uint64("amount-in", 0, "input amount")
	cmd.Flags().Uint64("min-amount-out", 0, "minimum acceptable output")
	return cmd
}

func quoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview a swap without executing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				poolAddr, err := poolAddrFromFlags(cmd)
				if err != nil {
					return err
				}
				assetIn, err := pubkeyFlag(cmd, "asset-in")
				if err != nil {
					return err
				}
				amountIn, err := cmd.Flags().GetUint64("amount-in")
				if err != nil {
					return err
				}

				amountOut, err := rt.engine.Quote(ctx, poolAddr, assetIn, amountIn)
				if err != nil {
					return err
				}
				fmt.Printf("amount out: %d\n", amountOut)
				return nil
			})
		},
	}
	addPairFlags(cmd)
	cmd.Flags().String("asset-in", "", "input asset mint")
	cmd.Flags().Uint64("amount-in", 0, "input amount")
	return cmd
}

func showPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show-pool",
		Short: "Print a pool record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				mintA, mintB, feeBps, err := pairFlags(cmd)
				if err != nil {
					return err
				}

				pool, err := rt.engine.Pool(ctx, mintA, mintB, feeBps)
				if err != nil {
					return err
				}
				fmt.Printf("pool:         %s\n", pool.Address)
				fmt.Printf("mint a:       %s\n", pool.MintA)
				fmt.Printf("mint b:       %s\n", pool.MintB)
				fmt.Printf("lp mint:      %s\n", pool.LPMint)
				fmt.Printf("reserves:     %d / %d\n", pool.ReserveA, pool.ReserveB)
				fmt.Printf("lp supply:    %d\n", pool.LPSupply)
				fmt.Printf("fee bps:      %d\n", pool.FeeBps)
				fmt.Printf("allowed hook: %s\n", pool.AllowedHook)
				return nil
			})
		},
	}
	addPairFlags(cmd)
	return cmd
}

func addPairFlags(cmd *cobra.Command) {
	cmd.Flags().String("mint-a", "", "first asset mint")
	cmd.Flags().String("mint-b", "", "second asset mint")
	cmd.Flags().Uint16("fee-bps", 30, "fee tier in basis points")
}

func pairFlags(cmd *cobra.Command) (solana.PublicKey, solana.PublicKey, uint16, error) {
	mintA, err := pubkeyFlag(cmd, "mint-a")
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, 0, err
	}
	mintB, err := pubkeyFlag(cmd, "mint-b")
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, 0, err
	}
	feeBps, err := cmd.Flags().GetUint16("fee-bps")
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, 0, err
	}
	return mintA, mintB, feeBps, nil
}

func poolAddrFromFlags(cmd *cobra.Command) (solana.PublicKey, error) {
	mintA, mintB, feeBps, err := pairFlags(cmd)
	if err != nil {
		return solana.PublicKey{}, err
	}
	addr, _, err := model.PoolAddress(mintA, mintB, feeBps)
	return addr, err
}

func pubkeyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("parse --%s: %w", name, err)
	}
	return key, nil
}

func optionalPubkeyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if value == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("parse --%s: %w", name, err)
	}
	return key, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
