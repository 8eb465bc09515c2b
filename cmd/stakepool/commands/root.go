package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"solana-stake-desk/internal/config"
)

var (
	cfg    *config.Config
	logger *logrus.Logger
	deps   *app
)

// Execute runs the root command.
func Execute() error {
	var err error
	cfg, err = config.Load(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	root := &cobra.Command{
		Use:           "stakepool",
		Short:         "Guarded SPL stake pool operations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger = config.InitLogger(cfg.LogLevel)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if deps != nil {
				deps.Close()
				deps = nil
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.RPCEndpoint, "rpc-endpoint", cfg.RPCEndpoint, "Solana RPC HTTP endpoint")
	pf.StringVar(&cfg.WSEndpoint, "ws-endpoint", cfg.WSEndpoint, "Solana WebSocket endpoint (empty polls for confirmation)")
	pf.StringVar(&cfg.KeypairPath, "keypair", cfg.KeypairPath, "Solana CLI keypair file (empty means no wallet)")
	pf.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL DSN for the operation journal")
	pf.StringVar(&cfg.ClickhouseDSN, "clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse DSN for pool snapshots")
	pf.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the display cache")
	pf.DurationVar(&cfg.ConfirmTimeout, "confirm-timeout", cfg.ConfirmTimeout, "Confirmation wait bound")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	pf.BoolVarP(&cfg.AutoApprove, "yes", "y", cfg.AutoApprove, "Sign without prompting")

	root.AddCommand(
		depositSolCmd(), withdrawSolCmd(), depositStakeCmd(), withdrawStakeCmd(),
		addValidatorCmd(), removeValidatorCmd(), updatePoolCmd(),
		poolCmd(), historyCmd(), serveCmd(), migrateCmd(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		if logger != nil {
			logger.Error(err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		if deps != nil {
			deps.Close()
		}
		return err
	}
	return nil
}

// desk returns the shared dependency graph, building it on first use.
func desk(cmd *cobra.Command) (*app, error) {
	if deps != nil {
		return deps, nil
	}
	a, err := newApp(cmd.Context(), cfg, logger, cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	deps = a
	return deps, nil
}
