package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"solana-stake-desk/internal/storage/migrations"
	pgstore "solana-stake-desk/internal/storage/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL and ClickHouse migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.PostgresDSN == "" && cfg.ClickhouseDSN == "" {
				return errors.New("nothing to migrate: set --postgres-dsn and/or --clickhouse-dsn")
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if cfg.PostgresDSN != "" {
				pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
				if err != nil {
					return fmt.Errorf("connect to postgres: %w", err)
				}
				applied, err := migrations.RunPostgresMigrations(ctx, pool)
				pool.Close()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "postgres: %d migration(s) applied\n", len(applied))
				for _, f := range applied {
					logger.WithField("file", f).Info("applied postgres migration")
				}
			}

			if cfg.ClickhouseDSN != "" {
				conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
				if err != nil {
					return err
				}
				conn.Close()
				fmt.Fprintln(out, "clickhouse: migrations applied")
			}
			return nil
		},
	}
}
