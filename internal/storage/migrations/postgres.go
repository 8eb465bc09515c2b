package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-stake-desk/internal/storage/postgres"
)

const createVersionTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at BIGINT NOT NULL
	)
`

// RunPostgresMigrations applies embedded SQL files not yet recorded in
// schema_migrations, each in its own transaction. Returns the files applied.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) ([]string, error) {
	if _, err := pool.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, file := range files {
		var done bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, file,
		).Scan(&done)
		if err != nil {
			return applied, fmt.Errorf("check migration %s: %w", file, err)
		}
		if done {
			continue
		}

		data, err := fs.ReadFile(PostgresFS, "postgres/"+file)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}

		err = pool.InTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`,
				file, time.Now().UnixMilli(),
			)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", file, err)
		}
		applied = append(applied, file)
	}

	return applied, nil
}
