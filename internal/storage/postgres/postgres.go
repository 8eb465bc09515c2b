// Package postgres stores the operation journal.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"solana-stake-desk/internal/observability"
)

const applicationName = "stakedesk"

// Pool is a pinged pgx connection pool.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects and pings. The journal writes one row per operation, so a
// small pool is enough.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute
	if cfg.ConnConfig.RuntimeParams["application_name"] == "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", cfg.ConnConfig.Host, err)
	}
	return &Pool{Pool: pool}, nil
}

// Close closes the pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// InTx runs fn in a transaction, committing when fn returns nil.
func (p *Pool) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// uniqueViolation reports a unique or primary key conflict (SQLSTATE 23505).
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func observe(operation string, start time.Time, err error) {
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}
