package storage

import (
	"context"

	"solana-stake-desk/internal/domain"
)

// OperationStore provides access to operation_journal storage.
// The journal is caller-owned history; the orchestrator never reads it.
type OperationStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.OperationRecord) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.OperationRecord, error)

	// ListByWallet retrieves the newest records for a wallet, ordered by started_at DESC.
	// limit <= 0 means no limit.
	ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.OperationRecord, error)

	// ListByPool retrieves the newest records for a pool, ordered by started_at DESC.
	ListByPool(ctx context.Context, pool string, limit int) ([]*domain.OperationRecord, error)
}

// PoolSnapshotStore provides access to pool_snapshots storage.
type PoolSnapshotStore interface {
	// Insert adds a snapshot. Returns ErrDuplicateKey if (pool, observed_at) exists.
	Insert(ctx context.Context, s *domain.PoolSnapshot) error

	// GetByTimeRange retrieves snapshots for a pool within [start, end] (inclusive), ordered by observed_at ASC.
	GetByTimeRange(ctx context.Context, pool string, start, end int64) ([]*domain.PoolSnapshot, error)

	// Latest retrieves the most recent snapshot for a pool. Returns ErrNotFound if none.
	Latest(ctx context.Context, pool string) (*domain.PoolSnapshot, error)
}
