package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/storage"
)

// PoolSnapshotStore implements storage.PoolSnapshotStore using ClickHouse.
type PoolSnapshotStore struct {
	conn *Conn
}

// NewPoolSnapshotStore creates a new PoolSnapshotStore.
func NewPoolSnapshotStore(conn *Conn) *PoolSnapshotStore {
	return &PoolSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PoolSnapshotStore = (*PoolSnapshotStore)(nil)

const snapshotColumns = `
	pool, observed_at, total_lamports, pool_token_supply, last_update_epoch,
	sol_deposit_fee_bps, sol_withdraw_fee_bps, stake_withdraw_fee_bps
`

// Insert adds a snapshot. Returns ErrDuplicateKey if (pool, observed_at) exists.
// MergeTree does not enforce uniqueness, so the key is checked before insert.
func (s *PoolSnapshotStore) Insert(ctx context.Context, snap *domain.PoolSnapshot) (err error) {
	if snap == nil || snap.Pool == "" || snap.ObservedAt < 0 {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observe("insert_pool_snapshot", start, err) }()

	exists, err := s.exists(ctx, snap.Pool, snap.ObservedAt)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO pool_snapshots (`+snapshotColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	err = batch.Append(
		snap.Pool, uint64(snap.ObservedAt), snap.TotalLamports, snap.PoolTokenSupply, snap.LastUpdateEpoch,
		snap.SolDepositFeeBps, snap.SolWithdrawFeeBps, snap.StakeWithdrawFeeBps,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves snapshots for a pool within [start, end] (inclusive).
func (s *PoolSnapshotStore) GetByTimeRange(ctx context.Context, pool string, start, end int64) ([]*domain.PoolSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM pool_snapshots
		WHERE pool = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, pool, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Latest retrieves the most recent snapshot for a pool.
func (s *PoolSnapshotStore) Latest(ctx context.Context, pool string) (*domain.PoolSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM pool_snapshots
		WHERE pool = ?
		ORDER BY observed_at DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, storage.ErrNotFound
	}
	return snaps[0], nil
}

func (s *PoolSnapshotStore) exists(ctx context.Context, pool string, observedAt int64) (bool, error) {
	query := `
		SELECT count(*) FROM pool_snapshots
		WHERE pool = ? AND observed_at = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, pool, uint64(observedAt)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanSnapshots(rows chRows) ([]*domain.PoolSnapshot, error) {
	var snaps []*domain.PoolSnapshot

	for rows.Next() {
		var s domain.PoolSnapshot
		var observedAt uint64
		err := rows.Scan(
			&s.Pool, &observedAt, &s.TotalLamports, &s.PoolTokenSupply, &s.LastUpdateEpoch,
			&s.SolDepositFeeBps, &s.SolWithdrawFeeBps, &s.StakeWithdrawFeeBps,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		s.ObservedAt = int64(observedAt)
		snaps = append(snaps, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return snaps, nil
}
