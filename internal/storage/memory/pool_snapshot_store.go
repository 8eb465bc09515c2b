package memory

import (
	"context"
	"sort"
	"sync"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/storage"
)

// PoolSnapshotStore is an in-memory implementation of storage.PoolSnapshotStore.
type PoolSnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PoolSnapshot // keyed by pool, sorted by observed_at
}

// NewPoolSnapshotStore creates a new in-memory pool snapshot store.
func NewPoolSnapshotStore() *PoolSnapshotStore {
	return &PoolSnapshotStore{
		data: make(map[string][]*domain.PoolSnapshot),
	}
}

// Compile-time interface check.
var _ storage.PoolSnapshotStore = (*PoolSnapshotStore)(nil)

// Insert adds a snapshot. Returns ErrDuplicateKey if (pool, observed_at) exists.
func (s *PoolSnapshotStore) Insert(_ context.Context, snap *domain.PoolSnapshot) error {
	if snap == nil || snap.Pool == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	points := s.data[snap.Pool]
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].ObservedAt >= snap.ObservedAt
	})
	if idx < len(points) && points[idx].ObservedAt == snap.ObservedAt {
		return storage.ErrDuplicateKey
	}

	copy := *snap
	points = append(points, nil)
	// shift right to keep observed_at order
	for i := len(points) - 1; i > idx; i-- {
		points[i] = points[i-1]
	}
	points[idx] = &copy
	s.data[snap.Pool] = points
	return nil
}

// GetByTimeRange retrieves snapshots for a pool within [start, end] (inclusive).
func (s *PoolSnapshotStore) GetByTimeRange(_ context.Context, pool string, start, end int64) ([]*domain.PoolSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolSnapshot
	for _, p := range s.data[pool] {
		if p.ObservedAt >= start && p.ObservedAt <= end {
			copy := *p
			result = append(result, &copy)
		}
	}
	return result, nil
}

// Latest retrieves the most recent snapshot for a pool.
func (s *PoolSnapshotStore) Latest(_ context.Context, pool string) (*domain.PoolSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.data[pool]
	if len(points) == 0 {
		return nil, storage.ErrNotFound
	}
	copy := *points[len(points)-1]
	return &copy, nil
}
