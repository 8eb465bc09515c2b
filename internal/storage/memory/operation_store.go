package memory

import (
	"context"
	"sort"
	"sync"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/storage"
)

// OperationStore is an in-memory implementation of storage.OperationStore.
type OperationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.OperationRecord // keyed by id
}

// NewOperationStore creates a new in-memory operation store.
func NewOperationStore() *OperationStore {
	return &OperationStore{
		data: make(map[string]*domain.OperationRecord),
	}
}

// Compile-time interface check.
var _ storage.OperationStore = (*OperationStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *OperationStore) Insert(_ context.Context, r *domain.OperationRecord) error {
	if r == nil || r.ID == "" || !r.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.ID] = &copy
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *OperationStore) GetByID(_ context.Context, id string) (*domain.OperationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

// ListByWallet retrieves the newest records for a wallet.
func (s *OperationStore) ListByWallet(_ context.Context, wallet string, limit int) ([]*domain.OperationRecord, error) {
	return s.list(func(r *domain.OperationRecord) bool { return r.Wallet == wallet }, limit), nil
}

// ListByPool retrieves the newest records for a pool.
func (s *OperationStore) ListByPool(_ context.Context, pool string, limit int) ([]*domain.OperationRecord, error) {
	return s.list(func(r *domain.OperationRecord) bool { return r.Pool == pool }, limit), nil
}

func (s *OperationStore) list(match func(*domain.OperationRecord) bool, limit int) []*domain.OperationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OperationRecord
	for _, r := range s.data {
		if match(r) {
			copy := *r
			result = append(result, &copy)
		}
	}

	// Newest first, id as tie-breaker for a stable order
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt != result[j].StartedAt {
			return result[i].StartedAt > result[j].StartedAt
		}
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
