package memory

import (
	"context"
	"errors"
	"testing"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/storage"
)

func TestPoolSnapshotStore_InsertOutOfOrder(t *testing.T) {
	store := NewPoolSnapshotStore()
	ctx := context.Background()

	for _, ts := range []int64{3000, 1000, 2000} {
		err := store.Insert(ctx, &domain.PoolSnapshot{Pool: "p1", ObservedAt: ts, TotalLamports: uint64(ts)})
		if err != nil {
			t.Fatalf("Insert %d failed: %v", ts, err)
		}
	}

	got, err := store.GetByTimeRange(ctx, "p1", 0, 5000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, ts := range []int64{1000, 2000, 3000} {
		if got[i].ObservedAt != ts {
			t.Errorf("got[%d].ObservedAt = %d, want %d", i, got[i].ObservedAt, ts)
		}
	}

	latest, err := store.Latest(ctx, "p1")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ObservedAt != 3000 {
		t.Errorf("Latest.ObservedAt = %d, want 3000", latest.ObservedAt)
	}
}

func TestPoolSnapshotStore_TimeRangeInclusive(t *testing.T) {
	store := NewPoolSnapshotStore()
	ctx := context.Background()

	for _, ts := range []int64{1000, 2000, 3000, 4000} {
		_ = store.Insert(ctx, &domain.PoolSnapshot{Pool: "p1", ObservedAt: ts})
	}
	_ = store.Insert(ctx, &domain.PoolSnapshot{Pool: "p2", ObservedAt: 2000})

	got, _ := store.GetByTimeRange(ctx, "p1", 2000, 3000)
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestPoolSnapshotStore_DuplicateKey(t *testing.T) {
	store := NewPoolSnapshotStore()
	ctx := context.Background()

	snap := &domain.PoolSnapshot{Pool: "p1", ObservedAt: 1000}
	if err := store.Insert(ctx, snap); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, snap); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	// Same timestamp for another pool is fine
	if err := store.Insert(ctx, &domain.PoolSnapshot{Pool: "p2", ObservedAt: 1000}); err != nil {
		t.Errorf("Insert for other pool failed: %v", err)
	}
}

func TestPoolSnapshotStore_LatestNotFound(t *testing.T) {
	store := NewPoolSnapshotStore()
	if _, err := store.Latest(context.Background(), "none"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Insert(context.Background(), &domain.PoolSnapshot{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
