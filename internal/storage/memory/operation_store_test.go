package memory

import (
	"context"
	"errors"
	"testing"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/storage"
)

func newRecord(id, wallet, pool string, startedAt int64) *domain.OperationRecord {
	return &domain.OperationRecord{
		ID:         id,
		Kind:       domain.OpDepositValue,
		Pool:       pool,
		Wallet:     wallet,
		Status:     domain.StatusConfirmed,
		StartedAt:  startedAt,
		FinishedAt: startedAt + 500,
		CreatedAt:  startedAt + 500,
	}
}

func TestOperationStore_InsertAndGet(t *testing.T) {
	store := NewOperationStore()
	ctx := context.Background()

	sig := "5sig"
	rec := newRecord("op1", "w1", "p1", 1000)
	rec.Signature = &sig

	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "op1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Signature == nil || *got.Signature != sig {
		t.Errorf("Signature mismatch: got %v", got.Signature)
	}

	// Returned records are copies
	got.Pool = "mutated"
	again, _ := store.GetByID(ctx, "op1")
	if again.Pool != "p1" {
		t.Errorf("store was mutated through returned record")
	}
}

func TestOperationStore_DuplicateKey(t *testing.T) {
	store := NewOperationStore()
	ctx := context.Background()

	rec := newRecord("op1", "w1", "p1", 1000)
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, rec); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestOperationStore_InvalidInput(t *testing.T) {
	store := NewOperationStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil record: expected ErrInvalidInput, got %v", err)
	}
	rec := newRecord("", "w1", "p1", 1)
	if err := store.Insert(ctx, rec); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty id: expected ErrInvalidInput, got %v", err)
	}
	rec = newRecord("op", "w1", "p1", 1)
	rec.Kind = "SWAP"
	if err := store.Insert(ctx, rec); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("unknown kind: expected ErrInvalidInput, got %v", err)
	}
}

func TestOperationStore_NotFound(t *testing.T) {
	store := NewOperationStore()
	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestOperationStore_ListNewestFirst(t *testing.T) {
	store := NewOperationStore()
	ctx := context.Background()

	for _, r := range []*domain.OperationRecord{
		newRecord("a", "w1", "p1", 1000),
		newRecord("b", "w1", "p2", 3000),
		newRecord("c", "w2", "p1", 2000),
		newRecord("d", "w1", "p1", 2000),
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.ID, err)
		}
	}

	byWallet, err := store.ListByWallet(ctx, "w1", 0)
	if err != nil {
		t.Fatalf("ListByWallet failed: %v", err)
	}
	want := []string{"b", "d", "a"}
	if len(byWallet) != len(want) {
		t.Fatalf("ListByWallet len = %d, want %d", len(byWallet), len(want))
	}
	for i, id := range want {
		if byWallet[i].ID != id {
			t.Errorf("ListByWallet[%d] = %s, want %s", i, byWallet[i].ID, id)
		}
	}

	limited, _ := store.ListByWallet(ctx, "w1", 2)
	if len(limited) != 2 {
		t.Errorf("limit not applied: got %d", len(limited))
	}

	byPool, _ := store.ListByPool(ctx, "p1", 0)
	if len(byPool) != 3 || byPool[0].ID != "c" || byPool[1].ID != "d" || byPool[2].ID != "a" {
		t.Errorf("ListByPool order wrong: %v", ids(byPool))
	}
}

func ids(records []*domain.OperationRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
