package journal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/guard"
	"solana-stake-desk/internal/ops"
	"solana-stake-desk/internal/storage/memory"
	"solana-stake-desk/internal/submit"
)

const (
	testPool   = "SPoo1Ku8WFXoNDMHPsrGSTSG1Y47rzgn41SLUNakuHy"
	testWallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
)

type fakeExecutor struct {
	out ops.Outcome
	err error
}

func (f *fakeExecutor) Execute(_ context.Context, req ops.Request) (ops.Outcome, error) {
	if err := req.Validate(); err != nil {
		return ops.Outcome{}, err
	}
	out := f.out
	out.Kind = req.Kind
	return out, f.err
}

func depositRequest(amount string) ops.Request {
	return ops.Request{
		Kind:         domain.OpDepositValue,
		DepositValue: &ops.DepositValueRequest{Pool: testPool, Amount: amount},
	}
}

func newRecorder(exec Executor) (*Recorder, *memory.OperationStore) {
	store := memory.NewOperationStore()
	r := NewRecorder(exec, store, testWallet, nil)
	clock := time.UnixMilli(1_700_000_000_000)
	r.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}
	return r, store
}

func TestRecorder_Confirmed(t *testing.T) {
	exec := &fakeExecutor{out: ops.Outcome{
		Pool:      testPool,
		Signature: "5sig",
		Estimate:  &domain.FinancialEstimate{NetOutput: decimal.RequireFromString("9.5")},
	}}
	r, store := newRecorder(exec)

	out, rec, err := r.Execute(context.Background(), depositRequest("10"))
	require.NoError(t, err)
	assert.Equal(t, "5sig", out.Signature)
	require.NotNil(t, rec)

	got, err := store.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, "5sig", *got.Signature)
	assert.Equal(t, "10", *got.Amount)
	assert.Equal(t, "9.5", *got.NetOutput)
	assert.Nil(t, got.ErrorClass)
	assert.Equal(t, testWallet, got.Wallet)
	assert.Equal(t, int64(250), got.FinishedAt-got.StartedAt)
}

func TestRecorder_Statuses(t *testing.T) {
	slip := &guard.SlippageError{Estimate: domain.FinancialEstimate{NetOutput: decimal.NewFromInt(1)}}

	tests := []struct {
		name   string
		out    ops.Outcome
		err    error
		status domain.OperationStatus
		class  string
	}{
		{"no-op", ops.Outcome{NoOp: true}, nil, domain.StatusSkipped, ""},
		{"slippage", ops.Outcome{}, slip, domain.StatusRejected, "SlippageExceeded"},
		{"busy", ops.Outcome{}, ops.ErrOperationInProgress, domain.StatusRejected, "OperationInProgress"},
		{"timeout", ops.Outcome{Signature: "s"}, fmt.Errorf("wait: %w", submit.ErrConfirmationTimeout), domain.StatusFailed, "ConfirmationTimeout"},
		{"builder", ops.Outcome{}, fmt.Errorf("%w: boom", ops.ErrBuilder), domain.StatusFailed, "BuilderError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, store := newRecorder(&fakeExecutor{out: tt.out, err: tt.err})
			_, rec, err := r.Execute(context.Background(), depositRequest("1"))
			if tt.err != nil {
				require.Error(t, err)
			}
			require.NotNil(t, rec)
			assert.Equal(t, tt.status, rec.Status)
			if tt.class != "" {
				require.NotNil(t, rec.ErrorClass)
				assert.Equal(t, tt.class, *rec.ErrorClass)
			}

			list, err := store.ListByWallet(context.Background(), testWallet, 0)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestRecorder_InvalidRequestNotJournaled(t *testing.T) {
	r, store := newRecorder(&fakeExecutor{})
	_, rec, err := r.Execute(context.Background(), ops.Request{Kind: domain.OpDepositValue})
	assert.ErrorIs(t, err, ops.ErrInvalidRequest)
	assert.Nil(t, rec)

	list, err := store.ListByPool(context.Background(), testPool, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

type failingStore struct{ memory.OperationStore }

func (*failingStore) Insert(context.Context, *domain.OperationRecord) error {
	return errors.New("disk full")
}

func TestRecorder_StoreFailureKeepsResult(t *testing.T) {
	r := NewRecorder(&fakeExecutor{out: ops.Outcome{Signature: "s"}}, &failingStore{}, testWallet, nil)
	out, rec, err := r.Execute(context.Background(), depositRequest("1"))
	require.NoError(t, err)
	assert.Equal(t, "s", out.Signature)
	assert.Equal(t, domain.StatusConfirmed, rec.Status)
}

func TestRecorder_SameMillisecondCallsKeepDistinctRecords(t *testing.T) {
	exec := &fakeExecutor{err: fmt.Errorf("%w: deposit_value rejected", ops.ErrOperationInProgress)}
	r, store := newRecorder(exec)
	frozen := time.UnixMilli(1_700_000_000_000)
	r.now = func() time.Time { return frozen }

	_, first, err := r.Execute(context.Background(), depositRequest("1"))
	require.ErrorIs(t, err, ops.ErrOperationInProgress)
	_, second, err := r.Execute(context.Background(), depositRequest("1"))
	require.ErrorIs(t, err, ops.ErrOperationInProgress)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.StartedAt, second.StartedAt)
	assert.NotEqual(t, first.ID, second.ID)

	for _, rec := range []*domain.OperationRecord{first, second} {
		got, err := store.GetByID(context.Background(), rec.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRejected, got.Status)
	}
	listed, err := store.ListByPool(context.Background(), testPool, 10)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestBuild_PoolFallsBackToRequest(t *testing.T) {
	now := time.UnixMilli(42)
	rec := Build(depositRequest("3"), ops.Outcome{}, nil, "", 1, now, now)
	assert.Equal(t, testPool, rec.Pool)
	assert.NotEmpty(t, rec.ID)
	assert.Nil(t, rec.Signature)
}
