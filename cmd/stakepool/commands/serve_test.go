package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-stake-desk/internal/cache"
	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/guard"
	"solana-stake-desk/internal/journal"
	"solana-stake-desk/internal/ops"
	"solana-stake-desk/internal/storage/memory"
	"solana-stake-desk/internal/submit"
)

const (
	poolAddr   = "SPoo1Ku8WFXoNDMHPsrGSTSG1Y47rzgn41SLUNakuHy"
	walletAddr = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
)

type scriptedExecutor struct {
	out ops.Outcome
	err error
}

func (e *scriptedExecutor) Execute(_ context.Context, req ops.Request) (ops.Outcome, error) {
	if err := req.Validate(); err != nil {
		return ops.Outcome{}, err
	}
	out := e.out
	out.Kind = req.Kind
	out.Pool = req.PoolAddress()
	return out, e.err
}

type poolFetcher struct {
	desc *domain.PoolDescriptor
	err  error
}

func (f *poolFetcher) PoolInfo(context.Context, solana.PublicKey) (*domain.PoolDescriptor, error) {
	return f.desc, f.err
}

type fixture struct {
	server    *Server
	exec      *scriptedExecutor
	fetcher   *poolFetcher
	snapshots *memory.PoolSnapshotStore
	journal   *memory.OperationStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	exec := &scriptedExecutor{}
	store := memory.NewOperationStore()
	snaps := memory.NewPoolSnapshotStore()
	fetcher := &poolFetcher{desc: &domain.PoolDescriptor{
		Address:         solana.MustPublicKeyFromBase58(poolAddr),
		TotalLamports:   1_050_000_000,
		PoolTokenSupply: 1_000_000_000,
		LastUpdateEpoch: 600,
		SolDepositFee:   domain.FeeFromBasisPoints(10),
	}}

	return &fixture{
		server: &Server{
			ops:       journal.NewRecorder(exec, store, walletAddr, log),
			pools:     cache.NewPools(fetcher, cache.NewMemory(time.Minute), log),
			journal:   store,
			snapshots: snaps,
			inFlight:  func() bool { return false },
			wallet:    walletAddr,
			log:       log,
			started:   time.Now(),
		},
		exec:      exec,
		fetcher:   fetcher,
		snapshots: snaps,
		journal:   store,
	}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func depositBody(amount string) string {
	b, _ := json.Marshal(ops.Request{
		Kind:         domain.OpDepositValue,
		DepositValue: &ops.DepositValueRequest{Pool: poolAddr, Amount: amount},
	})
	return string(b)
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_OperationConfirmed(t *testing.T) {
	f := newFixture(t)
	f.exec.out = ops.Outcome{Signature: "5sig"}

	rec := f.do(t, http.MethodPost, "/v1/operations", depositBody("1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OperationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "5sig", resp.Outcome.Signature)
	assert.Equal(t, domain.OpDepositValue, resp.Outcome.Kind)
	assert.NotEmpty(t, resp.RecordID)
	assert.Empty(t, resp.Class)

	stored, err := f.journal.GetByID(context.Background(), resp.RecordID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)

	status := f.do(t, http.MethodGet, "/status", "")
	var st StatusResponse
	require.NoError(t, json.Unmarshal(status.Body.Bytes(), &st))
	assert.Equal(t, 1, st.Operations)
	assert.Equal(t, "DEPOSIT_SOL", st.LastOperation)
	assert.Equal(t, "CONFIRMED", st.LastStatus)
	assert.True(t, st.WalletConnected)
}

func TestServer_OperationErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		class  string
		status domain.OperationStatus
	}{
		{"busy", ops.ErrOperationInProgress, http.StatusConflict, "OperationInProgress", domain.StatusRejected},
		{"no wallet", ops.ErrWalletNotConnected, http.StatusUnauthorized, "WalletNotConnected", domain.StatusRejected},
		{"slippage", &guard.SlippageError{}, http.StatusUnprocessableEntity, "SlippageExceeded", domain.StatusRejected},
		{"balance", guard.ErrInsufficientBalance, http.StatusUnprocessableEntity, "InsufficientBalance", domain.StatusRejected},
		{"declined", submit.ErrSubmissionRejected, http.StatusForbidden, "SubmissionRejected", domain.StatusFailed},
		{"timeout", submit.ErrConfirmationTimeout, http.StatusGatewayTimeout, "ConfirmationTimeout", domain.StatusFailed},
		{"builder", fmt.Errorf("%w: rpc down", ops.ErrBuilder), http.StatusBadGateway, "BuilderError", domain.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.exec.err = tt.err

			rec := f.do(t, http.MethodPost, "/v1/operations", depositBody("1"))
			assert.Equal(t, tt.code, rec.Code)

			var resp OperationResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.class, resp.Class)
			assert.NotEmpty(t, resp.Error)

			stored, err := f.journal.GetByID(context.Background(), resp.RecordID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, stored.Status)
		})
	}
}

func TestServer_OperationBadRequests(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/operations", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/operations", `{"kind":"DEPOSIT_SOL","surprise":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/operations", `{"kind":"DEPOSIT_SOL"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp OperationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.RecordID)
	assert.Empty(t, resp.Class)

	rec = f.do(t, http.MethodGet, "/v1/operations?pool="+poolAddr, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServer_Pool(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/pools/"+poolAddr, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view PoolView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, poolAddr, view.Address)
	assert.Equal(t, "1.050000000", view.SOLPerToken)
	assert.Equal(t, int64(10), view.SolDepositFeeBps)
	assert.False(t, view.Cached)

	rec = f.do(t, http.MethodGet, "/v1/pools/"+poolAddr, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Cached)

	latest, err := f.snapshots.Latest(context.Background(), poolAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), latest.LastUpdateEpoch)
}

func TestServer_PoolErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/pools/not-an-address", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.fetcher.err = errors.New("rpc unavailable")
	rec = f.do(t, http.MethodGet, "/v1/pools/"+poolAddr, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServer_History(t *testing.T) {
	f := newFixture(t)
	f.exec.out = ops.Outcome{Signature: "s1"}
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/v1/operations", depositBody("1")).Code)
		time.Sleep(2 * time.Millisecond)
	}

	rec := f.do(t, http.MethodGet, "/v1/operations?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []domain.OperationRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)
	assert.GreaterOrEqual(t, records[0].StartedAt, records[1].StartedAt)

	rec = f.do(t, http.MethodGet, "/v1/operations?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.server.wallet = ""
	rec = f.do(t, http.MethodGet, "/v1/operations", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, statusFor(nil))
	assert.Equal(t, http.StatusBadRequest, statusFor(ops.ErrInvalidRequest))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: %q", guard.ErrInvalidMinimum, "96,5")))
	assert.Equal(t, http.StatusBadRequest, statusFor(guard.ErrInvalidAmount))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(guard.ErrInsufficientBalance))
	assert.Equal(t, http.StatusBadGateway, statusFor(submit.ErrConfirmationFailed))
}

func TestPrintPool(t *testing.T) {
	var buf bytes.Buffer
	printPool(&buf, PoolView{Address: poolAddr, SOLPerToken: "1.000000000", Cached: true})
	assert.Contains(t, buf.String(), poolAddr)
	assert.Contains(t, buf.String(), "cache")
}
