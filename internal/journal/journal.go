// Package journal records every orchestrator call as an OperationRecord.
// The history belongs to the caller: the orchestrator itself keeps nothing.
package journal

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/idhash"
	"solana-stake-desk/internal/ops"
	"solana-stake-desk/internal/storage"
)

// Executor runs one operation request.
type Executor interface {
	Execute(ctx context.Context, req ops.Request) (ops.Outcome, error)
}

var _ Executor = (*ops.Orchestrator)(nil)

// Recorder executes requests and journals the result. A journal write failure
// is logged and never changes the operation result.
type Recorder struct {
	exec   Executor
	store  storage.OperationStore
	wallet string
	log    logrus.FieldLogger
	now    func() time.Time

	// seq numbers calls so that two starting in the same millisecond get distinct ids.
	seq atomic.Uint64
}

// NewRecorder creates a Recorder. wallet is the connected public key, or "".
func NewRecorder(exec Executor, store storage.OperationStore, wallet string, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{
		exec:   exec,
		store:  store,
		wallet: wallet,
		log:    log.WithField("component", "journal"),
		now:    time.Now,
	}
}

// Execute runs req and stores its record. The returned record is nil only when
// the request itself was malformed.
func (r *Recorder) Execute(ctx context.Context, req ops.Request) (ops.Outcome, *domain.OperationRecord, error) {
	started := r.now()
	out, err := r.exec.Execute(ctx, req)
	if errors.Is(err, ops.ErrInvalidRequest) {
		return out, nil, err
	}

	rec := Build(req, out, err, r.wallet, r.seq.Add(1), started, r.now())
	if r.store != nil {
		// The caller's context may already be cancelled after a timeout.
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if serr := r.store.Insert(storeCtx, rec); serr != nil {
			r.log.WithError(serr).WithField("id", rec.ID).Error("journal insert failed")
		}
	}
	return out, rec, err
}

// Build derives the record for one finished call. seq is the caller's call number.
func Build(req ops.Request, out ops.Outcome, err error, wallet string, seq uint64, started, finished time.Time) *domain.OperationRecord {
	pool := out.Pool
	if pool == "" {
		pool = req.PoolAddress()
	}
	rec := &domain.OperationRecord{
		ID:         idhash.ComputeOperationID(req.Kind, pool, wallet, started.UnixMilli(), seq),
		Kind:       req.Kind,
		Pool:       pool,
		Wallet:     wallet,
		Status:     Status(out, err),
		StartedAt:  started.UnixMilli(),
		FinishedAt: finished.UnixMilli(),
		CreatedAt:  finished.UnixMilli(),
	}
	if out.Signature != "" {
		sig := out.Signature
		rec.Signature = &sig
	}
	if amount := req.Amount(); amount != "" {
		rec.Amount = &amount
	}
	if out.Estimate != nil {
		net := out.Estimate.NetOutput.String()
		rec.NetOutput = &net
	}
	if err != nil {
		class := ops.Classify(err).String()
		msg := err.Error()
		rec.ErrorClass = &class
		rec.ErrorMessage = &msg
	}
	return rec
}

// Status maps a call result to its terminal journal state.
func Status(out ops.Outcome, err error) domain.OperationStatus {
	switch {
	case err == nil && out.NoOp:
		return domain.StatusSkipped
	case err == nil:
		return domain.StatusConfirmed
	case ops.Classify(err).Guarded():
		return domain.StatusRejected
	default:
		return domain.StatusFailed
	}
}
