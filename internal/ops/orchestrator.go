// Package ops orchestrates stake pool operations for a connected wallet.
// Each call runs: validate -> guard -> build -> submit -> notify.
// Nothing is built before the financial guard has passed.
package ops

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-stake-desk/internal/derive"
	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/guard"
	"solana-stake-desk/internal/notify"
	"solana-stake-desk/internal/observability"
	solrpc "solana-stake-desk/internal/solana"
	"solana-stake-desk/internal/stakepool"
	"solana-stake-desk/internal/submit"
)

// Builder reads pool state and assembles instructions. Implemented by stakepool.Client.
type Builder interface {
	PoolInfo(ctx context.Context, pool solana.PublicKey) (*domain.PoolDescriptor, error)
	DepositSol(ctx context.Context, p stakepool.DepositSolParams) (*stakepool.Instructions, error)
	WithdrawSol(ctx context.Context, p stakepool.WithdrawSolParams) (*stakepool.Instructions, error)
	DepositStake(ctx context.Context, p stakepool.DepositStakeParams) (*stakepool.Instructions, error)
	WithdrawStake(ctx context.Context, p stakepool.WithdrawStakeParams) (*stakepool.Instructions, error)
	AddValidator(ctx context.Context, p stakepool.AddValidatorParams) (*stakepool.Instructions, error)
	RemoveValidator(ctx context.Context, p stakepool.RemoveValidatorParams) (*stakepool.Instructions, error)
	UpdatePool(ctx context.Context, p stakepool.UpdatePoolParams) (*stakepool.UpdatePhases, error)
}

var _ Builder = (*stakepool.Client)(nil)

// BalanceReader provides the ceilings checked by the guard.
type BalanceReader interface {
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
	GetTokenAccountBalance(ctx context.Context, account string) (*solrpc.TokenAmount, error)
}

// Submitter sends one instruction batch as a single transaction.
type Submitter interface {
	Submit(ctx context.Context, wallet submit.Wallet, ixs []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error)
}

var _ Submitter = (*submit.Submitter)(nil)

// Orchestrator runs pool operations for one wallet. At most one call is in
// flight at a time.
type Orchestrator struct {
	builder   Builder
	balances  BalanceReader
	submitter Submitter
	wallet    submit.Wallet
	notifier  notify.Notifier
	log       logrus.FieldLogger

	inFlight atomic.Bool
}

// Options for creating Orchestrator.
type Options struct {
	Builder   Builder
	Balances  BalanceReader
	Submitter Submitter
	Wallet    submit.Wallet // nil means no wallet connected
	Notifier  notify.Notifier
	Logger    logrus.FieldLogger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	n := opts.Notifier
	if n == nil {
		n = notify.Discard{}
	}
	return &Orchestrator{
		builder:   opts.Builder,
		balances:  opts.Balances,
		submitter: opts.Submitter,
		wallet:    opts.Wallet,
		notifier:  n,
		log:       log.WithField("component", "ops"),
	}
}

// InFlight reports whether a call is currently running.
func (o *Orchestrator) InFlight() bool {
	return o.inFlight.Load()
}

// Execute dispatches a tagged request to its operation.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{Kind: req.Kind, Pool: req.PoolAddress()}, err
	}
	switch req.Kind {
	case domain.OpDepositValue:
		return o.DepositValue(ctx, *req.DepositValue)
	case domain.OpWithdrawValue:
		return o.WithdrawValue(ctx, *req.WithdrawValue)
	case domain.OpDepositPosition:
		return o.DepositPosition(ctx, *req.DepositPosition)
	case domain.OpWithdrawPosition:
		return o.WithdrawPosition(ctx, *req.WithdrawPosition)
	case domain.OpAddValidator:
		return o.AddValidator(ctx, *req.AddValidator)
	case domain.OpRemoveValidator:
		return o.RemoveValidator(ctx, *req.RemoveValidator)
	default:
		return o.RefreshPool(ctx, *req.RefreshPool)
	}
}

// step is the body of one operation, run with the connected payer.
type step func(ctx context.Context, payer solana.PublicKey, out *Outcome) error

// run enforces the single-flight and wallet preconditions, then classifies,
// logs, measures and notifies whatever the body returns.
func (o *Orchestrator) run(ctx context.Context, kind domain.OperationKind, pool string, body step) (Outcome, error) {
	out := Outcome{Kind: kind, Pool: pool}
	log := o.log.WithFields(logrus.Fields{"op": kind.String(), "pool": pool})

	if !o.inFlight.CompareAndSwap(false, true) {
		err := fmt.Errorf("%w: %s rejected", ErrOperationInProgress, kind)
		o.fail(log, kind, err)
		return out, err
	}
	observability.SetInFlight(true)
	defer func() {
		o.inFlight.Store(false)
		observability.SetInFlight(false)
	}()

	start := time.Now()
	err := o.execute(ctx, &out, body)
	class := Classify(err)
	observability.RecordOperation(kind.String(), class.String(), time.Since(start).Seconds())

	if err != nil {
		if out.Signature != "" {
			log = log.WithField("signature", out.Signature)
		}
		o.fail(log, kind, err)
		return out, err
	}
	if out.NoOp {
		log.Debug("nothing to do")
		return out, nil
	}

	log.WithFields(logrus.Fields{
		"signature": out.Signature,
		"elapsed":   time.Since(start).String(),
	}).Info("operation confirmed")
	o.notifier.Notify(notify.Notification{
		Title:       successTitle(kind),
		Description: successDescription(out),
		Variant:     notify.VariantDefault,
	})
	return out, nil
}

func (o *Orchestrator) execute(ctx context.Context, out *Outcome, body step) error {
	if o.wallet == nil {
		return ErrWalletNotConnected
	}
	payer, ok := o.wallet.PublicKey()
	if !ok {
		return ErrWalletNotConnected
	}
	return body(ctx, payer, out)
}

func (o *Orchestrator) fail(log logrus.FieldLogger, kind domain.OperationKind, err error) {
	class := Classify(err)
	log = log.WithFields(logrus.Fields{"class": class.String()}).WithError(err)
	if class.Guarded() {
		log.Warn("operation rejected")
	} else {
		log.Error("operation failed")
	}
	switch class {
	case ClassInsufficientBalance:
		observability.RecordGuardRejection("insufficient_balance")
	case ClassSlippageExceeded:
		observability.RecordGuardRejection("slippage")
	case ClassInvalidAmount:
		observability.RecordGuardRejection("invalid_amount")
	}
	o.notifier.Notify(notify.Notification{
		Title:       failureTitle(kind, class),
		Description: failureDescription(err),
		Variant:     notify.VariantDestructive,
	})
}

func (o *Orchestrator) send(ctx context.Context, out *Outcome, ixs *stakepool.Instructions) error {
	sig, err := o.submitter.Submit(ctx, o.wallet, ixs.List, ixs.Signers)
	if sig != (solana.Signature{}) {
		out.Signature = sig.String()
	}
	return err
}

// fetchPool reads a fresh descriptor for every call; fees and rates are never cached.
func (o *Orchestrator) fetchPool(ctx context.Context, pool solana.PublicKey) (*domain.PoolDescriptor, error) {
	desc, err := o.builder.PoolInfo(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("%w: pool info: %w", ErrBuilder, err)
	}
	return desc, nil
}

// spendableSOL is the wallet balance less the rent and fee a deposit transaction
// consumes on top of the staked amount.
func (o *Orchestrator) spendableSOL(ctx context.Context, owner solana.PublicKey) (decimal.Decimal, error) {
	lamports, err := o.balances.GetBalance(ctx, owner.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: wallet balance: %w", ErrBuilder, err)
	}
	if lamports <= domain.DepositReserveLamports {
		return decimal.Zero, nil
	}
	return domain.LamportsToSOL(lamports - domain.DepositReserveLamports), nil
}

// shareBalance returns the pool-token balance of the share account in UI units.
// A missing account holds nothing.
func (o *Orchestrator) shareBalance(ctx context.Context, share solana.PublicKey) (decimal.Decimal, error) {
	bal, err := o.balances.GetTokenAccountBalance(ctx, share.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: share balance: %w", ErrBuilder, err)
	}
	decimals := int32(bal.Decimals)
	if decimals == 0 {
		decimals = domain.PoolTokenDecimals
	}
	return domain.DecimalFromUint64(bal.Amount).Shift(-decimals), nil
}

func guarded(out *Outcome, q guard.Quote) (bool, error) {
	dec, err := guard.Evaluate(q)
	if dec.NoOp {
		out.NoOp = true
		return false, nil
	}
	if err != nil {
		var slip *guard.SlippageError
		if errors.As(err, &slip) {
			est := slip.Estimate
			out.Estimate = &est
		}
		return false, err
	}
	est := dec.Estimate
	out.Estimate = &est
	return true, nil
}

// parseMonetary reads the amount and minimum-output fields before any network
// call. ok=false with a nil error means there is nothing to do.
func parseMonetary(rawAmount, rawMinimum string) (amount, minimum decimal.Decimal, ok bool, err error) {
	amount, ok, err = guard.ParseAmount(rawAmount)
	if err != nil || !ok {
		return decimal.Zero, decimal.Zero, false, err
	}
	minimum, err = guard.ParseMinimum(rawMinimum)
	if err != nil {
		return decimal.Zero, decimal.Zero, false, err
	}
	return amount, minimum, true, nil
}

func baseUnits(amount decimal.Decimal) (uint64, error) {
	n, err := domain.ToBaseUnits(amount, domain.PoolTokenDecimals)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %s: %w", ErrBuilder, amount, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: amount %s is below one base unit", ErrBuilder, amount)
	}
	return n, nil
}

// DepositValue stakes SOL into the pool.
func (o *Orchestrator) DepositValue(ctx context.Context, req DepositValueRequest) (Outcome, error) {
	return o.run(ctx, domain.OpDepositValue, req.Pool, func(ctx context.Context, payer solana.PublicKey, out *Outcome) error {
		poolID, err := derive.ParseAddress(req.Pool)
		if err != nil {
			return err
		}
		amount, minimum, ok, err := parseMonetary(req.Amount, req.MinimumOutput)
		if err != nil {
			return err
		}
		if !ok {
			out.NoOp = true
			return nil
		}

		pool, err := o.fetchPool(ctx, poolID)
		if err != nil {
			return err
		}
		ceiling, err := o.spendableSOL(ctx, payer)
		if err != nil {
			return err
		}
		proceed, err := guarded(out, guard.StakeValueQuote(pool, amount, ceiling, minimum))
		if !proceed {
			return err
		}

		lamports, err := baseUnits(amount)
		if err != nil {
			return err
		}
		share, err := derive.ShareAccount(pool.ShareMint, payer)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}
		ixs, err := o.builder.DepositSol(ctx, stakepool.DepositSolParams{
			Pool:         pool,
			Depositor:    payer,
			ShareAccount: share,
			Lamports:     lamports,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}
		return o.send(ctx, out, ixs)
	})
}

// WithdrawValue burns pool tokens for SOL.
func (o *Orchestrator) WithdrawValue(ctx context.Context, req WithdrawValueRequest) (Outcome, error) {
	return o.run(ctx, domain.OpWithdrawValue, req.Pool, func(ctx context.Context, payer solana.PublicKey, out *Outcome) error {
		poolID, err := derive.ParseAddress(req.Pool)
		if err != nil {
			return err
		}
		amount, minimum, ok, err := parseMonetary(req.Amount, req.MinimumOutput)
		if err != nil {
			return err
		}
		if !ok {
			out.NoOp = true
			return nil
		}

		pool, err := o.fetchPool(ctx, poolID)
		if err != nil {
			return err
		}
		share, err := derive.ShareAccount(pool.ShareMint, payer)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}
		ceiling, err := o.shareBalance(ctx, share)
		if err != nil {
			return err
		}
		proceed, err := guarded(out, guard.UnstakeValueQuote(pool, amount, ceiling, minimum))
		if !proceed {
			return err
		}

		tokens, err := baseUnits(amount)
		if err != nil {
			return err
		}
		ixs, err := o.builder.WithdrawSol(ctx, stakepool.WithdrawSolParams{
			Pool:         pool,
			Owner:        payer,
			ShareAccount: share,
			PoolTokens:   tokens,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}
		return o.send(ctx, out, ixs)
	})
}

// DepositPosition deposits a delegated stake account into the pool.
func (o *Orchestrator) DepositPosition(ctx context.Context, req DepositPositionRequest) (Outcome, error) {
	return o.run(ctx, domain.OpDepositPosition, req.Pool, func(ctx context.Context, payer solana.PublicKey, out *Outcome) error {
		poolID, err := derive.ParseAddress(req.Pool)
		if err != nil {
			return err
		}
		stake, err := derive.ParseAddress(req.StakeAccount)
		if err != nil {
			return fmt.Errorf("stake account: %w", err)
		}
		vote, err := derive.ParseAddress(req.VoteAccount)
		if err != nil {
			return fmt.Errorf("vote account: %w", err)
		}

		pool, err := o.fetchPool(ctx, poolID)
		if err != nil {
			return err
		}
		share, err := derive.ShareAccount(pool.ShareMint, payer)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}
		ixs, err := o.builder.DepositStake(ctx, stakepool.DepositStakeParams{
			Pool:         pool,
			Owner:        payer,
			ShareAccount: share,
			StakeAccount: stake,
			VoteAccount:  vote,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}
		return o.send(ctx, out, ixs)
	})
}

// WithdrawPosition burns pool tokens for a fresh stake account.
func (o *Orchestrator) WithdrawPosition(ctx context.Context, req WithdrawPositionRequest) (Outcome, error) {
	return o.run(ctx, domain.OpWithdrawPosition, req.Pool, func(ctx context.Context, payer solana.PublicKey, out *Outcome) error {
		poolID, err := derive.ParseAddress(req.Pool)
		if err != nil {
			return err
		}
		vote, err := derive.ParseOptionalAddress(req.VoteAccount)
		if err != nil {
			return fmt.Errorf("vote account: %w", err)
		}
		amount, minimum, ok, err := parseMonetary(req.Amount, req.MinimumOutput)
		if err != nil {
			return err
		}
		if !ok {
			out.NoOp = true
			return nil
		}

		pool, err := o.fetchPool(ctx, poolID)
		if err != nil {
			return err
		}
		share, err := derive.ShareAccount(pool.ShareMint, payer)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}
		ceiling, err := o.shareBalance(ctx, share)
		if err != nil {
			return err
		}
		proceed, err := guarded(out, guard.UnstakeAccountQuote(pool, amount, ceiling, minimum))
		if !proceed {
			return err
		}

		tokens, err := baseUnits(amount)
		if err != nil {
			return err
		}
		ixs, err := o.builder.WithdrawStake(ctx, stakepool.WithdrawStakeParams{
			Pool:         pool,
			Owner:        payer,
			ShareAccount: share,
			PoolTokens:   tokens,
			VoteAccount:  vote,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}
		return o.send(ctx, out, ixs)
	})
}

// AddValidator adds a vote account to the pool. The staker authority is enforced on-chain.
func (o *Orchestrator) AddValidator(ctx context.Context, req AddValidatorRequest) (Outcome, error) {
	return o.run(ctx, domain.OpAddValidator, req.Pool, func(ctx context.Context, payer solana.PublicKey, out *Outcome) error {
		poolID, err := derive.ParseAddress(req.Pool)
		if err != nil {
			return err
		}
		vote, err := derive.ParseAddress(req.VoteAccount)
		if err != nil {
			return fmt.Errorf("vote account: %w", err)
		}

		pool, err := o.fetchPool(ctx, poolID)
		if err != nil {
			return err
		}
		ixs, err := o.builder.AddValidator(ctx, stakepool.AddValidatorParams{
			Pool:        pool,
			Staker:      payer,
			VoteAccount: vote,
			Seed:        req.Seed,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}
		return o.send(ctx, out, ixs)
	})
}

// RemoveValidator removes a vote account from the pool.
func (o *Orchestrator) RemoveValidator(ctx context.Context, req RemoveValidatorRequest) (Outcome, error) {
	return o.run(ctx, domain.OpRemoveValidator, req.Pool, func(ctx context.Context, payer solana.PublicKey, out *Outcome) error {
		poolID, err := derive.ParseAddress(req.Pool)
		if err != nil {
			return err
		}
		vote, err := derive.ParseAddress(req.VoteAccount)
		if err != nil {
			return fmt.Errorf("vote account: %w", err)
		}

		pool, err := o.fetchPool(ctx, poolID)
		if err != nil {
			return err
		}
		ixs, err := o.builder.RemoveValidator(ctx, stakepool.RemoveValidatorParams{
			Pool:        pool,
			Staker:      payer,
			VoteAccount: vote,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}
		return o.send(ctx, out, ixs)
	})
}

// RefreshPool updates validator balances then pool totals in a single transaction.
func (o *Orchestrator) RefreshPool(ctx context.Context, req RefreshPoolRequest) (Outcome, error) {
	return o.run(ctx, domain.OpRefreshPool, req.Pool, func(ctx context.Context, _ solana.PublicKey, out *Outcome) error {
		poolID, err := derive.ParseAddress(req.Pool)
		if err != nil {
			return err
		}

		pool, err := o.fetchPool(ctx, poolID)
		if err != nil {
			return err
		}
		phases, err := o.builder.UpdatePool(ctx, stakepool.UpdatePoolParams{Pool: pool, NoMerge: req.NoMerge})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuilder, err)
		}

		list := make([]solana.Instruction, 0, len(phases.UpdateList)+len(phases.Finalize))
		list = append(list, phases.UpdateList...)
		list = append(list, phases.Finalize...)
		return o.send(ctx, out, &stakepool.Instructions{List: list})
	})
}
