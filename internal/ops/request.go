package ops

import (
	"errors"
	"fmt"

	"solana-stake-desk/internal/domain"
)

// ErrInvalidRequest is returned by Execute for a request whose payload does not match its kind.
var ErrInvalidRequest = errors.New("invalid request")

// DepositValueRequest stakes SOL into a pool for pool tokens.
type DepositValueRequest struct {
	Pool          string `json:"pool"`
	Amount        string `json:"amount"`                   // SOL
	MinimumOutput string `json:"minimum_output,omitempty"` // pool tokens
}

// WithdrawValueRequest burns pool tokens for SOL from the reserve.
type WithdrawValueRequest struct {
	Pool          string `json:"pool"`
	Amount        string `json:"amount"`                   // pool tokens
	MinimumOutput string `json:"minimum_output,omitempty"` // SOL
}

// DepositPositionRequest deposits an existing delegated stake account.
type DepositPositionRequest struct {
	Pool         string `json:"pool"`
	StakeAccount string `json:"stake_account"`
	VoteAccount  string `json:"vote_account"`
}

// WithdrawPositionRequest burns pool tokens for a stake account split from a validator.
type WithdrawPositionRequest struct {
	Pool          string `json:"pool"`
	Amount        string `json:"amount"`                 // pool tokens
	VoteAccount   string `json:"vote_account,omitempty"` // empty picks automatically
	MinimumOutput string `json:"minimum_output,omitempty"`
}

// AddValidatorRequest adds a validator to the pool's validator list.
type AddValidatorRequest struct {
	Pool        string `json:"pool"`
	VoteAccount string `json:"vote_account"`
	Seed        uint32 `json:"seed,omitempty"`
}

// RemoveValidatorRequest removes a validator from the pool's validator list.
type RemoveValidatorRequest struct {
	Pool        string `json:"pool"`
	VoteAccount string `json:"vote_account"`
}

// RefreshPoolRequest brings validator balances and pool totals up to the current epoch.
type RefreshPoolRequest struct {
	Pool    string `json:"pool"`
	NoMerge bool   `json:"no_merge,omitempty"`
}

// Request is a tagged union over the seven operations. Exactly the payload
// matching Kind must be set.
type Request struct {
	Kind             domain.OperationKind     `json:"kind"`
	DepositValue     *DepositValueRequest     `json:"deposit_sol,omitempty"`
	WithdrawValue    *WithdrawValueRequest    `json:"withdraw_sol,omitempty"`
	DepositPosition  *DepositPositionRequest  `json:"deposit_stake,omitempty"`
	WithdrawPosition *WithdrawPositionRequest `json:"withdraw_stake,omitempty"`
	AddValidator     *AddValidatorRequest     `json:"add_validator,omitempty"`
	RemoveValidator  *RemoveValidatorRequest  `json:"remove_validator,omitempty"`
	RefreshPool      *RefreshPoolRequest      `json:"update_pool,omitempty"`
}

// Validate checks that the payload matches the kind.
func (r *Request) Validate() error {
	set := 0
	for _, p := range []bool{
		r.DepositValue != nil, r.WithdrawValue != nil, r.DepositPosition != nil,
		r.WithdrawPosition != nil, r.AddValidator != nil, r.RemoveValidator != nil,
		r.RefreshPool != nil,
	} {
		if p {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: expected one payload, got %d", ErrInvalidRequest, set)
	}

	var ok bool
	switch r.Kind {
	case domain.OpDepositValue:
		ok = r.DepositValue != nil
	case domain.OpWithdrawValue:
		ok = r.WithdrawValue != nil
	case domain.OpDepositPosition:
		ok = r.DepositPosition != nil
	case domain.OpWithdrawPosition:
		ok = r.WithdrawPosition != nil
	case domain.OpAddValidator:
		ok = r.AddValidator != nil
	case domain.OpRemoveValidator:
		ok = r.RemoveValidator != nil
	case domain.OpRefreshPool:
		ok = r.RefreshPool != nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, r.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: payload does not match kind %s", ErrInvalidRequest, r.Kind)
	}
	return nil
}

// PoolAddress returns the pool identifier carried by the payload, or "".
func (r *Request) PoolAddress() string {
	switch {
	case r.DepositValue != nil:
		return r.DepositValue.Pool
	case r.WithdrawValue != nil:
		return r.WithdrawValue.Pool
	case r.DepositPosition != nil:
		return r.DepositPosition.Pool
	case r.WithdrawPosition != nil:
		return r.WithdrawPosition.Pool
	case r.AddValidator != nil:
		return r.AddValidator.Pool
	case r.RemoveValidator != nil:
		return r.RemoveValidator.Pool
	case r.RefreshPool != nil:
		return r.RefreshPool.Pool
	}
	return ""
}

// Amount returns the raw amount text for monetary requests.
func (r *Request) Amount() string {
	switch {
	case r.DepositValue != nil:
		return r.DepositValue.Amount
	case r.WithdrawValue != nil:
		return r.WithdrawValue.Amount
	case r.WithdrawPosition != nil:
		return r.WithdrawPosition.Amount
	}
	return ""
}

// Outcome is the result of one orchestrator call. It is returned to the
// caller and not retained.
type Outcome struct {
	Kind      domain.OperationKind      `json:"kind"`
	Pool      string                    `json:"pool"`
	Signature string                    `json:"signature,omitempty"`
	Estimate  *domain.FinancialEstimate `json:"estimate,omitempty"`
	NoOp      bool                      `json:"no_op,omitempty"`
}
