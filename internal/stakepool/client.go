package stakepool

import (
	"context"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"solana-stake-desk/internal/derive"
	"solana-stake-desk/internal/domain"
	solrpc "solana-stake-desk/internal/solana"
)

// AccountReader is the part of the RPC client the stake pool client reads through.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, pubkey string) (*solrpc.AccountInfo, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)
}

// Instructions is an ordered instruction batch plus the ephemeral keys that must co-sign it.
type Instructions struct {
	List    []solana.Instruction
	Signers []solana.PrivateKey
}

// UpdatePhases is a pool refresh: per-validator balance updates, then pool finalization.
type UpdatePhases struct {
	UpdateList []solana.Instruction
	Finalize   []solana.Instruction
}

// DepositSolParams describes a SOL deposit.
type DepositSolParams struct {
	Pool         *domain.PoolDescriptor
	Depositor    solana.PublicKey
	ShareAccount solana.PublicKey
	Lamports     uint64
}

// WithdrawSolParams describes a pool token redemption for SOL.
type WithdrawSolParams struct {
	Pool         *domain.PoolDescriptor
	Owner        solana.PublicKey
	ShareAccount solana.PublicKey
	PoolTokens   uint64
}

// DepositStakeParams describes depositing an existing delegated stake account.
type DepositStakeParams struct {
	Pool         *domain.PoolDescriptor
	Owner        solana.PublicKey
	ShareAccount solana.PublicKey
	StakeAccount solana.PublicKey
	VoteAccount  solana.PublicKey
}

// WithdrawStakeParams describes redeeming pool tokens for a stake account.
// A nil VoteAccount lets the client pick the validator with the most active stake.
type WithdrawStakeParams struct {
	Pool         *domain.PoolDescriptor
	Owner        solana.PublicKey
	ShareAccount solana.PublicKey
	PoolTokens   uint64
	VoteAccount  *solana.PublicKey
}

// AddValidatorParams describes adding a validator to a pool.
type AddValidatorParams struct {
	Pool        *domain.PoolDescriptor
	Staker      solana.PublicKey
	VoteAccount solana.PublicKey
	Seed        uint32
}

// RemoveValidatorParams describes removing a validator from a pool.
type RemoveValidatorParams struct {
	Pool        *domain.PoolDescriptor
	Staker      solana.PublicKey
	VoteAccount solana.PublicKey
}

// UpdatePoolParams describes a pool refresh.
type UpdatePoolParams struct {
	Pool    *domain.PoolDescriptor
	NoMerge bool
}

// Client reads stake pool accounts and builds instructions for them.
type Client struct {
	rpc       AccountReader
	programID solana.PublicKey
	log       logrus.FieldLogger
}

// Options configures Client.
type Options struct {
	RPC       AccountReader
	ProgramID solana.PublicKey // defaults to ProgramID
	Logger    logrus.FieldLogger
}

// NewClient creates a new stake pool client.
func NewClient(opts Options) *Client {
	programID := opts.ProgramID
	if programID.IsZero() {
		programID = ProgramID
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		rpc:       opts.RPC,
		programID: programID,
		log:       log.WithField("component", "stakepool"),
	}
}

// PoolInfo fetches and decodes a stake pool account.
func (c *Client) PoolInfo(ctx context.Context, pool solana.PublicKey) (*domain.PoolDescriptor, error) {
	info, err := c.rpc.GetAccountInfo(ctx, pool.String())
	if err != nil {
		return nil, fmt.Errorf("get stake pool %s: %w", pool, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, pool)
	}
	if info.Owner != c.programID.String() {
		return nil, fmt.Errorf("%w: %s is owned by %s", ErrNotStakePool, pool, info.Owner)
	}
	return DecodePool(pool, info.Data)
}

// ValidatorList fetches and decodes the validator list of a pool.
func (c *Client) ValidatorList(ctx context.Context, pool *domain.PoolDescriptor) (*domain.ValidatorList, error) {
	info, err := c.rpc.GetAccountInfo(ctx, pool.ValidatorList.String())
	if err != nil {
		return nil, fmt.Errorf("get validator list %s: %w", pool.ValidatorList, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrValidatorListNotFound, pool.ValidatorList)
	}
	return DecodeValidatorList(info.Data)
}

// DepositSol builds: create share account (idempotent), DepositSol.
func (c *Client) DepositSol(_ context.Context, p DepositSolParams) (*Instructions, error) {
	withdrawAuth, err := WithdrawAuthority(c.programID, p.Pool.Address)
	if err != nil {
		return nil, fmt.Errorf("derive withdraw authority: %w", err)
	}

	var depositAuth *solana.PublicKey
	if p.Pool.SolDepositAuthority != nil {
		if !p.Pool.SolDepositAuthority.Equals(p.Depositor) {
			return nil, fmt.Errorf("%w: %s", ErrDepositAuthority, p.Pool.SolDepositAuthority)
		}
		depositAuth = p.Pool.SolDepositAuthority
	}

	list := []solana.Instruction{
		NewCreateAssociatedTokenAccountIdempotentInstruction(p.Depositor, p.ShareAccount, p.Depositor, p.Pool.ShareMint),
		NewDepositSolInstruction(c.programID, DepositSolAccounts{
			Pool:              p.Pool.Address,
			WithdrawAuthority: withdrawAuth,
			Reserve:           p.Pool.ReserveStake,
			From:              p.Depositor,
			Destination:       p.ShareAccount,
			ManagerFee:        p.Pool.ManagerFeeAccount,
			Referrer:          p.ShareAccount,
			PoolMint:          p.Pool.ShareMint,
			TokenProgram:      tokenProgram(p.Pool),
			DepositAuthority:  depositAuth,
		}, p.Lamports),
	}
	return &Instructions{List: list}, nil
}

// WithdrawSol builds a single WithdrawSol paying lamports back to the owner.
func (c *Client) WithdrawSol(_ context.Context, p WithdrawSolParams) (*Instructions, error) {
	withdrawAuth, err := WithdrawAuthority(c.programID, p.Pool.Address)
	if err != nil {
		return nil, fmt.Errorf("derive withdraw authority: %w", err)
	}

	var solWithdrawAuth *solana.PublicKey
	if p.Pool.SolWithdrawAuthority != nil {
		if !p.Pool.SolWithdrawAuthority.Equals(p.Owner) {
			return nil, fmt.Errorf("%w: %s", ErrWithdrawAuthority, p.Pool.SolWithdrawAuthority)
		}
		solWithdrawAuth = p.Pool.SolWithdrawAuthority
	}

	ix := NewWithdrawSolInstruction(c.programID, WithdrawSolAccounts{
		Pool:                 p.Pool.Address,
		WithdrawAuthority:    withdrawAuth,
		TransferAuthority:    p.Owner,
		BurnFrom:             p.ShareAccount,
		Reserve:              p.Pool.ReserveStake,
		Destination:          p.Owner,
		ManagerFee:           p.Pool.ManagerFeeAccount,
		PoolMint:             p.Pool.ShareMint,
		TokenProgram:         tokenProgram(p.Pool),
		SolWithdrawAuthority: solWithdrawAuth,
	}, p.PoolTokens)
	return &Instructions{List: []solana.Instruction{ix}}, nil
}

// DepositStake builds: create share account, hand both stake authorities to the pool,
// DepositStake.
func (c *Client) DepositStake(ctx context.Context, p DepositStakeParams) (*Instructions, error) {
	list, err := c.ValidatorList(ctx, p.Pool)
	if err != nil {
		return nil, err
	}
	v := list.Find(p.VoteAccount)
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrValidatorNotInPool, p.VoteAccount)
	}

	defaultDepositAuth, err := DepositAuthority(c.programID, p.Pool.Address)
	if err != nil {
		return nil, fmt.Errorf("derive deposit authority: %w", err)
	}
	if !p.Pool.StakeDepositAuthority.Equals(defaultDepositAuth) {
		return nil, fmt.Errorf("%w: %s", ErrDepositAuthority, p.Pool.StakeDepositAuthority)
	}
	withdrawAuth, err := WithdrawAuthority(c.programID, p.Pool.Address)
	if err != nil {
		return nil, fmt.Errorf("derive withdraw authority: %w", err)
	}
	validatorStake, err := ValidatorStakeAddress(c.programID, v.VoteAccount, p.Pool.Address, v.ValidatorSeedSuffix)
	if err != nil {
		return nil, fmt.Errorf("derive validator stake: %w", err)
	}

	ixs := []solana.Instruction{
		NewCreateAssociatedTokenAccountIdempotentInstruction(p.Owner, p.ShareAccount, p.Owner, p.Pool.ShareMint),
		NewStakeAuthorizeInstruction(p.StakeAccount, p.Owner, defaultDepositAuth, StakeAuthorizeStaker),
		NewStakeAuthorizeInstruction(p.StakeAccount, p.Owner, defaultDepositAuth, StakeAuthorizeWithdrawer),
		NewDepositStakeInstruction(c.programID, DepositStakeAccounts{
			Pool:              p.Pool.Address,
			ValidatorList:     p.Pool.ValidatorList,
			DepositAuthority:  defaultDepositAuth,
			WithdrawAuthority: withdrawAuth,
			DepositStake:      p.StakeAccount,
			ValidatorStake:    validatorStake,
			Reserve:           p.Pool.ReserveStake,
			Destination:       p.ShareAccount,
			ManagerFee:        p.Pool.ManagerFeeAccount,
			Referrer:          p.ShareAccount,
			PoolMint:          p.Pool.ShareMint,
			TokenProgram:      tokenProgram(p.Pool),
		}),
	}
	return &Instructions{List: ixs}, nil
}

// WithdrawStake builds: allocate a fresh stake account, WithdrawStake into it.
// The fresh account's key is returned as an extra signer.
func (c *Client) WithdrawStake(ctx context.Context, p WithdrawStakeParams) (*Instructions, error) {
	list, err := c.ValidatorList(ctx, p.Pool)
	if err != nil {
		return nil, err
	}

	lamports := p.Pool.LamportsPerToken().Mul(domain.DecimalFromUint64(p.PoolTokens)).Truncate(0).IntPart()
	splitFrom, err := c.withdrawSource(p, list, uint64(lamports))
	if err != nil {
		return nil, err
	}

	withdrawAuth, err := WithdrawAuthority(c.programID, p.Pool.Address)
	if err != nil {
		return nil, fmt.Errorf("derive withdraw authority: %w", err)
	}
	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, StakeAccountSize)
	if err != nil {
		return nil, fmt.Errorf("stake account rent: %w", err)
	}
	receiver, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate stake receiver: %w", err)
	}

	ixs := []solana.Instruction{
		NewCreateAccountInstruction(p.Owner, receiver.PublicKey(), StakeProgramID, rent, StakeAccountSize),
		NewWithdrawStakeInstruction(c.programID, WithdrawStakeAccounts{
			Pool:              p.Pool.Address,
			ValidatorList:     p.Pool.ValidatorList,
			WithdrawAuthority: withdrawAuth,
			SplitFrom:         splitFrom,
			SplitTo:           receiver.PublicKey(),
			NewStakeAuthority: p.Owner,
			TransferAuthority: p.Owner,
			BurnFrom:          p.ShareAccount,
			ManagerFee:        p.Pool.ManagerFeeAccount,
			Mint:              p.Pool.ShareMint,
			TokenProgram:      tokenProgram(p.Pool),
		}, p.PoolTokens),
	}

	c.log.WithFields(logrus.Fields{
		"pool":     p.Pool.Address.String(),
		"from":     splitFrom.String(),
		"receiver": receiver.PublicKey().String(),
	}).Debug("prepared stake withdrawal")

	return &Instructions{List: ixs, Signers: []solana.PrivateKey{receiver}}, nil
}

// withdrawSource picks the stake account to split from. Without a vote filter the
// active validator with the most stake is used, falling back to the reserve.
func (c *Client) withdrawSource(p WithdrawStakeParams, list *domain.ValidatorList, lamports uint64) (solana.PublicKey, error) {
	if p.VoteAccount != nil {
		v := list.Find(*p.VoteAccount)
		if v == nil {
			return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrValidatorNotInPool, p.VoteAccount)
		}
		if v.ActiveStakeLamports < lamports {
			return solana.PublicKey{}, fmt.Errorf("%w: %s holds %d lamports, need %d",
				ErrInsufficientStake, v.VoteAccount, v.ActiveStakeLamports, lamports)
		}
		return ValidatorStakeAddress(c.programID, v.VoteAccount, p.Pool.Address, v.ValidatorSeedSuffix)
	}

	candidates := make([]domain.ValidatorInfo, 0, len(list.Validators))
	for _, v := range list.Validators {
		if v.Status == domain.ValidatorActive && v.ActiveStakeLamports >= lamports {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return p.Pool.ReserveStake, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ActiveStakeLamports > candidates[j].ActiveStakeLamports
	})
	best := candidates[0]
	return ValidatorStakeAddress(c.programID, best.VoteAccount, p.Pool.Address, best.ValidatorSeedSuffix)
}

// AddValidator builds AddValidatorToPool for a vote account not yet in the list.
func (c *Client) AddValidator(ctx context.Context, p AddValidatorParams) (*Instructions, error) {
	list, err := c.ValidatorList(ctx, p.Pool)
	if err != nil {
		return nil, err
	}
	if list.Find(p.VoteAccount) != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidatorAlreadyAdded, p.VoteAccount)
	}
	if list.MaxValidators > 0 && uint32(len(list.Validators)) >= list.MaxValidators {
		return nil, fmt.Errorf("%w: %d of %d", ErrValidatorListFull, len(list.Validators), list.MaxValidators)
	}

	withdrawAuth, err := WithdrawAuthority(c.programID, p.Pool.Address)
	if err != nil {
		return nil, fmt.Errorf("derive withdraw authority: %w", err)
	}
	validatorStake, err := ValidatorStakeAddress(c.programID, p.VoteAccount, p.Pool.Address, p.Seed)
	if err != nil {
		return nil, fmt.Errorf("derive validator stake: %w", err)
	}

	ix := NewAddValidatorInstruction(c.programID, AddValidatorAccounts{
		Pool:              p.Pool.Address,
		Staker:            p.Staker,
		Reserve:           p.Pool.ReserveStake,
		WithdrawAuthority: withdrawAuth,
		ValidatorList:     p.Pool.ValidatorList,
		ValidatorStake:    validatorStake,
		Vote:              p.VoteAccount,
	}, p.Seed)
	return &Instructions{List: []solana.Instruction{ix}}, nil
}

// RemoveValidator builds RemoveValidatorFromPool for a listed vote account.
func (c *Client) RemoveValidator(ctx context.Context, p RemoveValidatorParams) (*Instructions, error) {
	list, err := c.ValidatorList(ctx, p.Pool)
	if err != nil {
		return nil, err
	}
	v := list.Find(p.VoteAccount)
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrValidatorNotInPool, p.VoteAccount)
	}

	withdrawAuth, err := WithdrawAuthority(c.programID, p.Pool.Address)
	if err != nil {
		return nil, fmt.Errorf("derive withdraw authority: %w", err)
	}
	validatorStake, err := ValidatorStakeAddress(c.programID, v.VoteAccount, p.Pool.Address, v.ValidatorSeedSuffix)
	if err != nil {
		return nil, fmt.Errorf("derive validator stake: %w", err)
	}
	transientStake, err := TransientStakeAddress(c.programID, v.VoteAccount, p.Pool.Address, v.TransientSeedSuffix)
	if err != nil {
		return nil, fmt.Errorf("derive transient stake: %w", err)
	}

	ix := NewRemoveValidatorInstruction(c.programID, RemoveValidatorAccounts{
		Pool:              p.Pool.Address,
		Staker:            p.Staker,
		WithdrawAuthority: withdrawAuth,
		ValidatorList:     p.Pool.ValidatorList,
		ValidatorStake:    validatorStake,
		TransientStake:    transientStake,
	})
	return &Instructions{List: []solana.Instruction{ix}}, nil
}

// UpdatePool builds both refresh phases. The list phase covers every validator in
// chunks of MaxValidatorsToUpdate; the finalize phase updates totals then cleans up.
func (c *Client) UpdatePool(ctx context.Context, p UpdatePoolParams) (*UpdatePhases, error) {
	list, err := c.ValidatorList(ctx, p.Pool)
	if err != nil {
		return nil, err
	}
	withdrawAuth, err := WithdrawAuthority(c.programID, p.Pool.Address)
	if err != nil {
		return nil, fmt.Errorf("derive withdraw authority: %w", err)
	}

	fixed := UpdateListAccounts{
		Pool:              p.Pool.Address,
		WithdrawAuthority: withdrawAuth,
		ValidatorList:     p.Pool.ValidatorList,
		Reserve:           p.Pool.ReserveStake,
	}

	phases := &UpdatePhases{}
	for start := 0; start < len(list.Validators); start += MaxValidatorsToUpdate {
		end := start + MaxValidatorsToUpdate
		if end > len(list.Validators) {
			end = len(list.Validators)
		}

		pairs := make([]StakePair, 0, end-start)
		for _, v := range list.Validators[start:end] {
			validatorStake, err := ValidatorStakeAddress(c.programID, v.VoteAccount, p.Pool.Address, v.ValidatorSeedSuffix)
			if err != nil {
				return nil, fmt.Errorf("derive validator stake: %w", err)
			}
			transientStake, err := TransientStakeAddress(c.programID, v.VoteAccount, p.Pool.Address, v.TransientSeedSuffix)
			if err != nil {
				return nil, fmt.Errorf("derive transient stake: %w", err)
			}
			pairs = append(pairs, StakePair{Validator: validatorStake, Transient: transientStake})
		}
		phases.UpdateList = append(phases.UpdateList,
			NewUpdateValidatorListBalanceInstruction(c.programID, fixed, pairs, uint32(start), p.NoMerge))
	}

	phases.Finalize = []solana.Instruction{
		NewUpdateStakePoolBalanceInstruction(c.programID, UpdatePoolBalanceAccounts{
			Pool:              p.Pool.Address,
			WithdrawAuthority: withdrawAuth,
			ValidatorList:     p.Pool.ValidatorList,
			Reserve:           p.Pool.ReserveStake,
			ManagerFee:        p.Pool.ManagerFeeAccount,
			PoolMint:          p.Pool.ShareMint,
			TokenProgram:      tokenProgram(p.Pool),
		}),
		NewCleanupRemovedValidatorsInstruction(c.programID, p.Pool.Address, p.Pool.ValidatorList),
	}
	return phases, nil
}

func tokenProgram(p *domain.PoolDescriptor) solana.PublicKey {
	if p.TokenProgram.IsZero() {
		return derive.TokenProgramID
	}
	return p.TokenProgram
}
