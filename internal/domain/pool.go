package domain

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// DepositReserveLamports is held back from the wallet balance when staking SOL:
// rent for a 165-byte share token account plus one signature fee.
const DepositReserveLamports = 2_039_280 + 5_000

// Fee is a fractional fee as stored on-chain by the stake pool program.
type Fee struct {
	Denominator uint64
	Numerator   uint64
}

// Rate returns the fee as a fraction in [0, 1]. A zero denominator means no fee.
func (f Fee) Rate() decimal.Decimal {
	if f.Denominator == 0 || f.Numerator == 0 {
		return decimal.Zero
	}
	return DecimalFromUint64(f.Numerator).Div(DecimalFromUint64(f.Denominator))
}

// BasisPoints returns the fee in basis points, rounded to the nearest point.
func (f Fee) BasisPoints() int64 {
	return f.Rate().Mul(decimal.NewFromInt(10_000)).Round(0).IntPart()
}

// FeeFromBasisPoints builds a Fee with denominator 10000.
func FeeFromBasisPoints(bps uint64) Fee {
	return Fee{Denominator: 10_000, Numerator: bps}
}

// PoolDescriptor is a read-only snapshot of a stake pool account.
// It is fetched fresh for every operation and never mutated.
type PoolDescriptor struct {
	Address               solana.PublicKey
	Manager               solana.PublicKey
	Staker                solana.PublicKey
	StakeDepositAuthority solana.PublicKey
	WithdrawBumpSeed      uint8
	ValidatorList         solana.PublicKey
	ReserveStake          solana.PublicKey
	ShareMint             solana.PublicKey // pool token mint
	ManagerFeeAccount     solana.PublicKey
	TokenProgram          solana.PublicKey

	TotalLamports   uint64
	PoolTokenSupply uint64
	LastUpdateEpoch uint64

	EpochFee           Fee
	StakeDepositFee    Fee
	StakeWithdrawalFee Fee
	SolDepositFee      Fee
	SolWithdrawalFee   Fee
	StakeReferralFee   uint8
	SolReferralFee     uint8

	SolDepositAuthority  *solana.PublicKey // nil when deposits are permissionless
	SolWithdrawAuthority *solana.PublicKey // nil when withdrawals are permissionless
}

// TokensPerLamport is the pool-token amount minted per lamport deposited.
// An empty pool mints one to one.
func (p *PoolDescriptor) TokensPerLamport() decimal.Decimal {
	if p.TotalLamports == 0 || p.PoolTokenSupply == 0 {
		return decimal.NewFromInt(1)
	}
	return DecimalFromUint64(p.PoolTokenSupply).Div(DecimalFromUint64(p.TotalLamports))
}

// LamportsPerToken is the lamport value of one pool token.
func (p *PoolDescriptor) LamportsPerToken() decimal.Decimal {
	if p.TotalLamports == 0 || p.PoolTokenSupply == 0 {
		return decimal.NewFromInt(1)
	}
	return DecimalFromUint64(p.TotalLamports).Div(DecimalFromUint64(p.PoolTokenSupply))
}

// ValidatorStatus mirrors the on-chain StakeStatus of a validator list entry.
type ValidatorStatus uint8

const (
	ValidatorActive ValidatorStatus = iota
	ValidatorDeactivatingTransient
	ValidatorReadyForRemoval
	ValidatorDeactivatingValidator
	ValidatorDeactivatingAll
)

// String returns the string representation of ValidatorStatus.
func (s ValidatorStatus) String() string {
	switch s {
	case ValidatorActive:
		return "active"
	case ValidatorDeactivatingTransient:
		return "deactivating_transient"
	case ValidatorReadyForRemoval:
		return "ready_for_removal"
	case ValidatorDeactivatingValidator:
		return "deactivating_validator"
	case ValidatorDeactivatingAll:
		return "deactivating_all"
	default:
		return "unknown"
	}
}

// ValidatorInfo is one entry of a pool's validator list.
type ValidatorInfo struct {
	VoteAccount            solana.PublicKey
	ActiveStakeLamports    uint64
	TransientStakeLamports uint64
	LastUpdateEpoch        uint64
	TransientSeedSuffix    uint64
	ValidatorSeedSuffix    uint32
	Status                 ValidatorStatus
}

// ValidatorList is the decoded validator list account of a pool.
type ValidatorList struct {
	MaxValidators uint32
	Validators    []ValidatorInfo
}

// Find returns the entry for a vote account, or nil.
func (l *ValidatorList) Find(vote solana.PublicKey) *ValidatorInfo {
	for i := range l.Validators {
		if l.Validators[i].VoteAccount.Equals(vote) {
			return &l.Validators[i]
		}
	}
	return nil
}
