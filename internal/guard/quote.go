package guard

import (
	"github.com/shopspring/decimal"

	"solana-stake-desk/internal/domain"
)

// StakeValueQuote prices a SOL deposit into pool tokens.
// The ceiling is the spendable wallet balance: callers hold back the share
// account rent and the transaction fee (domain.DepositReserveLamports).
func StakeValueQuote(pool *domain.PoolDescriptor, amount, walletSOL, minimum decimal.Decimal) Quote {
	return Quote{
		Kind:    KindStakeValue,
		Amount:  amount,
		Ceiling: walletSOL,
		Rate:    pool.TokensPerLamport(),
		FeeRate: pool.SolDepositFee.Rate(),
		Minimum: minimum,
	}
}

// UnstakeValueQuote prices burning pool tokens for SOL.
// The ceiling is the held pool-token balance.
func UnstakeValueQuote(pool *domain.PoolDescriptor, amount, heldTokens, minimum decimal.Decimal) Quote {
	return Quote{
		Kind:          KindUnstakeValue,
		Amount:        amount,
		Ceiling:       heldTokens,
		Rate:          pool.LamportsPerToken(),
		WithdrawalFee: pool.SolWithdrawalFee.Rate(),
		Minimum:       minimum,
	}
}

// UnstakeAccountQuote prices withdrawing a stake account for pool tokens.
func UnstakeAccountQuote(pool *domain.PoolDescriptor, amount, heldTokens, minimum decimal.Decimal) Quote {
	return Quote{
		Kind:          KindUnstakeAccount,
		Amount:        amount,
		Ceiling:       heldTokens,
		Rate:          pool.LamportsPerToken(),
		WithdrawalFee: pool.StakeWithdrawalFee.Rate(),
		Minimum:       minimum,
	}
}
