// Package stakepool is a client for the SPL stake pool program: account decoding,
// program-derived addresses and instruction encoding for every pool operation.
package stakepool

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

// Program and sysvar addresses used by stake pool instructions.
var (
	ProgramID            = solana.MustPublicKeyFromBase58("SPoo1Ku8WFXoNDMHPsrGSTSG1Y47rzgn41SLUNakuHy")
	StakeProgramID       = solana.MustPublicKeyFromBase58("Stake11111111111111111111111111111111111111")
	StakeConfigID        = solana.MustPublicKeyFromBase58("StakeConfig11111111111111111111111111111111")
	SystemProgramID      = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	SysvarClockID        = solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")
	SysvarRentID         = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
	SysvarStakeHistoryID = solana.MustPublicKeyFromBase58("SysvarStakeHistory1111111111111111111111111")
)

// StakeAccountSize is the data length of a stake program account.
const StakeAccountSize = 200

// MaxValidatorsToUpdate is how many validators one UpdateValidatorListBalance covers.
const MaxValidatorsToUpdate = 5

// Library errors. All of them surface to callers as builder failures.
var (
	ErrPoolNotFound          = errors.New("stake pool not found")
	ErrNotStakePool          = errors.New("account is not a stake pool")
	ErrValidatorListNotFound = errors.New("validator list not found")
	ErrValidatorNotInPool    = errors.New("validator not in pool")
	ErrValidatorAlreadyAdded = errors.New("validator already in pool")
	ErrValidatorListFull     = errors.New("validator list is full")
	ErrInsufficientStake     = errors.New("not enough stake on validator for withdrawal")
	ErrDepositAuthority      = errors.New("pool requires a different deposit authority")
	ErrWithdrawAuthority     = errors.New("pool requires a different withdraw authority")
	ErrMalformedAccount      = errors.New("malformed account data")
)

// Instruction indices of the stake pool program.
const (
	ixAddValidatorToPool             uint8 = 1
	ixRemoveValidatorFromPool        uint8 = 2
	ixUpdateValidatorListBalance     uint8 = 6
	ixUpdateStakePoolBalance         uint8 = 7
	ixCleanupRemovedValidatorEntries uint8 = 8
	ixDepositStake                   uint8 = 9
	ixWithdrawStake                  uint8 = 10
	ixDepositSol                     uint8 = 14
	ixWithdrawSol                    uint8 = 16
)

// Account type tags.
const (
	accountTypeStakePool     uint8 = 1
	accountTypeValidatorList uint8 = 2
)
