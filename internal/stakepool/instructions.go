package stakepool

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"solana-stake-desk/internal/derive"
)

// ixData encodes an instruction tag followed by little-endian arguments.
func ixData(tag uint8, args ...interface{}) []byte {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	// Writes into a bytes.Buffer cannot fail.
	_ = enc.WriteUint8(tag)
	for _, a := range args {
		switch v := a.(type) {
		case uint32:
			_ = enc.WriteUint32(v, binary.LittleEndian)
		case uint64:
			_ = enc.WriteUint64(v, binary.LittleEndian)
		case bool:
			_ = enc.WriteBool(v)
		}
	}
	return buf.Bytes()
}

func writable(pk solana.PublicKey) *solana.AccountMeta {
	return solana.NewAccountMeta(pk, true, false)
}

func readonly(pk solana.PublicKey) *solana.AccountMeta {
	return solana.NewAccountMeta(pk, false, false)
}

func signer(pk solana.PublicKey, isWritable bool) *solana.AccountMeta {
	return solana.NewAccountMeta(pk, isWritable, true)
}

// DepositSolAccounts are the accounts of a DepositSol instruction.
type DepositSolAccounts struct {
	Pool, WithdrawAuthority, Reserve        solana.PublicKey
	From, Destination, ManagerFee, Referrer solana.PublicKey
	PoolMint, TokenProgram                  solana.PublicKey
	DepositAuthority                        *solana.PublicKey
}

// NewDepositSolInstruction deposits lamports from a system account into the reserve.
func NewDepositSolInstruction(programID solana.PublicKey, a DepositSolAccounts, lamports uint64) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		writable(a.Pool),
		readonly(a.WithdrawAuthority),
		writable(a.Reserve),
		signer(a.From, true),
		writable(a.Destination),
		writable(a.ManagerFee),
		writable(a.Referrer),
		writable(a.PoolMint),
		readonly(SystemProgramID),
		readonly(a.TokenProgram),
	}
	if a.DepositAuthority != nil {
		accounts = append(accounts, signer(*a.DepositAuthority, false))
	}
	return solana.NewInstruction(programID, accounts, ixData(ixDepositSol, lamports))
}

// WithdrawSolAccounts are the accounts of a WithdrawSol instruction.
type WithdrawSolAccounts struct {
	Pool, WithdrawAuthority, TransferAuthority solana.PublicKey
	BurnFrom, Reserve, Destination, ManagerFee solana.PublicKey
	PoolMint, TokenProgram                     solana.PublicKey
	SolWithdrawAuthority                       *solana.PublicKey
}

// NewWithdrawSolInstruction burns pool tokens for lamports out of the reserve.
func NewWithdrawSolInstruction(programID solana.PublicKey, a WithdrawSolAccounts, poolTokens uint64) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		writable(a.Pool),
		readonly(a.WithdrawAuthority),
		signer(a.TransferAuthority, false),
		writable(a.BurnFrom),
		writable(a.Reserve),
		writable(a.Destination),
		writable(a.ManagerFee),
		writable(a.PoolMint),
		readonly(SysvarClockID),
		readonly(SysvarStakeHistoryID),
		readonly(StakeProgramID),
		readonly(a.TokenProgram),
	}
	if a.SolWithdrawAuthority != nil {
		accounts = append(accounts, signer(*a.SolWithdrawAuthority, false))
	}
	return solana.NewInstruction(programID, accounts, ixData(ixWithdrawSol, poolTokens))
}

// DepositStakeAccounts are the accounts of a DepositStake instruction.
type DepositStakeAccounts struct {
	Pool, ValidatorList, DepositAuthority, WithdrawAuthority solana.PublicKey
	DepositStake, ValidatorStake, Reserve                    solana.PublicKey
	Destination, ManagerFee, Referrer, PoolMint              solana.PublicKey
	TokenProgram                                             solana.PublicKey
}

// NewDepositStakeInstruction merges an authorized stake account into the pool.
func NewDepositStakeInstruction(programID solana.PublicKey, a DepositStakeAccounts) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		writable(a.Pool),
		writable(a.ValidatorList),
		readonly(a.DepositAuthority),
		readonly(a.WithdrawAuthority),
		writable(a.DepositStake),
		writable(a.ValidatorStake),
		writable(a.Reserve),
		writable(a.Destination),
		writable(a.ManagerFee),
		writable(a.Referrer),
		writable(a.PoolMint),
		readonly(SysvarClockID),
		readonly(SysvarStakeHistoryID),
		readonly(a.TokenProgram),
		readonly(StakeProgramID),
	}
	return solana.NewInstruction(programID, accounts, ixData(ixDepositStake))
}

// WithdrawStakeAccounts are the accounts of a WithdrawStake instruction.
type WithdrawStakeAccounts struct {
	Pool, ValidatorList, WithdrawAuthority        solana.PublicKey
	SplitFrom, SplitTo, NewStakeAuthority         solana.PublicKey
	TransferAuthority, BurnFrom, ManagerFee, Mint solana.PublicKey
	TokenProgram                                  solana.PublicKey
}

// NewWithdrawStakeInstruction splits stake off a pool stake account into SplitTo.
func NewWithdrawStakeInstruction(programID solana.PublicKey, a WithdrawStakeAccounts, poolTokens uint64) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		writable(a.Pool),
		writable(a.ValidatorList),
		readonly(a.WithdrawAuthority),
		writable(a.SplitFrom),
		writable(a.SplitTo),
		readonly(a.NewStakeAuthority),
		signer(a.TransferAuthority, false),
		writable(a.BurnFrom),
		writable(a.ManagerFee),
		writable(a.Mint),
		readonly(SysvarClockID),
		readonly(a.TokenProgram),
		readonly(StakeProgramID),
	}
	return solana.NewInstruction(programID, accounts, ixData(ixWithdrawStake, poolTokens))
}

// AddValidatorAccounts are the accounts of an AddValidatorToPool instruction.
type AddValidatorAccounts struct {
	Pool, Staker, Reserve, WithdrawAuthority solana.PublicKey
	ValidatorList, ValidatorStake, Vote      solana.PublicKey
}

// NewAddValidatorInstruction adds a validator stake account funded from the reserve.
func NewAddValidatorInstruction(programID solana.PublicKey, a AddValidatorAccounts, seed uint32) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		writable(a.Pool),
		signer(a.Staker, false),
		writable(a.Reserve),
		readonly(a.WithdrawAuthority),
		writable(a.ValidatorList),
		writable(a.ValidatorStake),
		readonly(a.Vote),
		readonly(SysvarRentID),
		readonly(SysvarClockID),
		readonly(SysvarStakeHistoryID),
		readonly(StakeConfigID),
		readonly(SystemProgramID),
		readonly(StakeProgramID),
	}
	return solana.NewInstruction(programID, accounts, ixData(ixAddValidatorToPool, seed))
}

// RemoveValidatorAccounts are the accounts of a RemoveValidatorFromPool instruction.
type RemoveValidatorAccounts struct {
	Pool, Staker, WithdrawAuthority, ValidatorList solana.PublicKey
	ValidatorStake, TransientStake                 solana.PublicKey
}

// NewRemoveValidatorInstruction starts deactivating a validator's stake.
func NewRemoveValidatorInstruction(programID solana.PublicKey, a RemoveValidatorAccounts) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		writable(a.Pool),
		signer(a.Staker, false),
		readonly(a.WithdrawAuthority),
		writable(a.ValidatorList),
		writable(a.ValidatorStake),
		writable(a.TransientStake),
		readonly(SysvarClockID),
		readonly(StakeProgramID),
	}
	return solana.NewInstruction(programID, accounts, ixData(ixRemoveValidatorFromPool))
}

// UpdateListAccounts are the fixed accounts of UpdateValidatorListBalance.
type UpdateListAccounts struct {
	Pool, WithdrawAuthority, ValidatorList, Reserve solana.PublicKey
}

// StakePair is a validator stake account and its transient account.
type StakePair struct {
	Validator, Transient solana.PublicKey
}

// NewUpdateValidatorListBalanceInstruction refreshes balances for a slice of the list
// starting at startIndex.
func NewUpdateValidatorListBalanceInstruction(
	programID solana.PublicKey,
	a UpdateListAccounts,
	pairs []StakePair,
	startIndex uint32,
	noMerge bool,
) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		readonly(a.Pool),
		readonly(a.WithdrawAuthority),
		writable(a.ValidatorList),
		writable(a.Reserve),
		readonly(SysvarClockID),
		readonly(SysvarStakeHistoryID),
		readonly(StakeProgramID),
	}
	for _, p := range pairs {
		accounts = append(accounts, writable(p.Validator), writable(p.Transient))
	}
	return solana.NewInstruction(programID, accounts, ixData(ixUpdateValidatorListBalance, startIndex, noMerge))
}

// UpdatePoolBalanceAccounts are the accounts of UpdateStakePoolBalance.
type UpdatePoolBalanceAccounts struct {
	Pool, WithdrawAuthority, ValidatorList, Reserve solana.PublicKey
	ManagerFee, PoolMint, TokenProgram              solana.PublicKey
}

// NewUpdateStakePoolBalanceInstruction recomputes pool totals and charges the epoch fee.
func NewUpdateStakePoolBalanceInstruction(programID solana.PublicKey, a UpdatePoolBalanceAccounts) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		writable(a.Pool),
		readonly(a.WithdrawAuthority),
		writable(a.ValidatorList),
		readonly(a.Reserve),
		writable(a.ManagerFee),
		writable(a.PoolMint),
		readonly(a.TokenProgram),
	}
	return solana.NewInstruction(programID, accounts, ixData(ixUpdateStakePoolBalance))
}

// NewCleanupRemovedValidatorsInstruction drops list entries that finished removal.
func NewCleanupRemovedValidatorsInstruction(programID, pool, validatorList solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		readonly(pool),
		writable(validatorList),
	}
	return solana.NewInstruction(programID, accounts, ixData(ixCleanupRemovedValidatorEntries))
}

// NewCreateAssociatedTokenAccountIdempotentInstruction creates owner's token account
// for mint unless it already exists.
func NewCreateAssociatedTokenAccountIdempotentInstruction(payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		signer(payer, true),
		writable(ata),
		readonly(owner),
		readonly(mint),
		readonly(SystemProgramID),
		readonly(derive.TokenProgramID),
	}
	return solana.NewInstruction(derive.AssociatedTokenProgramID, accounts, []byte{1})
}

// Stake program authority kinds.
const (
	StakeAuthorizeStaker     uint32 = 0
	StakeAuthorizeWithdrawer uint32 = 1
)

// NewStakeAuthorizeInstruction hands one authority of a stake account to newAuthority.
func NewStakeAuthorizeInstruction(stake, authority, newAuthority solana.PublicKey, kind uint32) solana.Instruction {
	data := make([]byte, 0, 4+32+4)
	data = binary.LittleEndian.AppendUint32(data, 1) // StakeInstruction::Authorize
	data = append(data, newAuthority.Bytes()...)
	data = binary.LittleEndian.AppendUint32(data, kind)

	accounts := solana.AccountMetaSlice{
		writable(stake),
		readonly(SysvarClockID),
		signer(authority, false),
	}
	return solana.NewInstruction(StakeProgramID, accounts, data)
}

// NewCreateAccountInstruction allocates a system account owned by owner.
func NewCreateAccountInstruction(from, newAccount, owner solana.PublicKey, lamports, space uint64) solana.Instruction {
	data := make([]byte, 0, 4+8+8+32)
	data = binary.LittleEndian.AppendUint32(data, 0) // SystemInstruction::CreateAccount
	data = binary.LittleEndian.AppendUint64(data, lamports)
	data = binary.LittleEndian.AppendUint64(data, space)
	data = append(data, owner.Bytes()...)

	accounts := solana.AccountMetaSlice{
		signer(from, true),
		signer(newAccount, true),
	}
	return solana.NewInstruction(SystemProgramID, accounts, data)
}
