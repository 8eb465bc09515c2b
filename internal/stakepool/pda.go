package stakepool

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// WithdrawAuthority derives the pool's withdraw authority.
func WithdrawAuthority(programID, pool solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{pool.Bytes(), []byte("withdraw")}, programID)
	return addr, err
}

// DepositAuthority derives the pool's default stake deposit authority.
func DepositAuthority(programID, pool solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{pool.Bytes(), []byte("deposit")}, programID)
	return addr, err
}

// ValidatorStakeAddress derives the stake account the pool holds for a validator.
// A zero seed is omitted from the seeds.
func ValidatorStakeAddress(programID, vote, pool solana.PublicKey, seed uint32) (solana.PublicKey, error) {
	seeds := [][]byte{vote.Bytes(), pool.Bytes()}
	if seed != 0 {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, seed)
		seeds = append(seeds, b)
	}
	addr, _, err := solana.FindProgramAddress(seeds, programID)
	return addr, err
}

// TransientStakeAddress derives the transient stake account for a validator.
func TransientStakeAddress(programID, vote, pool solana.PublicKey, seed uint64) (solana.PublicKey, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, seed)
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("transient"), vote.Bytes(), pool.Bytes(), b}, programID)
	return addr, err
}
