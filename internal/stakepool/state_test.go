package stakepool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-stake-desk/internal/domain"
)

func TestDecodePool(t *testing.T) {
	want := testPool(t)
	depositAuth := newKey()
	want.SolDepositAuthority = &depositAuth

	got, err := DecodePool(want.Address, encodePool(want))
	require.NoError(t, err)

	assert.Equal(t, want.Address, got.Address)
	assert.Equal(t, want.Manager, got.Manager)
	assert.Equal(t, want.StakeDepositAuthority, got.StakeDepositAuthority)
	assert.Equal(t, want.ValidatorList, got.ValidatorList)
	assert.Equal(t, want.ReserveStake, got.ReserveStake)
	assert.Equal(t, want.ShareMint, got.ShareMint)
	assert.Equal(t, want.ManagerFeeAccount, got.ManagerFeeAccount)
	assert.Equal(t, want.TotalLamports, got.TotalLamports)
	assert.Equal(t, want.PoolTokenSupply, got.PoolTokenSupply)
	assert.Equal(t, want.EpochFee, got.EpochFee)
	assert.Equal(t, want.StakeWithdrawalFee, got.StakeWithdrawalFee)
	assert.Equal(t, want.SolDepositFee, got.SolDepositFee)
	assert.Equal(t, want.SolWithdrawalFee, got.SolWithdrawalFee)
	assert.Equal(t, want.SolReferralFee, got.SolReferralFee)
	require.NotNil(t, got.SolDepositAuthority)
	assert.Equal(t, depositAuth, *got.SolDepositAuthority)
	assert.Nil(t, got.SolWithdrawAuthority)
}

func TestDecodePool_WrongAccountType(t *testing.T) {
	data := encodeValidatorList(testValidators(1))
	_, err := DecodePool(newKey(), data)
	assert.ErrorIs(t, err, ErrNotStakePool)
}

func TestDecodePool_Truncated(t *testing.T) {
	p := testPool(t)
	data := encodePool(p)

	_, err := DecodePool(p.Address, data[:150])
	assert.ErrorIs(t, err, ErrMalformedAccount)

	_, err = DecodePool(p.Address, nil)
	assert.Error(t, err)
}

func TestDecodePool_BadOptionTag(t *testing.T) {
	p := testPool(t)
	data := encodePool(p)
	// First preferred-validator option tag sits right after epoch fee and the pending fee.
	offset := 1 + 32*3 + 1 + 32*5 + 8*3 + 8*2 + 32 + 16 + 1 + 16
	data[offset] = 7

	_, err := DecodePool(p.Address, data)
	assert.True(t, errors.Is(err, ErrMalformedAccount), "got %v", err)
}

func TestDecodeValidatorList(t *testing.T) {
	want := testValidators(3)
	want.Validators[2].Status = domain.ValidatorReadyForRemoval

	got, err := DecodeValidatorList(encodeValidatorList(want))
	require.NoError(t, err)

	assert.Equal(t, want.MaxValidators, got.MaxValidators)
	require.Len(t, got.Validators, 3)
	assert.Equal(t, want.Validators, got.Validators)
	assert.Equal(t, "ready_for_removal", got.Validators[2].Status.String())
}

func TestDecodeValidatorList_Empty(t *testing.T) {
	got, err := DecodeValidatorList(encodeValidatorList(&domain.ValidatorList{MaxValidators: 10}))
	require.NoError(t, err)
	assert.Empty(t, got.Validators)
}

func TestDecodeValidatorList_LengthOverflow(t *testing.T) {
	data := encodeValidatorList(testValidators(1))
	// claim 1000 entries
	data[5], data[6] = 0xe8, 0x03

	_, err := DecodeValidatorList(data)
	assert.ErrorIs(t, err, ErrMalformedAccount)
}
