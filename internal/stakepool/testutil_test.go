package stakepool

import (
	"bytes"
	"encoding/binary"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"solana-stake-desk/internal/derive"
	"solana-stake-desk/internal/domain"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func testPool(t *testing.T) *domain.PoolDescriptor {
	t.Helper()
	addr := newKey()
	depositAuth, err := DepositAuthority(ProgramID, addr)
	if err != nil {
		t.Fatalf("deposit authority: %v", err)
	}
	return &domain.PoolDescriptor{
		Address:               addr,
		Manager:               newKey(),
		Staker:                newKey(),
		StakeDepositAuthority: depositAuth,
		WithdrawBumpSeed:      254,
		ValidatorList:         newKey(),
		ReserveStake:          newKey(),
		ShareMint:             newKey(),
		ManagerFeeAccount:     newKey(),
		TokenProgram:          derive.TokenProgramID,
		TotalLamports:         1_050_000_000_000,
		PoolTokenSupply:       1_000_000_000_000,
		LastUpdateEpoch:       512,
		EpochFee:              domain.Fee{Denominator: 100, Numerator: 6},
		StakeDepositFee:       domain.Fee{Denominator: 1000, Numerator: 1},
		StakeWithdrawalFee:    domain.Fee{Denominator: 1000, Numerator: 3},
		SolDepositFee:         domain.Fee{Denominator: 1000, Numerator: 5},
		SolWithdrawalFee:      domain.Fee{Denominator: 1000, Numerator: 3},
		StakeReferralFee:      10,
		SolReferralFee:        20,
	}
}

type encoder struct {
	buf *bytes.Buffer
	enc *bin.Encoder
}

func newEncoder() *encoder {
	buf := new(bytes.Buffer)
	return &encoder{buf: buf, enc: bin.NewBorshEncoder(buf)}
}

func (e *encoder) u8(v uint8)                 { _ = e.enc.WriteUint8(v) }
func (e *encoder) u32(v uint32)               { _ = e.enc.WriteUint32(v, binary.LittleEndian) }
func (e *encoder) u64(v uint64)               { _ = e.enc.WriteUint64(v, binary.LittleEndian) }
func (e *encoder) pubkey(pk solana.PublicKey) { _ = e.enc.WriteBytes(pk[:], false) }

func (e *encoder) fee(f domain.Fee) {
	e.u64(f.Denominator)
	e.u64(f.Numerator)
}

func (e *encoder) option(pk *solana.PublicKey) {
	if pk == nil {
		e.u8(0)
		return
	}
	e.u8(1)
	e.pubkey(*pk)
}

// encodePool lays out a StakePool account the way the program stores it.
func encodePool(p *domain.PoolDescriptor) []byte {
	e := newEncoder()
	e.u8(accountTypeStakePool)
	e.pubkey(p.Manager)
	e.pubkey(p.Staker)
	e.pubkey(p.StakeDepositAuthority)
	e.u8(p.WithdrawBumpSeed)
	e.pubkey(p.ValidatorList)
	e.pubkey(p.ReserveStake)
	e.pubkey(p.ShareMint)
	e.pubkey(p.ManagerFeeAccount)
	e.pubkey(p.TokenProgram)
	e.u64(p.TotalLamports)
	e.u64(p.PoolTokenSupply)
	e.u64(p.LastUpdateEpoch)
	e.u64(0) // lockup timestamp
	e.u64(0) // lockup epoch
	e.pubkey(solana.PublicKey{})
	e.fee(p.EpochFee)
	e.u8(2) // next epoch fee pending for two epochs
	e.fee(domain.Fee{Denominator: 100, Numerator: 5})
	e.option(nil)
	e.option(nil)
	e.fee(p.StakeDepositFee)
	e.fee(p.StakeWithdrawalFee)
	e.u8(0)
	e.u8(p.StakeReferralFee)
	e.option(p.SolDepositAuthority)
	e.fee(p.SolDepositFee)
	e.u8(p.SolReferralFee)
	e.option(p.SolWithdrawAuthority)
	e.fee(p.SolWithdrawalFee)
	e.u8(0)
	e.u64(p.PoolTokenSupply)
	e.u64(p.TotalLamports)
	return e.buf.Bytes()
}

func encodeValidatorList(l *domain.ValidatorList) []byte {
	e := newEncoder()
	e.u8(accountTypeValidatorList)
	e.u32(l.MaxValidators)
	e.u32(uint32(len(l.Validators)))
	for _, v := range l.Validators {
		e.u64(v.ActiveStakeLamports)
		e.u64(v.TransientStakeLamports)
		e.u64(v.LastUpdateEpoch)
		e.u64(v.TransientSeedSuffix)
		e.u32(0)
		e.u32(v.ValidatorSeedSuffix)
		e.u8(uint8(v.Status))
		e.pubkey(v.VoteAccount)
	}
	return e.buf.Bytes()
}

func testValidators(n int) *domain.ValidatorList {
	l := &domain.ValidatorList{MaxValidators: 100}
	for i := 0; i < n; i++ {
		l.Validators = append(l.Validators, domain.ValidatorInfo{
			VoteAccount:         newKey(),
			ActiveStakeLamports: uint64(i+1) * 100 * domain.LamportsPerSOL,
			LastUpdateEpoch:     512,
			TransientSeedSuffix: uint64(i),
			ValidatorSeedSuffix: uint32(i % 2),
			Status:              domain.ValidatorActive,
		})
	}
	return l
}
