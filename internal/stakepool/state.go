package stakepool

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"solana-stake-desk/internal/domain"
)

// validatorEntrySize is the packed size of one validator list entry.
const validatorEntrySize = 73

// accountReader wraps the borsh decoder with sticky errors so layouts read top to bottom.
type accountReader struct {
	dec *bin.Decoder
	err error
}

func newAccountReader(data []byte) *accountReader {
	return &accountReader{dec: bin.NewBorshDecoder(data)}
}

func (r *accountReader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.err = err
	return v
}

func (r *accountReader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(binary.LittleEndian)
	r.err = err
	return v
}

func (r *accountReader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(binary.LittleEndian)
	r.err = err
	return v
}

func (r *accountReader) pubkey() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	b, err := r.dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		r.err = err
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}

func (r *accountReader) optionalPubkey() *solana.PublicKey {
	switch tag := r.u8(); tag {
	case 0:
		return nil
	case 1:
		pk := r.pubkey()
		return &pk
	default:
		if r.err == nil {
			r.err = fmt.Errorf("option tag %d", tag)
		}
		return nil
	}
}

func (r *accountReader) fee() domain.Fee {
	return domain.Fee{Denominator: r.u64(), Numerator: r.u64()}
}

// futureFee reads a FutureEpoch<Fee>; the pending value is not needed by callers.
func (r *accountReader) futureFee() {
	switch tag := r.u8(); tag {
	case 0:
	case 1, 2:
		r.fee()
	default:
		if r.err == nil {
			r.err = fmt.Errorf("future epoch tag %d", tag)
		}
	}
}

// DecodePool decodes a stake pool account.
func DecodePool(address solana.PublicKey, data []byte) (*domain.PoolDescriptor, error) {
	r := newAccountReader(data)

	if t := r.u8(); r.err == nil && t != accountTypeStakePool {
		return nil, fmt.Errorf("%w: account type %d", ErrNotStakePool, t)
	}

	p := &domain.PoolDescriptor{Address: address}
	p.Manager = r.pubkey()
	p.Staker = r.pubkey()
	p.StakeDepositAuthority = r.pubkey()
	p.WithdrawBumpSeed = r.u8()
	p.ValidatorList = r.pubkey()
	p.ReserveStake = r.pubkey()
	p.ShareMint = r.pubkey()
	p.ManagerFeeAccount = r.pubkey()
	p.TokenProgram = r.pubkey()
	p.TotalLamports = r.u64()
	p.PoolTokenSupply = r.u64()
	p.LastUpdateEpoch = r.u64()

	// lockup: unix timestamp, epoch, custodian
	r.u64()
	r.u64()
	r.pubkey()

	p.EpochFee = r.fee()
	r.futureFee()
	r.optionalPubkey() // preferred deposit validator
	r.optionalPubkey() // preferred withdraw validator
	p.StakeDepositFee = r.fee()
	p.StakeWithdrawalFee = r.fee()
	r.futureFee()
	p.StakeReferralFee = r.u8()
	p.SolDepositAuthority = r.optionalPubkey()
	p.SolDepositFee = r.fee()
	p.SolReferralFee = r.u8()
	p.SolWithdrawAuthority = r.optionalPubkey()
	p.SolWithdrawalFee = r.fee()

	if r.err != nil {
		return nil, fmt.Errorf("%w: stake pool %s: %v", ErrMalformedAccount, address, r.err)
	}
	return p, nil
}

// DecodeValidatorList decodes a validator list account.
func DecodeValidatorList(data []byte) (*domain.ValidatorList, error) {
	r := newAccountReader(data)

	if t := r.u8(); r.err == nil && t != accountTypeValidatorList {
		return nil, fmt.Errorf("%w: validator list account type %d", ErrMalformedAccount, t)
	}

	list := &domain.ValidatorList{MaxValidators: r.u32()}
	n := r.u32()
	if r.err == nil && uint64(n)*validatorEntrySize > uint64(len(data)) {
		return nil, fmt.Errorf("%w: validator list claims %d entries", ErrMalformedAccount, n)
	}

	list.Validators = make([]domain.ValidatorInfo, 0, n)
	for i := uint32(0); i < n && r.err == nil; i++ {
		v := domain.ValidatorInfo{
			ActiveStakeLamports:    r.u64(),
			TransientStakeLamports: r.u64(),
			LastUpdateEpoch:        r.u64(),
			TransientSeedSuffix:    r.u64(),
		}
		r.u32() // unused
		v.ValidatorSeedSuffix = r.u32()
		v.Status = domain.ValidatorStatus(r.u8())
		v.VoteAccount = r.pubkey()
		list.Validators = append(list.Validators, v)
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: validator list: %v", ErrMalformedAccount, r.err)
	}
	return list, nil
}
