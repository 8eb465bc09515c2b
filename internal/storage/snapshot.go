package storage

import (
	"time"

	"solana-stake-desk/internal/domain"
)

// SnapshotOf captures the accounting fields of a descriptor observed at t.
func SnapshotOf(p *domain.PoolDescriptor, t time.Time) *domain.PoolSnapshot {
	return &domain.PoolSnapshot{
		Pool:                p.Address.String(),
		ObservedAt:          t.UnixMilli(),
		TotalLamports:       p.TotalLamports,
		PoolTokenSupply:     p.PoolTokenSupply,
		LastUpdateEpoch:     p.LastUpdateEpoch,
		SolDepositFeeBps:    p.SolDepositFee.BasisPoints(),
		SolWithdrawFeeBps:   p.SolWithdrawalFee.BasisPoints(),
		StakeWithdrawFeeBps: p.StakeWithdrawalFee.BasisPoints(),
	}
}
