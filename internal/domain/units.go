package domain

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// PoolTokenDecimals is the mint precision used by SPL stake pools.
const PoolTokenDecimals = 9

// ErrAmountOutOfRange is returned when a UI amount does not fit in base units.
var ErrAmountOutOfRange = errors.New("amount out of range")

// DecimalFromUint64 converts an on-chain quantity to a decimal without overflow.
func DecimalFromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return DecimalFromUint64(lamports).Shift(-PoolTokenDecimals)
}

// ToBaseUnits converts a UI amount to integer base units, truncating sub-unit dust.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (uint64, error) {
	if amount.IsNegative() {
		return 0, ErrAmountOutOfRange
	}
	n := amount.Shift(decimals).Truncate(0).BigInt()
	if !n.IsUint64() {
		return 0, ErrAmountOutOfRange
	}
	return n.Uint64(), nil
}
