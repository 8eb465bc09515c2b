package domain

import "github.com/shopspring/decimal"

// FinancialEstimate is the fee-adjusted output computed for a monetary request.
// Values are in output units (pool tokens for deposits, SOL for withdrawals).
type FinancialEstimate struct {
	Amount          decimal.Decimal // raw input amount
	EstimatedOutput decimal.Decimal // amount x rate x (1 - fee rate)
	FeeAmount       decimal.Decimal // every fee deducted, in output units
	NetOutput       decimal.Decimal // estimated output minus withdrawal fee
	Minimum         decimal.Decimal // user floor, zero means none
	BelowMinimum    bool
}
