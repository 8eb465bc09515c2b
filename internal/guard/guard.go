// Package guard implements client-side financial checks run before any instruction is built:
// fee-adjusted output estimation, balance ceilings and the minimum-output (slippage) floor.
package guard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"solana-stake-desk/internal/domain"
)

// Guard errors.
var (
	// ErrInsufficientBalance is returned when the amount exceeds the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSlippageExceeded is returned when the net output falls below the user minimum.
	ErrSlippageExceeded = errors.New("estimated output below minimum")

	// ErrInvalidQuote is returned for rates outside their valid range.
	ErrInvalidQuote = errors.New("invalid quote")

	// ErrInvalidAmount is returned for a numeric amount no base-unit count can carry.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidMinimum is returned for a minimum-output field that is set but unusable.
	ErrInvalidMinimum = errors.New("invalid minimum output")
)

// maxIntegerDigits bounds the integer part of any parsed amount. A u64 count of
// base units with domain.PoolTokenDecimals places needs at most 11.
const maxIntegerDigits = 20

// Kind selects which fee schedule applies to a quote.
type Kind string

const (
	KindStakeValue     Kind = "stake_value"
	KindUnstakeValue   Kind = "unstake_value"
	KindUnstakeAccount Kind = "unstake_account"
)

// Quote is the input to Evaluate. Rates are fractions, not percentages.
type Quote struct {
	Kind          Kind
	Amount        decimal.Decimal // raw amount in input units
	Ceiling       decimal.Decimal // available balance in input units
	Rate          decimal.Decimal // output units per input unit; zero means 1
	FeeRate       decimal.Decimal // fee applied to the converted amount
	WithdrawalFee decimal.Decimal // extra fee applied on withdrawal
	Minimum       decimal.Decimal // user floor on net output; <= 0 means none
}

// Decision is the guard verdict. NoOp means there is nothing to do and is not an error.
type Decision struct {
	NoOp     bool
	Estimate domain.FinancialEstimate
}

// SlippageError carries the estimate that tripped the minimum-output floor.
type SlippageError struct {
	Estimate domain.FinancialEstimate
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("%s: estimated %s is less than your minimum %s",
		ErrSlippageExceeded, e.Estimate.NetOutput.StringFixed(4), e.Estimate.Minimum.String())
}

func (e *SlippageError) Unwrap() error {
	return ErrSlippageExceeded
}

// ParseAmount parses user-entered text. Empty, non-numeric, zero or negative input
// reports ok=false, which callers treat as "nothing to do". A positive amount with
// more integer digits than a u64 can hold, or finer than one base unit, fails with
// ErrInvalidAmount before any arithmetic touches it.
func ParseAmount(raw string) (decimal.Decimal, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false, nil
	}
	if !representable(d) {
		return decimal.Zero, false, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d, true, nil
}

// ParseMinimum parses an optional minimum-output field. Blank or zero means no
// floor. Anything else that is not a representable non-negative number fails
// with ErrInvalidMinimum; a typo never silently drops the floor.
func ParseMinimum(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidMinimum, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q is negative", ErrInvalidMinimum, raw)
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if !representable(d) {
		return decimal.Zero, fmt.Errorf("%w: %q is out of range", ErrInvalidMinimum, raw)
	}
	return d, nil
}

// representable reports whether d is a whole number of base units within
// maxIntegerDigits. Exponent and coefficient length are checked first, so a
// hostile exponent is rejected before any rescaling.
func representable(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp < -2*domain.PoolTokenDecimals || exp > maxIntegerDigits {
		return false
	}
	if d.NumDigits()+exp > maxIntegerDigits {
		return false
	}
	return d.Truncate(domain.PoolTokenDecimals).Equal(d)
}

// Estimate computes the fee-adjusted output without applying any decision.
func Estimate(q Quote) (domain.FinancialEstimate, error) {
	rate := q.Rate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	if rate.IsNegative() {
		return domain.FinancialEstimate{}, fmt.Errorf("%w: rate %s", ErrInvalidQuote, rate)
	}
	if !validFraction(q.FeeRate) {
		return domain.FinancialEstimate{}, fmt.Errorf("%w: fee rate %s", ErrInvalidQuote, q.FeeRate)
	}
	if !validFraction(q.WithdrawalFee) {
		return domain.FinancialEstimate{}, fmt.Errorf("%w: withdrawal fee %s", ErrInvalidQuote, q.WithdrawalFee)
	}

	one := decimal.NewFromInt(1)
	gross := q.Amount.Mul(rate)
	estimated := gross.Mul(one.Sub(q.FeeRate))
	withdrawFee := estimated.Mul(q.WithdrawalFee)
	net := estimated.Sub(withdrawFee)

	minimum := q.Minimum
	if minimum.IsNegative() {
		minimum = decimal.Zero
	}

	return domain.FinancialEstimate{
		Amount:          q.Amount,
		EstimatedOutput: estimated,
		FeeAmount:       gross.Sub(estimated).Add(withdrawFee),
		NetOutput:       net,
		Minimum:         minimum,
		BelowMinimum:    minimum.IsPositive() && net.LessThan(minimum),
	}, nil
}

// Evaluate decides whether a monetary operation may proceed.
func Evaluate(q Quote) (Decision, error) {
	if !q.Amount.IsPositive() {
		return Decision{NoOp: true}, nil
	}
	if !representable(q.Amount) {
		return Decision{}, fmt.Errorf("%w: exponent %d out of range", ErrInvalidAmount, q.Amount.Exponent())
	}
	if q.Minimum.IsPositive() && !representable(q.Minimum) {
		return Decision{}, fmt.Errorf("%w: exponent %d out of range", ErrInvalidMinimum, q.Minimum.Exponent())
	}
	if q.Amount.GreaterThan(q.Ceiling) {
		return Decision{}, fmt.Errorf("%w: amount %s exceeds available %s",
			ErrInsufficientBalance, q.Amount, q.Ceiling)
	}

	est, err := Estimate(q)
	if err != nil {
		return Decision{}, err
	}
	if est.BelowMinimum {
		return Decision{Estimate: est}, &SlippageError{Estimate: est}
	}
	return Decision{Estimate: est}, nil
}

func validFraction(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThan(decimal.NewFromInt(1))
}
