package ops

import (
	"errors"

	"solana-stake-desk/internal/derive"
	"solana-stake-desk/internal/guard"
	"solana-stake-desk/internal/submit"
)

// Orchestrator errors.
var (
	// ErrWalletNotConnected is returned when no identity is available to pay and sign.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrOperationInProgress is returned when another call is already in flight.
	ErrOperationInProgress = errors.New("operation in progress")

	// ErrBuilder wraps failures reading pool state or assembling instructions.
	ErrBuilder = errors.New("builder error")
)

// Class is the user-facing failure classification of an operation.
type Class string

const (
	ClassNone                Class = ""
	ClassWalletNotConnected  Class = "WalletNotConnected"
	ClassInvalidIdentifier   Class = "InvalidIdentifier"
	ClassInvalidAmount       Class = "InvalidAmount"
	ClassInsufficientBalance Class = "InsufficientBalance"
	ClassSlippageExceeded    Class = "SlippageExceeded"
	ClassBuilderError        Class = "BuilderError"
	ClassSubmissionRejected  Class = "SubmissionRejected"
	ClassConfirmationTimeout Class = "ConfirmationTimeout"
	ClassConfirmationFailed  Class = "ConfirmationFailed"
	ClassOperationInProgress Class = "OperationInProgress"
)

// String returns the string representation of Class.
func (c Class) String() string {
	return string(c)
}

// Guarded reports whether the failure was raised before anything was built.
func (c Class) Guarded() bool {
	switch c {
	case ClassWalletNotConnected, ClassInvalidIdentifier, ClassInvalidAmount, ClassInsufficientBalance,
		ClassSlippageExceeded, ClassOperationInProgress:
		return true
	}
	return false
}

// Classify maps any error returned by the orchestrator to its class.
// Unrecognised errors are treated as builder failures.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrOperationInProgress):
		return ClassOperationInProgress
	case errors.Is(err, ErrWalletNotConnected):
		return ClassWalletNotConnected
	case errors.Is(err, derive.ErrInvalidIdentifier):
		return ClassInvalidIdentifier
	case errors.Is(err, guard.ErrInvalidAmount), errors.Is(err, guard.ErrInvalidMinimum):
		return ClassInvalidAmount
	case errors.Is(err, guard.ErrInsufficientBalance):
		return ClassInsufficientBalance
	case errors.Is(err, guard.ErrSlippageExceeded):
		return ClassSlippageExceeded
	case errors.Is(err, submit.ErrSubmissionRejected):
		return ClassSubmissionRejected
	case errors.Is(err, submit.ErrConfirmationTimeout):
		return ClassConfirmationTimeout
	case errors.Is(err, submit.ErrConfirmationFailed):
		return ClassConfirmationFailed
	default:
		return ClassBuilderError
	}
}
