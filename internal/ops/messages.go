package ops

import (
	"errors"
	"fmt"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/guard"
	"solana-stake-desk/internal/notify"
)

var actionNames = map[domain.OperationKind]string{
	domain.OpDepositValue:     "Stake",
	domain.OpWithdrawValue:    "Unstake",
	domain.OpDepositPosition:  "Stake account deposit",
	domain.OpWithdrawPosition: "Stake account withdrawal",
	domain.OpAddValidator:     "Add validator",
	domain.OpRemoveValidator:  "Remove validator",
	domain.OpRefreshPool:      "Pool update",
}

func actionName(kind domain.OperationKind) string {
	if name, ok := actionNames[kind]; ok {
		return name
	}
	return kind.String()
}

func successTitle(kind domain.OperationKind) string {
	return actionName(kind) + " successful"
}

func successDescription(out Outcome) string {
	if out.Estimate != nil {
		unit := "pool tokens"
		if out.Kind == domain.OpWithdrawValue || out.Kind == domain.OpWithdrawPosition {
			unit = "SOL"
		}
		return fmt.Sprintf("Estimated %s received. Signature: %s",
			notify.Amount(out.Estimate.NetOutput, unit), out.Signature)
	}
	return "Signature: " + out.Signature
}

func failureTitle(kind domain.OperationKind, class Class) string {
	switch class {
	case ClassSlippageExceeded:
		return "Slippage protection"
	case ClassWalletNotConnected:
		return "Wallet not connected"
	case ClassOperationInProgress:
		return "Operation in progress"
	case ClassInsufficientBalance:
		return "Insufficient balance"
	case ClassInvalidAmount:
		return "Invalid amount"
	}
	return actionName(kind) + " failed"
}

func failureDescription(err error) string {
	var slip *guard.SlippageError
	if errors.As(err, &slip) {
		return fmt.Sprintf("Estimated output %s is less than your minimum %s",
			slip.Estimate.NetOutput.StringFixed(4), slip.Estimate.Minimum.String())
	}
	return err.Error()
}
