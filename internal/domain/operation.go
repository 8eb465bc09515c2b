package domain

// OperationKind identifies one of the seven pool operations.
type OperationKind string

const (
	OpDepositValue     OperationKind = "DEPOSIT_SOL"
	OpWithdrawValue    OperationKind = "WITHDRAW_SOL"
	OpDepositPosition  OperationKind = "DEPOSIT_STAKE"
	OpWithdrawPosition OperationKind = "WITHDRAW_STAKE"
	OpAddValidator     OperationKind = "ADD_VALIDATOR"
	OpRemoveValidator  OperationKind = "REMOVE_VALIDATOR"
	OpRefreshPool      OperationKind = "UPDATE_POOL"
)

// AllOperationKinds lists every supported kind in a stable order.
var AllOperationKinds = []OperationKind{
	OpDepositValue,
	OpWithdrawValue,
	OpDepositPosition,
	OpWithdrawPosition,
	OpAddValidator,
	OpRemoveValidator,
	OpRefreshPool,
}

// String returns the string representation of OperationKind.
func (k OperationKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a supported operation.
func (k OperationKind) IsValid() bool {
	for _, known := range AllOperationKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Monetary reports whether requests of this kind carry an amount that must be guarded.
func (k OperationKind) Monetary() bool {
	return k == OpDepositValue || k == OpWithdrawValue || k == OpWithdrawPosition
}
