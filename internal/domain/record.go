package domain

// OperationStatus is the terminal state of a journaled operation.
type OperationStatus string

const (
	StatusConfirmed OperationStatus = "CONFIRMED"
	StatusRejected  OperationStatus = "REJECTED"
	StatusFailed    OperationStatus = "FAILED"
	StatusSkipped   OperationStatus = "SKIPPED"
)

// OperationRecord is a caller-owned history entry for one orchestrator call.
// Corresponds to operation_journal table in PostgreSQL.
type OperationRecord struct {
	ID           string          // unique record id
	Kind         OperationKind   // operation kind
	Pool         string          // pool address
	Wallet       string          // wallet public key
	Signature    *string         // transaction signature (nullable)
	Status       OperationStatus // terminal state
	ErrorClass   *string         // classified failure (nullable)
	ErrorMessage *string         // underlying message (nullable)
	Amount       *string         // raw amount as entered (nullable)
	NetOutput    *string         // estimated net output (nullable)
	StartedAt    int64           // call start (ms)
	FinishedAt   int64           // call end (ms)
	CreatedAt    int64           // record creation timestamp (ms)
}

// PoolSnapshot is one observation of pool accounting, taken when a descriptor is displayed.
// Corresponds to pool_snapshots table in ClickHouse.
type PoolSnapshot struct {
	Pool                string
	ObservedAt          int64 // ms
	TotalLamports       uint64
	PoolTokenSupply     uint64
	LastUpdateEpoch     uint64
	SolDepositFeeBps    int64
	SolWithdrawFeeBps   int64
	StakeWithdrawFeeBps int64
}
