package solana

import "context"

// Commitment levels accepted by the RPC node.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// RPCClient defines the Solana RPC HTTP interface used by the stake desk.
type RPCClient interface {
	// GetAccountInfo retrieves an account. Returns nil, nil when the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetBalance retrieves the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetTokenAccountBalance retrieves an SPL token account balance.
	// Returns a zero balance when the token account does not exist.
	GetTokenAccountBalance(ctx context.Context, pubkey string) (*TokenAmount, error)

	// GetLatestBlockhash retrieves a recent blockhash at confirmed commitment.
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)

	// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for a data size.
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)

	// SendTransaction broadcasts a signed, serialized transaction exactly once.
	SendTransaction(ctx context.Context, raw []byte) (string, error)

	// GetSignatureStatuses retrieves statuses for signatures, nil entries for unknown ones.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}

// AccountInfo represents Solana account information with decoded data.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte
	Executable bool
	RentEpoch  uint64
}
