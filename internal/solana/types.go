package solana

// TokenAmount is an SPL token balance as reported by getTokenAccountBalance.
type TokenAmount struct {
	Amount         uint64 // base units
	Decimals       uint8
	UIAmountString string
}

// Blockhash is a recent blockhash with its validity horizon.
type Blockhash struct {
	Hash                 string
	LastValidBlockHeight uint64
}

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64 // nil once rooted
	ConfirmationStatus string
	Err                interface{}
}

// Reached reports whether the status is at or beyond the given commitment.
func (s *SignatureStatus) Reached(commitment string) bool {
	if s == nil {
		return false
	}
	rank := map[string]int{CommitmentProcessed: 1, CommitmentConfirmed: 2, CommitmentFinalized: 3}
	return rank[s.ConfirmationStatus] >= rank[commitment]
}
