package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-stake-desk/internal/domain"
)

// ComputeOperationID computes a deterministic journal id using SHA256.
// Formula: SHA256(kind|pool|wallet|started_at_ms|seq)
// seq separates calls that start in the same millisecond.
// Returns hex-encoded hash (64 characters).
func ComputeOperationID(kind domain.OperationKind, pool, wallet string, startedAtMs int64, seq uint64) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d", string(kind), pool, wallet, startedAtMs, seq)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
