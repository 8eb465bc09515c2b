package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSignature waits for a transaction signature to reach the commitment.
	// The channel receives at most one notification and is then closed. The
	// returned func cancels the subscription; it is a no-op once the
	// notification has been delivered and may be called more than once.
	SubscribeSignature(ctx context.Context, signature, commitment string) (<-chan SignatureNotification, func(), error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification is delivered once a subscribed signature reaches its commitment.
type SignatureNotification struct {
	Signature string
	Slot      uint64
	Err       interface{} // nil on success, the on-chain TransactionError otherwise
}
