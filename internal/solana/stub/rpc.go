package stub

import (
	"context"
	"errors"
	"sync"

	"github.com/mr-tron/base58"

	"solana-stake-desk/internal/solana"
)

// ErrNotFound is returned when a configured lookup has no entry.
var ErrNotFound = errors.New("not found")

// DefaultBlockhash is a valid base58 hash served when none is configured.
const DefaultBlockhash = "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"

// RPCClient implements solana.RPCClient for testing. It records every call.
// Sent transactions are confirmed on the next status poll unless AutoConfirm is false.
type RPCClient struct {
	mu sync.Mutex

	Accounts      map[string]*solana.AccountInfo
	Balances      map[string]uint64
	TokenBalances map[string]uint64
	Statuses      map[string]*solana.SignatureStatus
	Blockhash     string
	Rent          uint64
	AutoConfirm   bool

	// SendErr, when set, is returned by SendTransaction.
	SendErr error
	// SentErr, when set, is reported as the on-chain error of auto-confirmed transactions.
	SentErr interface{}

	Sent  [][]byte
	calls map[string]int
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:      make(map[string]*solana.AccountInfo),
		Balances:      make(map[string]uint64),
		TokenBalances: make(map[string]uint64),
		Statuses:      make(map[string]*solana.SignatureStatus),
		Blockhash:     DefaultBlockhash,
		Rent:          2_282_880,
		AutoConfirm:   true,
		calls:         make(map[string]int),
	}
}

func (c *RPCClient) record(method string) {
	c.calls[method]++
}

// Calls returns how many times method was invoked.
func (c *RPCClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (c *RPCClient) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

// SetAccount stores raw account data owned by owner.
func (c *RPCClient) SetAccount(pubkey, owner string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = &solana.AccountInfo{Lamports: 1, Owner: owner, Data: data}
}

// SetStatus stores the status reported for a signature.
func (c *RPCClient) SetStatus(signature string, status *solana.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = status
}

// GetAccountInfo returns the stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getAccountInfo")
	return c.Accounts[pubkey], nil
}

// GetBalance returns the stored lamport balance (zero when unset).
func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getBalance")
	return c.Balances[pubkey], nil
}

// GetTokenAccountBalance returns the stored token balance with 9 decimals.
func (c *RPCClient) GetTokenAccountBalance(_ context.Context, pubkey string) (*solana.TokenAmount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getTokenAccountBalance")
	return &solana.TokenAmount{Amount: c.TokenBalances[pubkey], Decimals: 9}, nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getLatestBlockhash")
	return &solana.Blockhash{Hash: c.Blockhash, LastValidBlockHeight: 1000}, nil
}

// GetMinimumBalanceForRentExemption returns the configured rent.
func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, _ uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getMinimumBalanceForRentExemption")
	return c.Rent, nil
}

// SendTransaction stores the payload and returns its first signature.
func (c *RPCClient) SendTransaction(_ context.Context, raw []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("sendTransaction")
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, raw)

	sig := FirstSignature(raw)
	if c.AutoConfirm {
		c.Statuses[sig] = &solana.SignatureStatus{
			Slot:               1,
			ConfirmationStatus: solana.CommitmentConfirmed,
			Err:                c.SentErr,
		}
	}
	return sig, nil
}

// GetSignatureStatuses returns stored statuses, nil for unknown signatures.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getSignatureStatuses")
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, s := range signatures {
		out[i] = c.Statuses[s]
	}
	return out, nil
}

// FirstSignature extracts the fee payer signature from a serialized legacy transaction.
func FirstSignature(raw []byte) string {
	// compact-u16 signature count, then 64-byte signatures
	if len(raw) < 65 || raw[0] == 0 {
		return ""
	}
	return base58.Encode(raw[1:65])
}
