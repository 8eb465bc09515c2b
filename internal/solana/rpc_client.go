package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"solana-stake-desk/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
// Reads are retried on transport failures; SendTransaction never is.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

var _ RPCClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Node error codes the stake desk distinguishes.
const (
	ErrCodeSendTransactionPreflightFailure = -32002
	ErrCodeBlockhashNotFound               = -32008
	ErrCodeInvalidParams                   = -32602 // unknown or non-token account
)

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	return c.do(ctx, method, params, result, c.maxRetries)
}

// do performs a JSON-RPC call with up to maxRetries retries on transport failures.
func (c *HTTPClient) do(ctx context.Context, method string, params []interface{}, result interface{}, maxRetries int) error {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
	}()

	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GetAccountInfo retrieves account info by public key.
// Returns nil if account not found.
func (c *HTTPClient) GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error) {
	params := []interface{}{
		pubkey,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": CommitmentConfirmed,
		},
	}

	var result getAccountInfoResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}

	if result.Value == nil {
		return nil, nil
	}

	info := &AccountInfo{
		Lamports:   result.Value.Lamports,
		Owner:      result.Value.Owner,
		Executable: result.Value.Executable,
		RentEpoch:  result.Value.RentEpoch,
	}

	if len(result.Value.Data) >= 1 && result.Value.Data[0] != "" {
		data, err := base64.StdEncoding.DecodeString(result.Value.Data[0])
		if err != nil {
			return nil, fmt.Errorf("decode account data: %w", err)
		}
		info.Data = data
	}

	return info, nil
}

type getAccountInfoResult struct {
	Value *getAccountInfoValue `json:"value"`
}

type getAccountInfoValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [base64_data, encoding]
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}

// GetBalance retrieves the lamport balance of an account.
func (c *HTTPClient) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	params := []interface{}{
		pubkey,
		map[string]interface{}{"commitment": CommitmentConfirmed},
	}

	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetTokenAccountBalance retrieves an SPL token account balance.
// A missing token account reads as zero: the holder simply has no shares yet.
func (c *HTTPClient) GetTokenAccountBalance(ctx context.Context, pubkey string) (*TokenAmount, error) {
	params := []interface{}{
		pubkey,
		map[string]interface{}{"commitment": CommitmentConfirmed},
	}

	var result struct {
		Value *struct {
			Amount         string `json:"amount"`
			Decimals       uint8  `json:"decimals"`
			UIAmountString string `json:"uiAmountString"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountBalance", params, &result); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == ErrCodeInvalidParams {
			return &TokenAmount{UIAmountString: "0"}, nil
		}
		return nil, err
	}
	if result.Value == nil {
		return &TokenAmount{UIAmountString: "0"}, nil
	}

	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse token amount %q: %w", result.Value.Amount, err)
	}
	return &TokenAmount{
		Amount:         amount,
		Decimals:       result.Value.Decimals,
		UIAmountString: result.Value.UIAmountString,
	}, nil
}

// GetLatestBlockhash retrieves a recent blockhash at confirmed commitment.
func (c *HTTPClient) GetLatestBlockhash(ctx context.Context) (*Blockhash, error) {
	params := []interface{}{
		map[string]interface{}{"commitment": CommitmentConfirmed},
	}

	var result struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return nil, err
	}
	if result.Value.Blockhash == "" {
		return nil, fmt.Errorf("empty blockhash in response")
	}
	return &Blockhash{
		Hash:                 result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for a data size.
func (c *HTTPClient) GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error) {
	var result uint64
	if err := c.call(ctx, "getMinimumBalanceForRentExemption", []interface{}{dataLen}, &result); err != nil {
		return 0, err
	}
	return result, nil
}

// SendTransaction broadcasts a signed transaction. The request is issued once with
// node-side retries disabled, so a failure never causes a duplicate submission.
func (c *HTTPClient) SendTransaction(ctx context.Context, raw []byte) (string, error) {
	params := []interface{}{
		base64.StdEncoding.EncodeToString(raw),
		map[string]interface{}{
			"encoding":            "base64",
			"skipPreflight":       false,
			"preflightCommitment": CommitmentConfirmed,
			"maxRetries":          0,
		},
	}

	var signature string
	if err := c.do(ctx, "sendTransaction", params, &signature, 0); err != nil {
		return "", err
	}
	return signature, nil
}

// GetSignatureStatuses retrieves statuses for up to 256 signatures.
func (c *HTTPClient) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	params := []interface{}{
		signatures,
		map[string]interface{}{"searchTransactionHistory": false},
	}

	var result struct {
		Value []*getSignatureStatusValue `json:"value"`
	}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(result.Value))
	for i, v := range result.Value {
		if v == nil {
			continue
		}
		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
			Err:                v.Err,
		}
	}
	return statuses, nil
}

type getSignatureStatusValue struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	ConfirmationStatus string      `json:"confirmationStatus"`
	Err                interface{} `json:"err"`
}
