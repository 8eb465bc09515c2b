package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"solana-stake-desk/internal/observability"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription id.
	SubscribeTimeout time.Duration
	// Logger receives connection-level errors. Defaults to the standard logrus logger.
	Logger logrus.FieldLogger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

// signatureSub is one outstanding signatureSubscribe.
type signatureSub struct {
	signature  string
	commitment string
	ch         chan SignatureNotification

	// retired is set once the caller unsubscribed; reconnects skip it.
	retired atomic.Bool
}

// pendingSub is registered into subs by the read loop as soon as the
// subscription id arrives, before any later notification is dispatched.
type pendingSub struct {
	sub *signatureSub
	id  chan int64
}

// WSClientImpl implements WSClient using gorilla/websocket.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	log      logrus.FieldLogger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to the waiting subscriber
	subs   map[int64]*signatureSub
	subsMu sync.Mutex

	// pendingSubs maps request ID to a subscriber waiting for its subscription ID
	pendingSubs   map[uint64]*pendingSub
	pendingSubsMu sync.Mutex

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

var _ WSClient = (*WSClientImpl)(nil)

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		log:         log.WithField("component", "ws"),
		subs:        make(map[int64]*signatureSub),
		pendingSubs: make(map[uint64]*pendingSub),
		done:        make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// connect establishes WebSocket connection.
func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// SubscribeSignature subscribes to a signature and returns a one-shot channel
// together with a func that cancels the subscription.
func (c *WSClientImpl) SubscribeSignature(ctx context.Context, signature, commitment string) (<-chan SignatureNotification, func(), error) {
	if commitment == "" {
		commitment = CommitmentConfirmed
	}

	sub := &signatureSub{
		signature:  signature,
		commitment: commitment,
		ch:         make(chan SignatureNotification, 1),
	}

	if _, err := c.subscribe(ctx, sub); err != nil {
		return nil, nil, err
	}
	return sub.ch, func() { c.unsubscribe(sub) }, nil
}

// subscribe sends signatureSubscribe and waits for the subscription id.
func (c *WSClientImpl) subscribe(ctx context.Context, sub *signatureSub) (int64, error) {
	if c.closed.Load() {
		return 0, fmt.Errorf("client closed")
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			sub.signature,
			map[string]string{"commitment": sub.commitment},
		},
	}

	confirmCh := make(chan int64, 1)
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = &pendingSub{sub: sub, id: confirmCh}
	c.pendingSubsMu.Unlock()

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		c.dropPending(reqID)
		return 0, fmt.Errorf("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		c.dropPending(reqID)
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case subID, ok := <-confirmCh:
		if !ok {
			return 0, fmt.Errorf("client closed")
		}
		return subID, nil
	case <-time.After(c.config.SubscribeTimeout):
		c.dropPending(reqID)
		return 0, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return 0, fmt.Errorf("client closed")
	case <-ctx.Done():
		c.dropPending(reqID)
		select {
		case subID := <-confirmCh:
			c.forget(subID)
		default:
		}
		return 0, ctx.Err()
	}
}

func (c *WSClientImpl) forget(subID int64) {
	c.subsMu.Lock()
	delete(c.subs, subID)
	c.subsMu.Unlock()
}

// unsubscribe retires sub and asks the node to drop it. Nothing is sent when
// the notification already arrived or the client is closed.
func (c *WSClientImpl) unsubscribe(sub *signatureSub) {
	if sub.retired.Swap(true) {
		return
	}

	var (
		subID int64
		found bool
	)
	c.subsMu.Lock()
	for id, s := range c.subs {
		if s == sub {
			subID, found = id, true
			delete(c.subs, id)
			break
		}
	}
	c.subsMu.Unlock()

	if !found || c.closed.Load() {
		return
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "signatureUnsubscribe",
		Params:  []interface{}{subID},
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		c.log.WithError(err).WithField("signature", sub.signature).Debug("write unsubscribe")
	}
}

func (c *WSClientImpl) dropPending(reqID uint64) {
	c.pendingSubsMu.Lock()
	delete(c.pendingSubs, reqID)
	c.pendingSubsMu.Unlock()
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.pendingSubsMu.Lock()
	for id, p := range c.pendingSubs {
		close(p.id)
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay

		start := time.Now()
		c.handleMessage(message)
		observability.RecordWSMessage(time.Since(start).Seconds())
	}
}

// reconnect attempts to reconnect and resubscribe.
func (c *WSClientImpl) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.log.WithError(err).Warn("reconnect failed")
		return
	}

	c.resubscribeAll()
}

// resubscribeAll re-registers outstanding signatures after reconnect.
// Subscription ids are per connection, so every entry is re-keyed.
func (c *WSClientImpl) resubscribeAll() {
	c.subsMu.Lock()
	old := c.subs
	c.subs = make(map[int64]*signatureSub, len(old))
	c.subsMu.Unlock()

	for _, sub := range old {
		if sub.retired.Load() {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := c.subscribe(ctx, sub)
		cancel()

		if err != nil {
			c.log.WithError(err).WithField("signature", sub.signature).Warn("resubscribe failed")
			close(sub.ch)
		}
	}
}

// handleMessage processes incoming WebSocket message.
func (c *WSClientImpl) handleMessage(message []byte) {
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.ID > 0 && resp.Result != nil {
		c.handleSubscribeResponse(&resp)
		return
	}

	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "signatureNotification" {
		c.handleSignatureNotification(&notif)
		return
	}

	var errResp struct {
		ID    uint64 `json:"id"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		// The pending subscribe will time out.
		c.log.WithFields(logrus.Fields{
			"code": errResp.Error.Code,
			"id":   errResp.ID,
		}).Warn(errResp.Error.Message)
	}
}

// handleSubscribeResponse handles subscription confirmation.
func (c *WSClientImpl) handleSubscribeResponse(resp *wsSubscribeResponse) {
	c.pendingSubsMu.Lock()
	p, ok := c.pendingSubs[resp.ID]
	if ok {
		delete(c.pendingSubs, resp.ID)
	}
	c.pendingSubsMu.Unlock()

	if !ok {
		return
	}

	c.subsMu.Lock()
	c.subs[*resp.Result] = p.sub
	c.subsMu.Unlock()

	p.id <- *resp.Result
}

// handleSignatureNotification delivers the result and retires the subscription;
// the node unsubscribes signature subscriptions after the first notification.
func (c *WSClientImpl) handleSignatureNotification(notif *wsNotification) {
	if notif.Params == nil {
		return
	}

	c.subsMu.Lock()
	sub, ok := c.subs[notif.Params.Subscription]
	if ok {
		delete(c.subs, notif.Params.Subscription)
	}
	c.subsMu.Unlock()

	if !ok {
		return
	}

	out := SignatureNotification{
		Signature: sub.signature,
		Err:       notif.Params.Result.Value.Err,
	}
	if notif.Params.Result.Context != nil {
		out.Slot = notif.Params.Result.Context.Slot
	}

	sub.ch <- out
	close(sub.ch)
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A dead connection surfaces as a read error and triggers reconnect.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  *int64 `json:"result"` // subscription ID, may be 0
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext       `json:"context"`
	Value   wsSignatureValue `json:"value"`
}

type wsContext struct {
	Slot uint64 `json:"slot"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}
