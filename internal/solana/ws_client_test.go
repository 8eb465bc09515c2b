package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// drain keeps a server-side connection open until the client goes away.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func idleServer(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		drain(conn)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// signatureServer confirms each signatureSubscribe with subID and then pushes
// a notification carrying notifyErr. Subscription id 0 is valid on real nodes.
func signatureServer(t *testing.T, subID int64, notifyErr interface{}) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "signatureSubscribe" {
			t.Errorf("expected signatureSubscribe, got %s", req.Method)
		}
		if len(req.Params) != 2 {
			t.Errorf("expected 2 params, got %d", len(req.Params))
		}

		id := subID
		if err := c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: &id}); err != nil {
			t.Errorf("write response: %v", err)
			return
		}

		time.Sleep(20 * time.Millisecond)
		notif := wsNotification{
			JSONRPC: "2.0",
			Method:  "signatureNotification",
			Params: &wsNotificationParams{
				Subscription: subID,
				Result: wsNotificationResult{
					Context: &wsContext{Slot: 5207624},
					Value:   wsSignatureValue{Err: notifyErr},
				},
			},
		}
		if err := c.WriteJSON(notif); err != nil {
			t.Errorf("write notification: %v", err)
			return
		}

		drain(c)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSClient_Connect(t *testing.T) {
	client, err := NewWSClient(context.Background(), idleServer(t), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("client should not be closed")
	}
}

func TestWSClient_SubscribeSignature(t *testing.T) {
	for _, subID := range []int64{0, 12345} {
		url := signatureServer(t, subID, nil)

		ctx := context.Background()
		client, err := NewWSClient(ctx, url, nil)
		if err != nil {
			t.Fatalf("NewWSClient: %v", err)
		}

		ch, unsubscribe, err := client.SubscribeSignature(ctx, "testsig", CommitmentConfirmed)
		if err != nil {
			t.Fatalf("SubscribeSignature: %v", err)
		}

		select {
		case notif, ok := <-ch:
			if !ok {
				t.Fatal("channel closed without notification")
			}
			if notif.Signature != "testsig" {
				t.Errorf("expected testsig, got %s", notif.Signature)
			}
			if notif.Slot != 5207624 {
				t.Errorf("expected slot 5207624, got %d", notif.Slot)
			}
			if notif.Err != nil {
				t.Errorf("expected no error, got %v", notif.Err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for notification")
		}

		// One-shot: the channel is closed after delivery.
		if _, ok := <-ch; ok {
			t.Error("expected channel to be closed after the notification")
		}
		unsubscribe()
		client.Close()
	}
}

func TestWSClient_SubscribeSignature_OnChainError(t *testing.T) {
	url := signatureServer(t, 7, map[string]interface{}{
		"InstructionError": []interface{}{1, map[string]interface{}{"Custom": 16}},
	})

	ctx := context.Background()
	client, err := NewWSClient(ctx, url, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, _, err := client.SubscribeSignature(ctx, "failedsig", "")
	if err != nil {
		t.Fatalf("SubscribeSignature: %v", err)
	}

	select {
	case notif := <-ch:
		if notif.Err == nil {
			t.Error("expected on-chain error in notification")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

// silentServer confirms each signatureSubscribe but never notifies, and
// reports every other request method it receives on methods.
func silentServer(t *testing.T, subID int64, methods chan<- wsRequest) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				t.Errorf("unmarshal request: %v", err)
				return
			}
			if req.Method != "signatureSubscribe" {
				methods <- req
				continue
			}
			id := subID
			if err := c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: &id}); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSClient_Unsubscribe(t *testing.T) {
	methods := make(chan wsRequest, 4)
	client, err := NewWSClient(context.Background(), silentServer(t, 42, methods), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	_, unsubscribe, err := client.SubscribeSignature(context.Background(), "stuck", CommitmentConfirmed)
	if err != nil {
		t.Fatalf("SubscribeSignature: %v", err)
	}

	unsubscribe()
	unsubscribe()

	client.subsMu.Lock()
	left := len(client.subs)
	client.subsMu.Unlock()
	if left != 0 {
		t.Errorf("expected no outstanding subscriptions, got %d", left)
	}

	select {
	case req := <-methods:
		if req.Method != "signatureUnsubscribe" {
			t.Fatalf("expected signatureUnsubscribe, got %s", req.Method)
		}
		if len(req.Params) != 1 || req.Params[0] != float64(42) {
			t.Errorf("expected params [42], got %v", req.Params)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for signatureUnsubscribe")
	}

	select {
	case req := <-methods:
		t.Errorf("unexpected second request %s", req.Method)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWSClient_SubscribeTimeout(t *testing.T) {
	config := DefaultWSConfig()
	config.SubscribeTimeout = 50 * time.Millisecond

	client, err := NewWSClient(context.Background(), idleServer(t), &config)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if _, _, err := client.SubscribeSignature(context.Background(), "sig", CommitmentConfirmed); err == nil {
		t.Fatal("expected subscription timeout")
	}
}

func TestWSClient_Close(t *testing.T) {
	client, err := NewWSClient(context.Background(), idleServer(t), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !client.closed.Load() {
		t.Error("client should be closed")
	}

	// Double close should be safe
	if err := client.Close(); err != nil {
		t.Errorf("double Close: %v", err)
	}
}

func TestWSClient_SubscribeAfterClose(t *testing.T) {
	ctx := context.Background()
	client, err := NewWSClient(ctx, idleServer(t), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	client.Close()

	if _, _, err := client.SubscribeSignature(ctx, "sig", CommitmentConfirmed); err == nil {
		t.Error("expected error subscribing after close")
	}
}

func TestWSClient_CustomConfig(t *testing.T) {
	config := &WSClientConfig{
		ReconnectDelay:    100 * time.Millisecond,
		MaxReconnectDelay: 1 * time.Second,
		PingInterval:      5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      5 * time.Second,
	}

	client, err := NewWSClient(context.Background(), idleServer(t), config)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if client.config.PingInterval != 5*time.Second {
		t.Errorf("expected PingInterval 5s, got %v", client.config.PingInterval)
	}
	if client.config.SubscribeTimeout != 30*time.Second {
		t.Errorf("expected default SubscribeTimeout 30s, got %v", client.config.SubscribeTimeout)
	}
}
