package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	solrpc "solana-stake-desk/internal/solana"
)

// DefaultPollInterval is the status polling period of PollingConfirmer.
const DefaultPollInterval = 500 * time.Millisecond

// StatusReader reads signature statuses.
type StatusReader interface {
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*solrpc.SignatureStatus, error)
}

// PollingConfirmer polls getSignatureStatuses until confirmed commitment.
type PollingConfirmer struct {
	rpc      StatusReader
	interval time.Duration
	log      logrus.FieldLogger
}

var _ Confirmer = (*PollingConfirmer)(nil)

// NewPollingConfirmer creates a confirmer polling every interval.
func NewPollingConfirmer(rpc StatusReader, interval time.Duration, log logrus.FieldLogger) *PollingConfirmer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PollingConfirmer{rpc: rpc, interval: interval, log: log}
}

// Confirm blocks until sig is confirmed, fails on chain, or ctx ends.
// Status read errors are treated as transient.
func (c *PollingConfirmer) Confirm(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		statuses, err := c.rpc.GetSignatureStatuses(ctx, []string{sig.String()})
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %s: %v", ErrConfirmationTimeout, sig, ctx.Err())
			}
			c.log.WithError(err).WithField("signature", sig.String()).Debug("status poll failed")
		} else if len(statuses) > 0 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return fmt.Errorf("%w: %s: %v", ErrConfirmationFailed, sig, st.Err)
			}
			if st.Reached(solrpc.CommitmentConfirmed) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", ErrConfirmationTimeout, sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// SubscriptionConfirmer waits on signatureSubscribe and falls back to polling
// when the subscription cannot be established or is lost.
type SubscriptionConfirmer struct {
	ws       solrpc.WSClient
	fallback Confirmer
}

var _ Confirmer = (*SubscriptionConfirmer)(nil)

// NewSubscriptionConfirmer creates a websocket confirmer with a fallback.
func NewSubscriptionConfirmer(ws solrpc.WSClient, fallback Confirmer) *SubscriptionConfirmer {
	return &SubscriptionConfirmer{ws: ws, fallback: fallback}
}

// Confirm blocks until sig is confirmed, fails on chain, or ctx ends.
func (c *SubscriptionConfirmer) Confirm(ctx context.Context, sig solana.Signature) error {
	ch, unsubscribe, err := c.ws.SubscribeSignature(ctx, sig.String(), solrpc.CommitmentConfirmed)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %v", ErrConfirmationTimeout, sig, ctx.Err())
		}
		return c.fallback.Confirm(ctx, sig)
	}
	defer unsubscribe()

	select {
	case n, ok := <-ch:
		if !ok {
			return c.fallback.Confirm(ctx, sig)
		}
		if n.Err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConfirmationFailed, sig, n.Err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrConfirmationTimeout, sig, ctx.Err())
	}
}
