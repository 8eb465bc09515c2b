// Package submit assembles instruction batches into one transaction, has the
// connected wallet sign and broadcast it, and waits for confirmation.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"solana-stake-desk/internal/observability"
	solrpc "solana-stake-desk/internal/solana"
)

// MaxTransactionSize is the largest serialized transaction a node accepts.
const MaxTransactionSize = 1232

const signatureLength = 64

// DefaultConfirmTimeout bounds the wait for confirmed commitment.
const DefaultConfirmTimeout = 90 * time.Second

// Submission errors.
var (
	// ErrSubmissionRejected is returned when the wallet declines to sign.
	ErrSubmissionRejected = errors.New("submission rejected")

	// ErrConfirmationTimeout is returned when the transaction is not confirmed in time.
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrConfirmationFailed is returned when the network rejects or fails the transaction.
	ErrConfirmationFailed = errors.New("confirmation failed")

	// ErrInvalidTransaction is returned when the batch cannot form a valid transaction.
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// Wallet is the connected identity: it signs as fee payer and broadcasts.
type Wallet interface {
	// PublicKey returns the identity; ok is false when no wallet is connected.
	PublicKey() (solana.PublicKey, bool)

	// SendTransaction signs tx together with extra and broadcasts it once.
	// A user refusal must be reported as ErrSubmissionRejected. When the
	// broadcast fails after signing, the signature is returned with the error.
	SendTransaction(ctx context.Context, tx *solana.Transaction, extra []solana.PrivateKey) (solana.Signature, error)
}

// BlockhashSource provides recent blockhashes.
type BlockhashSource interface {
	GetLatestBlockhash(ctx context.Context) (*solrpc.Blockhash, error)
}

// Confirmer waits until a signature reaches confirmed commitment.
type Confirmer interface {
	Confirm(ctx context.Context, sig solana.Signature) error
}

// Submitter turns an ordered instruction batch into exactly one confirmed transaction.
type Submitter struct {
	blockhashes BlockhashSource
	confirmer   Confirmer
	timeout     time.Duration
	log         logrus.FieldLogger
}

// Options configures Submitter.
type Options struct {
	Blockhashes    BlockhashSource
	Confirmer      Confirmer
	ConfirmTimeout time.Duration
	Logger         logrus.FieldLogger
}

// New creates a new Submitter.
func New(opts Options) *Submitter {
	timeout := opts.ConfirmTimeout
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Submitter{
		blockhashes: opts.Blockhashes,
		confirmer:   opts.Confirmer,
		timeout:     timeout,
		log:         log.WithField("component", "submit"),
	}
}

// Submit sends ixs as one transaction paid and signed by wallet plus signers.
// Nothing is retried: a failure after broadcast is reported, never resent.
func (s *Submitter) Submit(
	ctx context.Context,
	wallet Wallet,
	ixs []solana.Instruction,
	signers []solana.PrivateKey,
) (solana.Signature, error) {
	payer, ok := wallet.PublicKey()
	if !ok {
		return solana.Signature{}, fmt.Errorf("%w: no wallet connected", ErrSubmissionRejected)
	}
	if len(ixs) == 0 {
		return solana.Signature{}, fmt.Errorf("%w: empty instruction batch", ErrInvalidTransaction)
	}

	bh, err := s.blockhashes.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: latest blockhash: %v", ErrConfirmationFailed, err)
	}
	hash, err := solana.HashFromBase58(bh.Hash)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: blockhash %q: %v", ErrConfirmationFailed, bh.Hash, err)
	}

	tx, err := solana.NewTransaction(ixs, hash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	size, err := TransactionSize(tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if size > MaxTransactionSize {
		return solana.Signature{}, fmt.Errorf("%w: transaction too large (%d > %d bytes)",
			ErrInvalidTransaction, size, MaxTransactionSize)
	}

	log := s.log.WithFields(logrus.Fields{
		"payer":        payer.String(),
		"instructions": len(ixs),
		"size":         size,
	})

	sig, err := wallet.SendTransaction(ctx, tx, signers)
	if err != nil {
		if errors.Is(err, ErrSubmissionRejected) {
			return solana.Signature{}, err
		}
		if sig != (solana.Signature{}) {
			log.WithField("signature", sig.String()).WithError(err).Warn("send failed after signing")
		}
		return sig, fmt.Errorf("%w: send: %v", ErrConfirmationFailed, err)
	}
	log = log.WithField("signature", sig.String())
	log.Info("transaction sent")

	start := time.Now()
	confirmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.confirmer.Confirm(confirmCtx, sig)
	observability.RecordConfirmation(confirmationResult(err), time.Since(start).Seconds())
	if err != nil {
		log.WithError(err).Warn("transaction not confirmed")
		return sig, err
	}

	log.WithField("elapsed", time.Since(start).String()).Info("transaction confirmed")
	return sig, nil
}

// TransactionSize returns the wire size of tx once every required signature is present.
func TransactionSize(tx *solana.Transaction) (int, error) {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n := int(tx.Message.Header.NumRequiredSignatures)
	return compactU16Len(n) + n*signatureLength + len(msg), nil
}

func compactU16Len(n int) int {
	switch {
	case n < 0x80:
		return 1
	case n < 0x4000:
		return 2
	default:
		return 3
	}
}

func confirmationResult(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, ErrConfirmationTimeout):
		return "timeout"
	default:
		return "failed"
	}
}
