// Package wallet provides the connected identity backed by a local keypair file.
package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"solana-stake-desk/internal/submit"
)

// Sender broadcasts serialized transactions.
type Sender interface {
	SendTransaction(ctx context.Context, raw []byte) (string, error)
}

// Approver asks the key holder whether tx may be signed.
type Approver func(ctx context.Context, tx *solana.Transaction) (bool, error)

// AutoApprove approves every transaction.
func AutoApprove(context.Context, *solana.Transaction) (bool, error) {
	return true, nil
}

// KeypairWallet signs with a local ed25519 key. The zero key means disconnected.
type KeypairWallet struct {
	key     solana.PrivateKey
	sender  Sender
	approve Approver
	log     logrus.FieldLogger
}

var _ submit.Wallet = (*KeypairWallet)(nil)

// New creates a wallet for key. A nil approver approves everything.
func New(key solana.PrivateKey, sender Sender, approve Approver, log logrus.FieldLogger) *KeypairWallet {
	if approve == nil {
		approve = AutoApprove
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &KeypairWallet{key: key, sender: sender, approve: approve, log: log.WithField("component", "wallet")}
}

// Disconnected returns a wallet with no identity.
func Disconnected() *KeypairWallet {
	return New(nil, nil, nil, nil)
}

// Load reads a Solana CLI JSON keypair file. An empty path yields a disconnected wallet.
func Load(path string, sender Sender, approve Approver, log logrus.FieldLogger) (*KeypairWallet, error) {
	if path == "" {
		return Disconnected(), nil
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", path, err)
	}
	return New(key, sender, approve, log), nil
}

// PublicKey returns the wallet identity.
func (w *KeypairWallet) PublicKey() (solana.PublicKey, bool) {
	if len(w.key) == 0 {
		return solana.PublicKey{}, false
	}
	return w.key.PublicKey(), true
}

// SendTransaction asks for approval, signs with the wallet key and extra, and
// broadcasts once. A failed broadcast still returns the signed signature.
func (w *KeypairWallet) SendTransaction(ctx context.Context, tx *solana.Transaction, extra []solana.PrivateKey) (solana.Signature, error) {
	if len(w.key) == 0 {
		return solana.Signature{}, fmt.Errorf("%w: no wallet connected", submit.ErrSubmissionRejected)
	}

	ok, err := w.approve(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: approval: %v", submit.ErrSubmissionRejected, err)
	}
	if !ok {
		return solana.Signature{}, fmt.Errorf("%w: declined by user", submit.ErrSubmissionRejected)
	}

	keys := append([]solana.PrivateKey{w.key}, extra...)
	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(pk) {
				return &keys[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("serialize transaction: %w", err)
	}

	sig := tx.Signatures[0]
	returned, err := w.sender.SendTransaction(ctx, raw)
	if err != nil {
		// The node may still have accepted it; keep the signature for lookup.
		return sig, err
	}
	if returned != sig.String() {
		w.log.WithFields(logrus.Fields{
			"expected": sig.String(),
			"returned": returned,
		}).Warn("node returned unexpected signature")
	}
	return sig, nil
}

// PromptApprover prints a transaction summary to out and reads y/N from in.
func PromptApprover(in io.Reader, out io.Writer) Approver {
	reader := bufio.NewReader(in)
	return func(_ context.Context, tx *solana.Transaction) (bool, error) {
		fmt.Fprintf(out, "Transaction with %d instruction(s), fee payer %s\n",
			len(tx.Message.Instructions), tx.Message.AccountKeys[0])
		for i, ix := range tx.Message.Instructions {
			if int(ix.ProgramIDIndex) >= len(tx.Message.AccountKeys) {
				return false, fmt.Errorf("instruction %d: program index %d out of range", i, ix.ProgramIDIndex)
			}
			program := tx.Message.AccountKeys[ix.ProgramIDIndex]
			fmt.Fprintf(out, "  %d. %s (%d accounts)\n", i+1, program, len(ix.Accounts))
		}
		fmt.Fprint(out, "Sign and send? [y/N]: ")

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}
