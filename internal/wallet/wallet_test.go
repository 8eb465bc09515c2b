package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-stake-desk/internal/solana/stub"
	"solana-stake-desk/internal/submit"
)

func testTx(t *testing.T, payer solana.PublicKey) *solana.Transaction {
	t.Helper()
	ix := solana.NewInstruction(
		solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"),
		solana.AccountMetaSlice{solana.NewAccountMeta(payer, false, true)},
		[]byte("hello"),
	)
	tx, err := solana.NewTransaction([]solana.Instruction{ix},
		solana.MustHashFromBase58(stub.DefaultBlockhash), solana.TransactionPayer(payer))
	require.NoError(t, err)
	return tx
}

func writeKeypair(t *testing.T, key solana.PrivateKey) string {
	t.Helper()
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	w, err := Load(writeKeypair(t, key), stub.NewRPCClient(), nil, nil)
	require.NoError(t, err)

	pk, ok := w.PublicKey()
	require.True(t, ok)
	assert.Equal(t, key.PublicKey(), pk)
}

func TestLoad_EmptyPathIsDisconnected(t *testing.T) {
	w, err := Load("", nil, nil, nil)
	require.NoError(t, err)
	_, ok := w.PublicKey()
	assert.False(t, ok)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil, nil, nil)
	assert.Error(t, err)
}

func TestSendTransaction(t *testing.T) {
	rpc := stub.NewRPCClient()
	key := solana.NewWallet().PrivateKey
	w := New(key, rpc, nil, nil)

	sig, err := w.SendTransaction(context.Background(), testTx(t, key.PublicKey()), nil)
	require.NoError(t, err)
	require.Len(t, rpc.Sent, 1)
	assert.Equal(t, stub.FirstSignature(rpc.Sent[0]), sig.String())
}

func TestSendTransaction_BroadcastErrorKeepsSignature(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.SendErr = errors.New("http: request timed out")
	key := solana.NewWallet().PrivateKey
	w := New(key, rpc, nil, nil)

	tx := testTx(t, key.PublicKey())
	sig, err := w.SendTransaction(context.Background(), tx, nil)
	require.Error(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)
	assert.Equal(t, tx.Signatures[0], sig)
	assert.Equal(t, 1, rpc.Calls("sendTransaction"))
}

func TestSendTransaction_Declined(t *testing.T) {
	rpc := stub.NewRPCClient()
	key := solana.NewWallet().PrivateKey
	decline := func(context.Context, *solana.Transaction) (bool, error) { return false, nil }
	w := New(key, rpc, decline, nil)

	_, err := w.SendTransaction(context.Background(), testTx(t, key.PublicKey()), nil)
	assert.ErrorIs(t, err, submit.ErrSubmissionRejected)
	assert.Zero(t, rpc.Calls("sendTransaction"))
}

func TestSendTransaction_Disconnected(t *testing.T) {
	_, err := Disconnected().SendTransaction(context.Background(), testTx(t, solana.NewWallet().PublicKey()), nil)
	assert.ErrorIs(t, err, submit.ErrSubmissionRejected)
}

func TestPromptApprover(t *testing.T) {
	payer := solana.NewWallet().PublicKey()

	for input, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	} {
		var out bytes.Buffer
		ok, err := PromptApprover(strings.NewReader(input), &out)(context.Background(), testTx(t, payer))
		require.NoError(t, err)
		assert.Equal(t, want, ok, "input %q", input)
		assert.Contains(t, out.String(), "1 instruction(s)")
		assert.Contains(t, out.String(), "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	}
}
