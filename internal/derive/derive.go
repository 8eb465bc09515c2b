// Package derive computes deterministic auxiliary account addresses.
package derive

import (
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ErrInvalidIdentifier is returned for malformed or unusable address input.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Canonical program IDs the associated token account derivation is bound to.
var (
	TokenProgramID           = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// ParseAddress decodes a base58 account address.
func ParseAddress(s string) (solana.PublicKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: empty address", ErrInvalidIdentifier)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidIdentifier, s, err)
	}
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidIdentifier, s, len(raw))
	}
	return solana.PublicKeyFromBytes(raw), nil
}

// ParseOptionalAddress is ParseAddress for inputs where empty means absent.
func ParseOptionalAddress(s string) (*solana.PublicKey, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	pk, err := ParseAddress(s)
	if err != nil {
		return nil, err
	}
	return &pk, nil
}

// IsOnCurve reports whether the key is a valid ed25519 point, i.e. could own a keypair.
func IsOnCurve(pk solana.PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

// ShareAccount returns the associated token account holding owner's shares of shareMint.
// Owners off the ed25519 curve are rejected (allowOwnerOffCurve = false).
func ShareAccount(shareMint, owner solana.PublicKey) (solana.PublicKey, error) {
	return associatedTokenAddress(shareMint, owner, false, TokenProgramID, AssociatedTokenProgramID)
}

// ShareAccountFromStrings parses both identifiers and derives the share account.
func ShareAccountFromStrings(shareMint, owner string) (solana.PublicKey, error) {
	mint, err := ParseAddress(shareMint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	user, err := ParseAddress(owner)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return ShareAccount(mint, user)
}

func associatedTokenAddress(
	mint, owner solana.PublicKey,
	allowOwnerOffCurve bool,
	tokenProgram, associatedProgram solana.PublicKey,
) (solana.PublicKey, error) {
	if mint.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("%w: zero mint", ErrInvalidIdentifier)
	}
	if !allowOwnerOffCurve && !IsOnCurve(owner) {
		return solana.PublicKey{}, fmt.Errorf("%w: owner %s is off curve", ErrInvalidIdentifier, owner)
	}

	addr, _, err := solana.FindProgramAddress(
		[][]byte{
			owner[:],
			tokenProgram[:],
			mint[:],
		},
		associatedProgram,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: find program address: %v", ErrInvalidIdentifier, err)
	}
	return addr, nil
}
