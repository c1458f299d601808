// Package casper holds the pieces of the Casper network the wallet adapter
// needs: public key parsing, account hash derivation, a JSON-RPC balance
// client, wallet providers and the simulated badge minter.
package casper

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	AlgorithmEd25519   = "ed25519"
	AlgorithmSecp256k1 = "secp256k1"

	tagEd25519   = 0x01
	tagSecp256k1 = 0x02

	accountHashPrefix = "account-hash-"
)

// ErrInvalidPublicKey is returned for keys that are not tagged Casper hex keys.
var ErrInvalidPublicKey = errors.New("invalid public key")

// PublicKey is a parsed Casper public key.
type PublicKey struct {
	Algorithm string
	Raw       []byte
}

// ParsePublicKey parses a hex key: tag 01 + 32 bytes (ed25519) or tag 02 + 33 bytes (secp256k1).
func ParsePublicKey(s string) (PublicKey, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(b) == 0 {
		return PublicKey{}, fmt.Errorf("%w: empty", ErrInvalidPublicKey)
	}
	switch b[0] {
	case tagEd25519:
		if len(b) != 33 {
			return PublicKey{}, fmt.Errorf("%w: ed25519 key must be 32 bytes", ErrInvalidPublicKey)
		}
		return PublicKey{Algorithm: AlgorithmEd25519, Raw: b[1:]}, nil
	case tagSecp256k1:
		if len(b) != 34 {
			return PublicKey{}, fmt.Errorf("%w: secp256k1 key must be 33 bytes", ErrInvalidPublicKey)
		}
		return PublicKey{Algorithm: AlgorithmSecp256k1, Raw: b[1:]}, nil
	default:
		return PublicKey{}, fmt.Errorf("%w: unknown tag %#x", ErrInvalidPublicKey, b[0])
	}
}

// Hex returns the tagged hex form of the key.
func (k PublicKey) Hex() string {
	tag := byte(tagEd25519)
	if k.Algorithm == AlgorithmSecp256k1 {
		tag = tagSecp256k1
	}
	return hex.EncodeToString(append([]byte{tag}, k.Raw...))
}

// AccountHash is blake2b-256(algorithm name || 0x00 || raw key).
func (k PublicKey) AccountHash() string {
	buf := make([]byte, 0, len(k.Algorithm)+1+len(k.Raw))
	buf = append(buf, k.Algorithm...)
	buf = append(buf, 0x00)
	buf = append(buf, k.Raw...)
	sum := blake2b.Sum256(buf)
	return accountHashPrefix + hex.EncodeToString(sum[:])
}

// AccountHash derives the account hash string from a hex public key.
func AccountHash(publicKeyHex string) (string, error) {
	k, err := ParsePublicKey(publicKeyHex)
	if err != nil {
		return "", err
	}
	return k.AccountHash(), nil
}
