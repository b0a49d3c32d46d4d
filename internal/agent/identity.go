// Package agent provides Ed25519 identities and signed-request auth for
// agents interacting with the pulse registry. An agent's ledger address is
// derived from its public key; agents can only act on their own behalf
// because the server resolves the acting address from the enrolled key that
// signed the request.
package agent

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressLength is the byte length of a derived agent address.
const AddressLength = 20

// GenerateKey creates a fresh Ed25519 key pair for an agent.
func GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}
	return pub, priv, nil
}

// AddressFromPublicKey derives the agent's ledger address: the last 20 bytes
// of SHA3-256 over the public key, 0x-prefixed lowercase hex.
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	sum := sha3.Sum256(pub)
	return "0x" + hex.EncodeToString(sum[len(sum)-AddressLength:])
}

// NormalizeAddress lowercases the hex portion of an address while keeping the
// 0x prefix, so the same agent always maps to the same record key.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		return "0x" + strings.ToLower(address[2:])
	}
	return strings.ToLower(address)
}
