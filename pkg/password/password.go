// Package password provides one-way password hashing and verification on top
// of bcrypt, plus generation of random secrets used to seed accounts created
// through OAuth providers with an unusable password.
package password

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the work factor used by the rest of the platform.
// bcrypt cost is intentionally fixed rather than configurable per call so that
// all stored hashes stay comparable.
const DefaultCost = 8

var (
	ErrHashingFailed = errors.New("password: hashing failed")
	ErrMalformedHash = errors.New("password: malformed hash")
)

// Hasher hashes and verifies plaintext passwords with a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// New returns a Hasher with the given bcrypt cost. Costs outside the range
// supported by bcrypt fall back to DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash applies adaptive one-way hashing to the plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashingFailed, err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash. A mismatch is not
// an error; only a malformed stored hash produces one.
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// RandomSecret returns a hex string of length cryptographically secure random
// bytes. Used as an unusable password for OAuth-created accounts.
func RandomSecret(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("password: failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
