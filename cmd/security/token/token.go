package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SessionTokenBytes is the entropy of a session token. 32 bytes gives
// 256 bits, encoded as 64 hex characters.
const SessionTokenBytes = 32

// NewSessionToken returns a fresh opaque session token: SessionTokenBytes of
// crypto/rand entropy, hex encoded. Only the bearer ever holds the token;
// it must never be logged or stored raw.
func NewSessionToken() (string, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashSHA256Hex returns a SHA-256 hex digest of s. Session tokens are keyed
// by this digest at rest.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// EqualConstantTime compares two strings without leaking the position of the
// first mismatch. Used for shared-secret checks on the site gate.
func EqualConstantTime(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
