package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// NewResetToken generates a one-time password-reset token. The plaintext is
// emailed to the user exactly once; only the hash and expiry are stored.
func NewResetToken(ttl time.Duration) (plaintext, hashed string, expiry time.Time, err error) {
	buf := make([]byte, 20)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}
	plaintext = hex.EncodeToString(buf)
	hashed = HashResetToken(plaintext)
	expiry = time.Now().Add(ttl)
	return plaintext, hashed, expiry, nil
}

// HashResetToken hashes a plaintext reset token for storage and lookup.
func HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
