package id

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID32 returns a fresh account id: exactly 32 lowercase hex characters,
// no separators or prefixes, matching the wire format of Ax-Account-Id.
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
