package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashIdentityKey returns a stable hex digest of an identity key.
func HashIdentityKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first n hex characters of HashIdentityKey(s).
func ShortHash(s string, n int) string {
	full := HashIdentityKey(s)
	if n <= 0 || n > len(full) {
		return full
	}
	return full[:n]
}
