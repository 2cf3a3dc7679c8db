// Package checksum derives stable content-addressed names.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Key returns the digest of a cache key such as a request URL.
func Key(key string) string {
	return Sum([]byte(key))
}
