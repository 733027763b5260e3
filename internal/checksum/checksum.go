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

// ID derives a stable node identifier from a tree path: the first 16 hex
// characters of the path's SHA-256 digest.
func ID(path string) string {
	return Sum([]byte(path))[:16]
}
