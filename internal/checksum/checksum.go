// Package checksum fingerprints entry files so unchanged content can be
// recognized without re-parsing.
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

// Changed reports whether data differs from the digest recorded under key
// in snap, and records the new digest when it does. A key never seen
// before always counts as changed.
func Changed(snap map[string]string, key string, data []byte) bool {
	sum := Sum(data)
	if snap[key] == sum {
		return false
	}
	snap[key] = sum
	return true
}
