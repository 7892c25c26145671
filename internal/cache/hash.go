package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns the sha256 fingerprint of comment text as 64 hex chars.
// The hash covers the exact bytes of content with no whitespace or case
// normalization: two comments differing by a single character are distinct
// cache subjects. That trades some hit rate for a trivially correct key.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
