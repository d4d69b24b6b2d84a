package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey maps a user ID (which may be a "guest:" prefixed value with
// arbitrary characters) to a fixed-width hex key safe for storage paths.
func HashUserKey(userID string) string {
	digest := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(digest[:])
}
