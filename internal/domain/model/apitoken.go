package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TokenDigestLength is the length of a hex-encoded SHA-256 token digest.
const TokenDigestLength = sha256.Size * 2

// APIToken is a registered API credential. Only the digest of the raw token
// is ever stored; HashedToken holds that digest.
type APIToken struct {
	ID          int64
	Name        string
	HashedToken string
	Comments    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TokenDigest returns the lowercase hex SHA-256 digest of a raw token.
func TokenDigest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// IsTokenDigest reports whether s looks like a value produced by TokenDigest.
func IsTokenDigest(s string) bool {
	if len(s) != TokenDigestLength {
		return false
	}
	for _, ch := range s {
		if !(ch >= '0' && ch <= '9') && !(ch >= 'a' && ch <= 'f') {
			return false
		}
	}
	return true
}
