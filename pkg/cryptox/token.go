package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TokenSize256 provides 256 bits of entropy (64 hex chars).
const TokenSize256 = 32

// GenerateToken creates an opaque single-use token: 256 bits from the system
// CSPRNG, lowercase hex encoded. The token carries no structure; expiry and
// consumption state live with the record that owns it.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenSize256)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// IsWellFormedToken reports whether s looks like a token from GenerateToken.
// Handlers use it to reject junk before touching the database.
func IsWellFormedToken(s string) bool {
	if len(s) != TokenSize256*2 {
		return false
	}
	for i := range len(s) {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// hex encoded. Logs use it so raw tokens never reach log output.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
