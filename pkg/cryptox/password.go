package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Configuration for PBKDF2-HMAC-SHA256 hashing.
const (
	iterations = 100_000 // Iteration count
	keyLength  = 32      // Length of the derived key in bytes
	saltLength = 16      // Length of the salt in bytes
)

// GenerateSalt returns a fresh 16-byte random salt, hex encoded.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

// MustGenerateSalt is like GenerateSalt but panics on error.
func MustGenerateSalt() string {
	salt, err := GenerateSalt()
	if err != nil {
		panic(fmt.Sprintf("cryptox: %v", err))
	}
	return salt
}

// HashPassword derives the hex-encoded PBKDF2 digest of password under the
// hex-encoded salt. The result is deterministic for identical inputs.
//
// A salt that is not valid hex is a programming error and panics.
func HashPassword(password, salt string) string {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		panic(fmt.Sprintf("cryptox: malformed salt: %v", err))
	}

	key := pbkdf2.Key([]byte(password), rawSalt, iterations, keyLength, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPassword recomputes the digest for password and salt and compares it
// against digest in constant time.
func VerifyPassword(password, digest, salt string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
