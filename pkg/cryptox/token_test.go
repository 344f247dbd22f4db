package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)
	require.Len(t, token, 64)
	require.True(t, IsWellFormedToken(token))

	token2, err := GenerateToken()
	require.NoError(t, err)
	require.NotEqual(t, token, token2, "tokens should be unique")
}

func TestIsWellFormedToken(t *testing.T) {
	generated, err := GenerateToken()
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"generated", generated, true},
		{"empty", "", false},
		{"too short", "abcdef", false},
		{"uppercase hex", "ABCDEF0123456789abcdef0123456789abcdef0123456789abcdef0123456789", false},
		{"non hex", "zzzzzz0123456789abcdef0123456789abcdef0123456789abcdef0123456789", false},
		{"too long", generated + "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsWellFormedToken(tt.token))
		})
	}
}

func TestFingerprintToken(t *testing.T) {
	fp1a := FingerprintToken("test-token-1")
	fp1b := FingerprintToken("test-token-1")
	fp2 := FingerprintToken("test-token-2")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2, "different tokens should have different fingerprints")
	require.Len(t, fp1a, 16)
}

func TestGenerateToken_EntropyQuality(t *testing.T) {
	const count = 100
	tokens := make(map[string]bool, count)

	for range count {
		token, err := GenerateToken()
		require.NoError(t, err)
		require.NotContains(t, tokens, token, "duplicate token generated")
		tokens[token] = true
	}
}
