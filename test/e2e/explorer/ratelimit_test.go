package explorer_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/explorer/pkg/explorersdk"
	"github.com/stretchr/testify/require"
)

// TestLoginRateLimit runs the container with the production strict limit of
// five attempts per minute.
func TestLoginRateLimit(t *testing.T) {
	baseURL := setupExplorerContainer(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "5",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "5",
	})
	client := explorersdk.NewClient(baseURL)

	for i := range 5 {
		_, err := client.Login(t.Context(), "nobody@example.com", "wrong-password")
		require.True(t, explorersdk.IsStatus(err, http.StatusUnauthorized), "attempt %d: %v", i+1, err)
	}

	_, err := client.Login(t.Context(), "nobody@example.com", "wrong-password")
	require.True(t, explorersdk.IsStatus(err, http.StatusTooManyRequests), "got %v", err)

	// The bucket is keyed on the submitted email as well as the address.
	_, err = client.Login(t.Context(), "other@example.com", "wrong-password")
	require.True(t, explorersdk.IsStatus(err, http.StatusUnauthorized), "got %v", err)
}
