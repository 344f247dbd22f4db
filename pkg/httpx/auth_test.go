package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/explorer/pkg/httpx"
	"github.com/aussiebroadwan/explorer/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T) *jwtx.HS256Codec {
	t.Helper()
	codec, err := jwtx.NewHS256([]byte("guard-test-secret"), time.Hour)
	require.NoError(t, err)
	return codec
}

func tokenFor(t *testing.T, codec *jwtx.HS256Codec, role string) string {
	t.Helper()
	tok, err := codec.Sign(jwtx.NewSessionClaims("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", "a@x.com", role, "Alice"))
	require.NoError(t, err)
	return tok
}

// echoSubject reports whether the handler ran and with which identity.
func echoSubject(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteMessage(w, http.StatusOK, "anonymous")
		return
	}
	httpx.WriteMessage(w, http.StatusOK, claims.Subject+":"+claims.Role)
}

func serve(h http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	codec := newCodec(t)
	h := httpx.Chain(http.HandlerFunc(echoSubject), httpx.RequireAuth(codec))

	expired, err := jwtx.NewHS256([]byte("guard-test-secret"), time.Hour,
		jwtx.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }))
	require.NoError(t, err)

	other, err := jwtx.NewHS256([]byte("someone-else"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		authz  string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, `{"error":"Invalid or expired token"}`},
		{"expired token", "Bearer " + tokenFor(t, expired, jwtx.RoleUser), http.StatusUnauthorized, `{"error":"Invalid or expired token"}`},
		{"foreign secret", "Bearer " + tokenFor(t, other, jwtx.RoleUser), http.StatusUnauthorized, `{"error":"Invalid or expired token"}`},
		{"valid", "Bearer " + tokenFor(t, codec, jwtx.RoleUser), http.StatusOK, `{"message":"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV:user"}`},
		{"lowercase scheme", "bearer " + tokenFor(t, codec, jwtx.RoleUser), http.StatusOK, `{"message":"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV:user"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.authz)
			require.Equal(t, tt.status, rec.Code)
			require.JSONEq(t, tt.body, rec.Body.String())
			if tt.status == http.StatusUnauthorized {
				require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	codec := newCodec(t)
	h := httpx.Chain(http.HandlerFunc(echoSubject), httpx.OptionalAuth(codec))

	t.Run("anonymous without header", func(t *testing.T) {
		rec := serve(h, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"message":"anonymous"}`, rec.Body.String())
	})

	t.Run("anonymous with invalid token", func(t *testing.T) {
		rec := serve(h, "Bearer not-a-token")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"message":"anonymous"}`, rec.Body.String())
	})

	t.Run("identity with valid token", func(t *testing.T) {
		rec := serve(h, "Bearer "+tokenFor(t, codec, jwtx.RoleAdmin))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"message":"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV:admin"}`, rec.Body.String())
	})
}

func TestRequireRole(t *testing.T) {
	codec := newCodec(t)
	h := httpx.Chain(http.HandlerFunc(echoSubject),
		httpx.RequireAuth(codec),
		httpx.RequireRole(jwtx.RoleAdmin),
	)

	t.Run("unauthenticated is 401 not 403", func(t *testing.T) {
		rec := serve(h, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role is 403", func(t *testing.T) {
		rec := serve(h, "Bearer "+tokenFor(t, codec, jwtx.RoleUser))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.JSONEq(t, `{"error":"Admin access required"}`, rec.Body.String())
	})

	t.Run("admin passes", func(t *testing.T) {
		rec := serve(h, "Bearer "+tokenFor(t, codec, jwtx.RoleAdmin))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("without RequireAuth in front answers 401", func(t *testing.T) {
		bare := httpx.RequireRole(jwtx.RoleAdmin)(http.HandlerFunc(echoSubject))
		rec := serve(bare, "Bearer "+tokenFor(t, codec, jwtx.RoleAdmin))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
