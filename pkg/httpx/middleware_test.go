package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/explorer/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := httpx.CORS([]string{"https://explorer.example"})(ok)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/apps", nil)
		req.Header.Set("Origin", "https://explorer.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "https://explorer.example", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/apps", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/apps", nil)
		req.Header.Set("Origin", "https://anything.example")
		rec := httptest.NewRecorder()
		httpx.CORS([]string{"*"})(ok).ServeHTTP(rec, req)

		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRecover(t *testing.T) {
	h := httpx.Recover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		ct      string
		payload string
		wantErr bool
	}{
		{"valid", "application/json", `{"email":"a@x.com"}`, false},
		{"charset suffix", "application/json; charset=utf-8", `{"email":"a@x.com"}`, false},
		{"no content type", "", `{"email":"a@x.com"}`, false},
		{"unknown fields ignored", "application/json", `{"email":"a@x.com","x":1}`, false},
		{"form content type", "application/x-www-form-urlencoded", `email=a`, true},
		{"malformed", "application/json", `{"email":`, true},
		{"trailing object", "application/json", `{"email":"a"}{"email":"b"}`, true},
		{"empty", "application/json", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			if tt.ct != "" {
				req.Header.Set("Content-Type", tt.ct)
			}
			var dst body
			err := httpx.DecodeJSON(req, &dst)
			if tt.wantErr {
				require.ErrorIs(t, err, httpx.ErrBadJSON)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "a@x.com", dst.Email)
		})
	}
}
