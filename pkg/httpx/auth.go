package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/explorer/pkg/jwtx"
	"github.com/aussiebroadwan/explorer/pkg/slogx"
)

const (
	MsgUnauthorized        = "Unauthorized"
	MsgInvalidToken        = "Invalid or expired token"
	MsgAdminAccessRequired = "Admin access required"
	MsgForbidden           = "Forbidden"
)

// bearerToken pulls the credential out of "Authorization: Bearer <token>".
// ok is false when the header is absent or uses another scheme.
func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, raw, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// RequireAuth rejects the request with 401 unless it carries a valid
// session token. On success the claims are attached to the request context.
func RequireAuth(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerToken(r)
			if !ok {
				writeBearerError(w, MsgUnauthorized)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				slogx.FromContext(ctx).Debug("session token rejected", "err", err)
				writeBearerError(w, MsgInvalidToken)
				return
			}

			ctx = ContextWithClaims(ctx, claims)
			ctx = slogx.WithUser(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches claims when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithClaims(r.Context(), claims)
			ctx = slogx.WithUser(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is a policy check. It must sit behind RequireAuth: it never
// looks at headers and answers 401 only if no identity was attached.
func RequireRole(role string) Middleware {
	msg := MsgForbidden
	if role == jwtx.RoleAdmin {
		msg = MsgAdminAccessRequired
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeBearerError(w, MsgUnauthorized)
				return
			}
			if !claims.HasRole(role) {
				WriteError(w, http.StatusForbidden, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeBearerError answers 401 with an RFC 6750 challenge and a JSON body.
func writeBearerError(w http.ResponseWriter, msg string) {
	if msg == MsgInvalidToken {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	} else {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteError(w, http.StatusUnauthorized, msg)
}
