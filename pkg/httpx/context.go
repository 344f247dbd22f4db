package httpx

import (
	"context"

	"github.com/aussiebroadwan/explorer/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// ContextWithClaims attaches verified session claims to ctx.
func ContextWithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// ClaimsFromContext returns the claims attached by RequireAuth or
// OptionalAuth. ok is false for anonymous requests.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// UserIDFromContext returns the authenticated subject or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(CtxKeyUserID).(string)
	return id
}
