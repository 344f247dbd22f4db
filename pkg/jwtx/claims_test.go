package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/explorer/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(1 * time.Minute)),
			},
		}
		require.NoError(t, claims.ValidateExpiry(now))
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(now), jwtx.ErrInvalidToken)
	})

	t.Run("valid through the exp second", func(t *testing.T) {
		exp := now.Truncate(time.Second)
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		}
		require.NoError(t, claims.ValidateExpiry(exp))
		require.NoError(t, claims.ValidateExpiry(exp.Add(999*time.Millisecond)))
		require.ErrorIs(t, claims.ValidateExpiry(exp.Add(time.Second)), jwtx.ErrInvalidToken)
	})

	t.Run("no exp", func(t *testing.T) {
		claims := &jwtx.Claims{}
		require.NoError(t, claims.ValidateExpiry(now))
	})
}

func TestRoles(t *testing.T) {
	admin := jwtx.NewSessionClaims("1", "root@x.com", jwtx.RoleAdmin, "Root")
	user := jwtx.NewSessionClaims("2", "a@x.com", jwtx.RoleUser, "Alice")

	require.True(t, admin.IsAdmin())
	require.True(t, admin.HasRole("admin"))
	require.False(t, user.IsAdmin())
	require.False(t, user.HasRole("admin"))
	require.True(t, user.HasRole("user"))
}
