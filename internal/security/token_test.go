package security

import (
	"testing"
	"time"

	"library-backend/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	tm := NewTokenManager(testSecret, time.Hour, 24*time.Hour, clk)

	t.Run("Access token round trip", func(t *testing.T) {
		token, err := tm.GenerateAccessToken(42, "alice", []string{RoleMember, RoleStaff})
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, TokenTypeAccess, claims.Type)
		assert.True(t, claims.HasRole(RoleStaff))
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("Refresh tokens carry unique ids", func(t *testing.T) {
		a, err := tm.GenerateRefreshToken(42, "alice")
		require.NoError(t, err)
		b, err := tm.GenerateRefreshToken(42, "alice")
		require.NoError(t, err)

		ca, err := tm.ValidateToken(a)
		require.NoError(t, err)
		cb, err := tm.ValidateToken(b)
		require.NoError(t, err)
		assert.Equal(t, TokenTypeRefresh, ca.Type)
		assert.NotEqual(t, ca.ID, cb.ID)
	})

	t.Run("Expired", func(t *testing.T) {
		local := clock.NewManual(clk.Now())
		tm := NewTokenManager(testSecret, time.Hour, 24*time.Hour, local)
		token, err := tm.GenerateAccessToken(1, "bob", nil)
		require.NoError(t, err)

		local.Advance(2 * time.Hour)
		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour, time.Hour, clk)
		token, err := other.GenerateAccessToken(1, "bob", nil)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
