package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

func newTestManager() *Manager {
	return NewManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

// TestGenerateTokenPair 测试Token对签发与解析
func TestGenerateTokenPair(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair("user-1", "alice@example.com", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(15*60), pair.ExpiresIn)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	t.Run("Access Token解析出完整Claims", func(t *testing.T) {
		claims, err := m.ParseAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.Equal(t, 3, claims.TokenVersion)
	})

	t.Run("Refresh Token解析出UserID与版本号", func(t *testing.T) {
		claims, err := m.ParseRefreshToken(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, 3, claims.TokenVersion)
	})
}

// TestParseAccessToken 测试Access Token校验
func TestParseAccessToken(t *testing.T) {
	m := newTestManager()

	t.Run("乱码Token拒绝", func(t *testing.T) {
		_, err := m.ParseAccessToken("not-a-jwt")
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("密钥不同的Token拒绝", func(t *testing.T) {
		other := NewManager("other-secret", "other-refresh", time.Minute, time.Hour)
		token, err := other.GenerateAccessToken("user-1", "a@b.c", 0)
		require.NoError(t, err)

		_, err = m.ParseAccessToken(token)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("过期Token拒绝", func(t *testing.T) {
		expired := NewManager("test-access-secret", "test-refresh-secret", -time.Minute, time.Hour)
		token, err := expired.GenerateAccessToken("user-1", "a@b.c", 0)
		require.NoError(t, err)

		_, err = m.ParseAccessToken(token)
		assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})

	t.Run("Refresh密钥签的Token不能当Access用", func(t *testing.T) {
		refreshToken, err := m.GenerateRefreshToken("user-1", 0)
		require.NoError(t, err)

		_, err = m.ParseAccessToken(refreshToken)
		assert.Error(t, err, "双密钥隔离:Refresh Token不能通过Access校验")
	})
}

// TestParseAccessTokenAllowExpired 测试刷新场景的宽松解析
func TestParseAccessTokenAllowExpired(t *testing.T) {
	m := newTestManager()

	t.Run("过期Token仍能取出Claims", func(t *testing.T) {
		expired := NewManager("test-access-secret", "test-refresh-secret", -time.Minute, time.Hour)
		token, err := expired.GenerateAccessToken("user-9", "z@b.c", 7)
		require.NoError(t, err)

		claims, err := m.ParseAccessTokenAllowExpired(token)
		require.NoError(t, err, "刷新时允许Access Token过期")
		assert.Equal(t, "user-9", claims.UserID)
		assert.Equal(t, 7, claims.TokenVersion)
	})

	t.Run("签名非法仍然拒绝", func(t *testing.T) {
		other := NewManager("other-secret", "other-refresh", time.Minute, time.Hour)
		token, err := other.GenerateAccessToken("user-1", "a@b.c", 0)
		require.NoError(t, err)

		_, err = m.ParseAccessTokenAllowExpired(token)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "忽略有效期不等于忽略签名")
	})
}

// TestParseRefreshToken 测试Refresh Token校验
func TestParseRefreshToken(t *testing.T) {
	m := newTestManager()

	t.Run("Access密钥签的Token不能当Refresh用", func(t *testing.T) {
		accessToken, err := m.GenerateAccessToken("user-1", "a@b.c", 0)
		require.NoError(t, err)

		_, err = m.ParseRefreshToken(accessToken)
		assert.Error(t, err)
	})

	t.Run("过期Refresh Token拒绝", func(t *testing.T) {
		expired := NewManager("test-access-secret", "test-refresh-secret", time.Minute, -time.Minute)
		token, err := expired.GenerateRefreshToken("user-1", 0)
		require.NoError(t, err)

		_, err = m.ParseRefreshToken(token)
		assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})
}
