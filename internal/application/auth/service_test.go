package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookcatalog/internal/domain/user"
	"github.com/xiebiao/bookcatalog/pkg/jwt"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.InitMetrics()
	m.Run()
}

// fakeUserService 单用户内存版用户服务
type fakeUserService struct {
	user.Service
	u          *user.User
	password   string
	storedHash *string // 已设置的Refresh Token（明文比对即可）
}

func (s *fakeUserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	if s.u == nil || email != s.u.Email || password != s.password {
		return nil, user.ErrInvalidCredentials
	}
	return s.u, nil
}

func (s *fakeUserService) SetRefreshToken(ctx context.Context, userID, refreshToken string) error {
	s.storedHash = &refreshToken
	return nil
}

func (s *fakeUserService) VerifyRefreshToken(ctx context.Context, userID, refreshToken string) (*user.User, error) {
	if s.u == nil || userID != s.u.ID || s.storedHash == nil || *s.storedHash != refreshToken {
		return nil, user.ErrRefreshDenied
	}
	return s.u, nil
}

func (s *fakeUserService) RevokeTokens(ctx context.Context, userID string) error {
	if s.u == nil || userID != s.u.ID {
		return user.ErrUserNotFound
	}
	s.u.TokenVersion++
	s.storedHash = nil
	return nil
}

func newTestApp() (*AppService, *fakeUserService, *jwt.Manager) {
	users := &fakeUserService{
		u: &user.User{
			ID:           "user-1",
			Email:        "alice@example.com",
			TokenVersion: 0,
			IsActive:     true,
		},
		password: "correct-horse",
	}
	jwtMgr := jwt.NewManager("acc-secret", "ref-secret", 15*time.Minute, 7*24*time.Hour)
	return NewAppService(users, jwtMgr), users, jwtMgr
}

// TestLogin 测试登录编排
func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("登录成功签发Token对并落库Refresh哈希", func(t *testing.T) {
		app, users, jwtMgr := newTestApp()

		result, err := app.Login(ctx, "alice@example.com", "correct-horse")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.NotEmpty(t, result.Tokens.RefreshToken)
		assert.NotNil(t, users.storedHash, "Refresh Token应已持久化")

		claims, err := jwtMgr.ParseAccessToken(result.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, 0, claims.TokenVersion)
	})

	t.Run("凭证错误登录失败", func(t *testing.T) {
		app, users, _ := newTestApp()
		_, err := app.Login(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)
		assert.Nil(t, users.storedHash)
	})
}

// TestRefresh 测试Token刷新编排
func TestRefresh(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, app *AppService) (string, string) {
		t.Helper()
		result, err := app.Login(ctx, "alice@example.com", "correct-horse")
		require.NoError(t, err)
		return result.Tokens.AccessToken, result.Tokens.RefreshToken
	}

	t.Run("正常刷新只换发Access Token", func(t *testing.T) {
		app, users, jwtMgr := newTestApp()
		access, refresh := login(t, app)

		newAccess, expiresIn, err := app.Refresh(ctx, access, refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.Equal(t, int64(15*60), expiresIn)

		claims, err := jwtMgr.ParseAccessToken(newAccess)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)

		// Refresh Token不轮换:原Token仍然有效
		assert.Equal(t, refresh, *users.storedHash)
		_, _, err = app.Refresh(ctx, access, refresh)
		assert.NoError(t, err)
	})

	t.Run("过期的Access Token仍可刷新", func(t *testing.T) {
		app, _, _ := newTestApp()
		_, refresh := login(t, app)

		expiredMgr := jwt.NewManager("acc-secret", "ref-secret", -time.Minute, time.Hour)
		expiredAccess, err := expiredMgr.GenerateAccessToken("user-1", "alice@example.com", 0)
		require.NoError(t, err)

		newAccess, _, err := app.Refresh(ctx, expiredAccess, refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, newAccess)
	})

	t.Run("与库中哈希不匹配的Refresh Token拒绝", func(t *testing.T) {
		app, _, _ := newTestApp()
		access, _ := login(t, app)

		// 另行签发的Refresh Token签名合法但与库中不一致
		// （有效期不同保证Token串与登录签发的不同）
		strayMgr := jwt.NewManager("acc-secret", "ref-secret", 15*time.Minute, time.Hour)
		stray, err := strayMgr.GenerateRefreshToken("user-1", 0)
		require.NoError(t, err)
		_, _, err = app.Refresh(ctx, access, stray)
		assert.ErrorIs(t, err, user.ErrRefreshDenied)
	})

	t.Run("登出后旧Refresh Token拒绝", func(t *testing.T) {
		app, _, _ := newTestApp()
		access, refresh := login(t, app)

		require.NoError(t, app.Logout(ctx, "user-1"))
		_, _, err := app.Refresh(ctx, access, refresh)
		assert.ErrorIs(t, err, user.ErrRefreshDenied)
	})

	t.Run("两个Token的UserID不一致拒绝", func(t *testing.T) {
		app, _, jwtMgr := newTestApp()
		_, refresh := login(t, app)

		otherAccess, err := jwtMgr.GenerateAccessToken("user-2", "bob@example.com", 0)
		require.NoError(t, err)
		_, _, err = app.Refresh(ctx, otherAccess, refresh)
		assert.ErrorIs(t, err, user.ErrRefreshDenied)
	})
}

// TestLogout 测试登出吊销
func TestLogout(t *testing.T) {
	ctx := context.Background()
	app, users, _ := newTestApp()

	_, err := app.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, app.Logout(ctx, "user-1"))
	assert.Equal(t, 1, users.u.TokenVersion, "登出后版本号+1")
	assert.Nil(t, users.storedHash, "登出后Refresh Token哈希清除")
}
