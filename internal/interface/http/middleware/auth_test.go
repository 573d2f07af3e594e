package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookcatalog/internal/domain/user"
	"github.com/xiebiao/bookcatalog/pkg/jwt"
)

// fakeUsers 单用户仓储
type fakeUsers struct {
	user.Repository
	u *user.User
}

func (r *fakeUsers) FindByID(ctx context.Context, id string) (*user.User, error) {
	if r.u == nil || r.u.ID != id {
		return nil, user.ErrUserNotFound
	}
	clone := *r.u
	return &clone, nil
}

func (r *fakeUsers) FindWithPermissions(ctx context.Context, id string) (*user.User, error) {
	return r.FindByID(ctx, id)
}

// fakeCache 内存权限缓存，记录读写次数
type fakeCache struct {
	perms map[string][]string
	hits  int
	sets  int
}

func (c *fakeCache) Get(ctx context.Context, roleID string) ([]string, bool) {
	perms, ok := c.perms[roleID]
	if ok {
		c.hits++
	}
	return perms, ok
}

func (c *fakeCache) Set(ctx context.Context, roleID string, perms []string) {
	if c.perms == nil {
		c.perms = make(map[string][]string)
	}
	c.perms[roleID] = perms
	c.sets++
}

func setupRouter(t *testing.T, u *user.User, requiredPerm string) (*gin.Engine, *jwt.Manager, *fakeCache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtMgr := jwt.NewManager("acc", "ref", 15*time.Minute, time.Hour)
	cache := &fakeCache{}
	mw := NewAuthMiddleware(jwtMgr, &fakeUsers{u: u}, cache)

	r := gin.New()
	handlers := []gin.HandlerFunc{mw.RequireAuth()}
	if requiredPerm != "" {
		handlers = append(handlers, mw.RequirePermission(requiredPerm))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CurrentUser(c).ID})
	})
	r.GET("/protected", handlers...)
	return r, jwtMgr, cache
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func editorUser() *user.User {
	return &user.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		TokenVersion: 2,
		RoleID:       "role-editor",
		RoleName:     user.RoleEditor,
		Permissions:  []string{user.PermBooksRead},
		IsActive:     true,
	}
}

// TestRequireAuth 测试认证中间件
func TestRequireAuth(t *testing.T) {
	t.Run("无Token拒绝", func(t *testing.T) {
		r, _, _ := setupRouter(t, editorUser(), "")
		w := doRequest(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("合法Token放行并注入当前用户", func(t *testing.T) {
		u := editorUser()
		r, jwtMgr, _ := setupRouter(t, u, "")
		token, err := jwtMgr.GenerateAccessToken(u.ID, u.Email, u.TokenVersion)
		require.NoError(t, err)

		w := doRequest(r, token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-1")
	})

	t.Run("版本号不匹配的Token拒绝", func(t *testing.T) {
		// 模拟登出后场景:Token携带旧版本号,用户当前版本号已+1
		u := editorUser()
		r, jwtMgr, _ := setupRouter(t, u, "")
		token, err := jwtMgr.GenerateAccessToken(u.ID, u.Email, u.TokenVersion-1)
		require.NoError(t, err)

		w := doRequest(r, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "40105", "应返回Token已吊销的业务码")
	})

	t.Run("停用账号拒绝", func(t *testing.T) {
		u := editorUser()
		u.IsActive = false
		r, jwtMgr, _ := setupRouter(t, u, "")
		token, err := jwtMgr.GenerateAccessToken(u.ID, u.Email, u.TokenVersion)
		require.NoError(t, err)

		w := doRequest(r, token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

// TestRequirePermission 测试权限中间件
func TestRequirePermission(t *testing.T) {
	t.Run("具备权限放行", func(t *testing.T) {
		u := editorUser()
		r, jwtMgr, _ := setupRouter(t, u, user.PermBooksRead)
		token, err := jwtMgr.GenerateAccessToken(u.ID, u.Email, u.TokenVersion)
		require.NoError(t, err)

		w := doRequest(r, token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("缺少权限拒绝", func(t *testing.T) {
		u := editorUser()
		r, jwtMgr, _ := setupRouter(t, u, user.PermUsersCreate)
		token, err := jwtMgr.GenerateAccessToken(u.ID, u.Email, u.TokenVersion)
		require.NoError(t, err)

		w := doRequest(r, token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("super_admin绕过权限检查", func(t *testing.T) {
		u := editorUser()
		u.RoleName = user.RoleSuperAdmin
		u.Permissions = nil
		r, jwtMgr, _ := setupRouter(t, u, user.PermUsersDelete)
		token, err := jwtMgr.GenerateAccessToken(u.ID, u.Email, u.TokenVersion)
		require.NoError(t, err)

		w := doRequest(r, token)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// TestPermissionCacheReadThrough 测试权限集合的read-through缓存
func TestPermissionCacheReadThrough(t *testing.T) {
	u := editorUser()
	r, jwtMgr, cache := setupRouter(t, u, user.PermBooksRead)
	token, err := jwtMgr.GenerateAccessToken(u.ID, u.Email, u.TokenVersion)
	require.NoError(t, err)

	// 第一次请求缓存未命中,回源后写入
	w := doRequest(r, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 0, cache.hits)

	// 第二次请求命中缓存
	w = doRequest(r, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, cache.hits)
}
