package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookcatalog/internal/domain/user"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/jwt"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// userKey 认证通过后当前用户在gin.Context中的键
const userKey = "auth.user"

// PermissionCache 角色权限集合缓存（由infrastructure/persistence/redis实现）
// 未命中或不可用时回源数据库，正确性不依赖缓存
type PermissionCache interface {
	Get(ctx context.Context, roleID string) ([]string, bool)
	Set(ctx context.Context, roleID string, perms []string)
}

// AuthMiddleware 认证中间件
type AuthMiddleware struct {
	jwt   *jwt.Manager
	users user.Repository
	perms PermissionCache
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtMgr *jwt.Manager, users user.Repository, perms PermissionCache) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtMgr, users: users, perms: perms}
}

// RequireAuth 要求请求携带合法的Access Token
// 步骤：
// 1. 从Authorization头提取Bearer Token并验证签名与有效期
// 2. 加载用户并检查账号启用状态
// 3. 比对Token中的版本号与用户当前版本号：
//    登出后版本号+1，旧Token在这里被拒绝（无需黑名单）
// 4. 展开角色权限集合（Redis缓存，未命中回源数据库）
// 5. 当前用户写入请求上下文供后续处理器使用
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := m.jwt.ParseAccessToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		u, err := m.users.FindByID(ctx, claims.UserID)
		if err != nil {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !u.IsActive {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}

		if claims.TokenVersion != u.TokenVersion {
			response.Error(c, apperrors.ErrTokenRevoked)
			c.Abort()
			return
		}

		// super_admin绕过权限检查，无需展开权限集合
		if u.RoleName != user.RoleSuperAdmin {
			perms, err := m.loadPermissions(ctx, u)
			if err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
			u.Permissions = perms
		}

		c.Set(userKey, u)
		c.Next()
	}
}

// loadPermissions 读取角色权限集合（read-through缓存）
func (m *AuthMiddleware) loadPermissions(ctx context.Context, u *user.User) ([]string, error) {
	if perms, ok := m.perms.Get(ctx, u.RoleID); ok {
		return perms, nil
	}

	full, err := m.users.FindWithPermissions(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	perms := full.Permissions
	if perms == nil {
		perms = []string{}
	}
	m.perms.Set(ctx, u.RoleID, perms)
	return perms, nil
}

// RequirePermission 要求当前用户具备指定权限（super_admin绕过）
// 必须挂在RequireAuth之后
func (m *AuthMiddleware) RequirePermission(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil || !u.HasPermission(action) {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser 取出认证中间件写入的当前用户，未认证返回nil
func CurrentUser(c *gin.Context) *user.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*user.User); ok {
			return u
		}
	}
	return nil
}

// extractBearerToken 从Authorization头提取Bearer Token
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

// APIKeyAuth 健康检查端点的API Key保护
// key为空时不启用（开发环境）
func APIKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key != "" && c.GetHeader("X-API-Key") != key {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
